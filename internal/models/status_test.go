package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		available int
		total     int
		want      Status
	}{
		{"empty lot is full", 0, 80, StatusFull},
		{"below threshold is limited", 12, 80, StatusLimited},
		{"above threshold is available", 45, 120, StatusAvailable},
		{"exactly at threshold is available", 30, 100, StatusAvailable},
		{"just under threshold is limited", 29, 100, StatusLimited},
		{"single free space in large lot", 1, 300, StatusLimited},
		{"completely free", 150, 150, StatusAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.available, tt.total, DefaultLimitedThresholdRatio))
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusAvailable, StatusLimited, StatusFull, StatusUnknown} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("closed").Valid())
}
