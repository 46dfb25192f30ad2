package api

import (
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/chrisdamba/parksim/internal/models"
)

const (
	writeWait     = 10 * time.Second
	clientBacklog = 16
)

var errSlowClient = errors.New("websocket client is not keeping up")

// clientQueue buffers snapshots for one websocket client. The first
// snapshot that does not fit marks the client as slow; nothing is queued
// after that.
type clientQueue struct {
	updates  chan models.FeedSnapshot
	slow     chan struct{}
	slowOnce sync.Once
}

func newClientQueue(backlog int) *clientQueue {
	return &clientQueue{
		updates: make(chan models.FeedSnapshot, backlog),
		slow:    make(chan struct{}),
	}
}

// offer is the subscriber callback.
func (q *clientQueue) offer(s models.FeedSnapshot) error {
	select {
	case <-q.slow:
		return errSlowClient
	default:
	}
	select {
	case q.updates <- s:
		return nil
	default:
		q.slowOnce.Do(func() { close(q.slow) })
		return errSlowClient
	}
}

// streamFeed pushes the current snapshot and then every published one.
// A sequence is never sent twice. A client that falls a full backlog
// behind is disconnected rather than left with a gap.
func (h *Handler) streamFeed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	queue := newClientQueue(clientBacklog)
	sub := h.feed.Subscribe(queue.offer)
	defer h.feed.Unsubscribe(sub)

	// drain client frames so close messages are processed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var last uint64
	send := func(s models.FeedSnapshot) error {
		if !s.Loading && s.Sequence <= last {
			return nil
		}
		last = s.Sequence
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(s)
	}

	if err := send(h.feed.Read()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-queue.slow:
			logrus.WithField("sequence", last).Info("disconnecting slow websocket client")
			return
		case s := <-queue.updates:
			if err := send(s); err != nil {
				logrus.WithError(err).Debug("websocket write failed")
				return
			}
		}
	}
}
