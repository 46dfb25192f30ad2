package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/parksim/internal/api"
	"github.com/chrisdamba/parksim/internal/simulator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation behind an HTTP and websocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if logrus.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		sim, err := simulator.NewSimulator(cfg)
		if err != nil {
			return err
		}
		closeOutputs, err := attachOutputs(sim, cfg)
		if err != nil {
			return err
		}
		defer closeOutputs()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		srv := api.NewServer(cfg.HTTPAddr, sim)

		if err := sim.Start(ctx); err != nil {
			return err
		}

		g.Go(func() error {
			logrus.Infof("HTTP server listening on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-sim.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			sim.Stop()
			if simErr := sim.Err(); simErr != nil {
				return simErr
			}
			return err
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("http-addr", ":8080", "Address the HTTP API listens on")
	bindFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}
