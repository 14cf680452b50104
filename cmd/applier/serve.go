package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apply-agent/internal/adapter/httpapi"
	"apply-agent/internal/adapter/intake"
	"apply-agent/internal/di"
	"apply-agent/internal/infrastructure/config"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr        string
	serveProfile     string
	redisQueue       string
	redisResultQueue string
	redisAddr        string
	redisPassword    string
	redisDB          int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control API and optionally consume workflow requests from Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.LoadProfile(serveProfile)
		if err != nil {
			return err
		}

		cfg := containerConfig()
		cfg.Profile = profile
		c, err := di.NewContainer(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handler := httpapi.NewHandler(c.Dispatcher, c.Logger)
		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           httpapi.NewRouter(handler, httpapi.NewAccessLogger("applier")),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 2)
		go func() {
			c.Logger.Info("HTTP listening", "addr", serveAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		if redisQueue != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     redisAddr,
				Password: redisPassword,
				DB:       redisDB,
			})
			defer client.Close()
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping %s: %w", redisAddr, err)
			}

			consumer := intake.NewConsumer(client, c.Dispatcher, intake.Config{
				Queue:       redisQueue,
				ResultQueue: redisResultQueue,
			}, c.Logger)
			go func() {
				if err := consumer.Start(ctx); err != nil {
					errCh <- err
				}
			}()
		}

		var serveErr error
		select {
		case <-ctx.Done():
		case serveErr = <-errCh:
		}

		c.Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.Logger.Warn("HTTP shutdown", "error", err)
		}
		c.Dispatcher.Stop()
		c.Dispatcher.Wait()
		return serveErr
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveProfile, "profile", config.DefaultProfilePath, "Candidate profile YAML")
	serveCmd.Flags().StringVar(&redisQueue, "redis-queue", "", "Redis list to pop workflow requests from (disabled when empty)")
	serveCmd.Flags().StringVar(&redisResultQueue, "redis-result-queue", intake.DefaultResultQueue, "Redis list receiving workflow reports")
	serveCmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address")
	serveCmd.Flags().StringVar(&redisPassword, "redis-password", "", "Redis password")
	serveCmd.Flags().IntVar(&redisDB, "redis-db", 0, "Redis database")
	rootCmd.AddCommand(serveCmd)
}
