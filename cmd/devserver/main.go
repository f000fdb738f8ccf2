// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command devserver runs the in-memory appliance-support backend for local
// development of the terminal client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/devserver"
	"github.com/jeranaias/applianceai-tui/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr      string
		seed      string
		tokenTTL  time.Duration
		rateLimit int
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:           "devserver",
		Short:         "Run an in-memory appliance-support backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logging.Setup(logging.Options{Level: logLevel, Console: os.Stderr}); err != nil {
				return err
			}
			log := logging.For("devserver")

			opts := []devserver.Option{devserver.WithAccessTTL(tokenTTL)}
			if seed != "" {
				username, email, password, err := parseSeed(seed)
				if err != nil {
					return err
				}
				opts = append(opts, devserver.WithSeedUser(username, email, password))
				log.Info().Str("email", email).Msg("seeded account")
			}
			if rateLimit > 0 {
				opts = append(opts, devserver.WithRateLimit(rateLimit, time.Minute))
			}
			srv := devserver.New(opts...)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info().Msg("stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", devserver.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&seed, "seed", "demo:demo@example.com:demo", "account to create at startup as username:email:password (empty for none)")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", devserver.DefaultAccessTTL, "access token lifetime")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute per client (0 disables)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func parseSeed(s string) (string, string, string, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", errors.New("--seed must be username:email:password")
	}
	return parts[0], parts[1], parts[2], nil
}
