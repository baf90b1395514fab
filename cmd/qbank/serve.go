// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/pipeline"
	"github.com/DipayanDasgupta/AIQuestionBankAutomator/internal/webui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser dashboard",
	Long: `Serve starts the web dashboard on the configured address (default :5000).
The dashboard shows live bank statistics, starts and stops background
generation runs, and offers a browser validation queue.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := newGeminiClient()
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	runner := pipeline.NewRunner(cfg.Serve.LockFile, cfg.Serve.LogFile)
	runner.ClearStaleLock()

	srv, err := webui.NewServer(store, client, runner, cfg, log)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening", "addr", cfg.Serve.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "shutting down")
	runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
