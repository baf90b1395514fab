// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Job is a unit of background work, typically a closure over Run.
type Job func(ctx context.Context, w io.Writer) error

// Runner executes one background pipeline job at a time. A lock file marks
// a run in progress (so restarts can detect a stale run), and all job
// output is streamed to a log file the web UI tails.
type Runner struct {
	lockPath string
	logPath  string

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRunner creates a runner using the given lock and log file paths.
func NewRunner(lockPath, logPath string) *Runner {
	return &Runner{lockPath: lockPath, logPath: logPath}
}

// Start launches job in a background goroutine. It fails when a run is
// already in progress, including one recorded by a leftover lock file.
func (r *Runner) Start(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("a process is already running")
	}
	if _, err := os.Stat(r.lockPath); err == nil {
		return fmt.Errorf("lock file %s exists: a process is already running", r.lockPath)
	}

	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	if err := os.WriteFile(r.lockPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}

	logFile, err := os.Create(r.logPath)
	if err != nil {
		os.Remove(r.lockPath)
		return fmt.Errorf("creating log file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go func() {
		defer func() {
			logFile.Close()
			os.Remove(r.lockPath)
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			close(r.done)
		}()

		if err := job(ctx, logFile); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(logFile, "\n--- PROCESS TERMINATED BY USER ---")
			} else {
				fmt.Fprintf(logFile, "\nrun failed: %v\n", err)
			}
			return
		}
		fmt.Fprintln(logFile, "\nrun complete")
	}()

	return nil
}

// Stop cancels the active run and waits for it to wind down. Stopping an
// idle runner only clears a stale lock file.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	running := r.running
	r.mu.Unlock()

	if running && cancel != nil {
		cancel()
		<-done
		return
	}
	// Stale lock from a previous process.
	os.Remove(r.lockPath)
}

// Running reports whether a run is in progress. The lock file is the source
// of truth so a stale lock from a crashed process is visible too.
func (r *Runner) Running() bool {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running {
		return true
	}
	_, err := os.Stat(r.lockPath)
	return err == nil
}

// Log returns the current contents of the run log, trimmed of trailing
// whitespace. Missing log files read as empty.
func (r *Runner) Log() string {
	data, err := os.ReadFile(r.logPath)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\n")
}

// ClearStaleLock removes a leftover lock file from a previous process.
// Called once at startup.
func (r *Runner) ClearStaleLock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		os.Remove(r.lockPath)
	}
}
