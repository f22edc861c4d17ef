// Package optimistic runs user actions that update local state before the
// server answers, reverting them when the call fails.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fanclub/pkg/logger"
)

// ErrBusy is returned when a command with the same key is still running.
var ErrBusy = errors.New("optimistic: command already running")

// Command keeps a local mutation next to its inverse and the server call it stands for.
type Command struct {
	// Key serializes commands on the same target, e.g. "like:<posting id>".
	Key    string
	Apply  func()
	Revert func()
	Call   func(ctx context.Context) error
}

// Toggle builds the command that flips a boolean such as liked or following.
// set receives the new value locally; call sends it to the server.
func Toggle(key string, current bool, set func(bool), call func(ctx context.Context, on bool) error) Command {
	next := !current
	return Command{
		Key:    key,
		Apply:  func() { set(next) },
		Revert: func() { set(current) },
		Call:   func(ctx context.Context) error { return call(ctx, next) },
	}
}

// Runner executes commands. Nothing is retried; a failure is reverted and returned.
type Runner struct {
	logger *logger.Logger

	mu      sync.Mutex
	running map[string]struct{}
}

func NewRunner(log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{logger: log, running: make(map[string]struct{})}
}

func (r *Runner) Run(ctx context.Context, cmd Command) error {
	if cmd.Key != "" {
		r.mu.Lock()
		if _, busy := r.running[cmd.Key]; busy {
			r.mu.Unlock()
			return ErrBusy
		}
		r.running[cmd.Key] = struct{}{}
		r.mu.Unlock()

		defer func() {
			r.mu.Lock()
			delete(r.running, cmd.Key)
			r.mu.Unlock()
		}()
	}

	if cmd.Apply != nil {
		cmd.Apply()
	}
	if cmd.Call == nil {
		return nil
	}
	if err := cmd.Call(ctx); err != nil {
		if cmd.Revert != nil {
			cmd.Revert()
		}
		r.logger.Warn("Reverted %s: %v", cmd.Key, err)
		return fmt.Errorf("failed to run %s: %w", cmd.Key, err)
	}
	return nil
}
