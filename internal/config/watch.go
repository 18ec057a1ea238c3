package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ApplyFunc pushes a loaded workspaces config into the running system.
type ApplyFunc func(ctx context.Context, cfg *WorkspacesConfig) error

// WorkspaceWatcher re-applies workspaces.yaml when its content changes.
// Touching the file without editing it does not trigger a sync.
type WorkspaceWatcher struct {
	path     string
	interval time.Duration
	apply    ApplyFunc
	logger   *zerolog.Logger

	applied bool
	sum     [sha256.Size]byte
}

func NewWorkspaceWatcher(path string, interval time.Duration, apply ApplyFunc, logger *zerolog.Logger) *WorkspaceWatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if path == "" {
		path = "configs/workspaces.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := logger.With().Str("component", "workspaces_watcher").Str("path", path).Logger()
	return &WorkspaceWatcher{path: path, interval: interval, apply: apply, logger: &l}
}

// Check applies the file if its content differs from the last applied
// version and reports whether it did. When apply fails the previous
// checksum is kept, so the next check retries.
func (w *WorkspaceWatcher) Check(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, fmt.Errorf("read workspaces config: %w", err)
	}
	sum := sha256.Sum256(data)
	if w.applied && sum == w.sum {
		return false, nil
	}

	cfg, err := ParseWorkspacesConfig(data)
	if err != nil {
		return false, err
	}
	if w.apply != nil {
		if err := w.apply(ctx, cfg); err != nil {
			return false, fmt.Errorf("apply workspaces config: %w", err)
		}
	}
	w.sum = sum
	w.applied = true
	return true, nil
}

// Start applies the file once and returns its error, so a broken seed file
// stops startup. It then polls in the background until ctx is done.
func (w *WorkspaceWatcher) Start(ctx context.Context) error {
	if _, err := w.Check(ctx); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

func (w *WorkspaceWatcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := w.Check(ctx)
			if err != nil {
				w.logger.Warn().Err(err).Msg("Workspaces config reload failed, keeping previous settings")
				continue
			}
			if changed {
				w.logger.Info().Msg("Workspaces config reloaded")
			}
		}
	}
}
