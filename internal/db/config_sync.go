package db

import (
	"context"
	"fmt"

	"zervos/internal/config"
)

// SyncWorkspacesFromConfig applies workspaces.yaml to the settings table.
// Workspaces listed in the file are config-managed: the file wins over stored values.
// It returns the IDs of the synced workspaces.
func (db *DB) SyncWorkspacesFromConfig(ctx context.Context, cfg *config.WorkspacesConfig) ([]string, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workspaces config is nil")
	}

	ids := make([]string, 0, len(cfg.Workspaces))
	for i := range cfg.Workspaces {
		ws := &cfg.Workspaces[i]
		if err := db.SaveSettings(ctx, ws.Settings()); err != nil {
			return ids, fmt.Errorf("sync workspace %s: %w", ws.ID, err)
		}
		ids = append(ids, ws.ID)
	}

	db.logger.Info().Int("workspaces", len(ids)).Msg("workspaces synced from config")
	return ids, nil
}
