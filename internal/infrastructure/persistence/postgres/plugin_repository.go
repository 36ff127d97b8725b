package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/storefront-core/payment-service/internal/infrastructure/persistence"
	"github.com/storefront-core/payment-service/internal/plugins"
)

// PluginConfigurationRepository persists plugin configurations as one row per
// plugin, items stored as JSONB.
type PluginConfigurationRepository struct {
	db *persistence.DB
}

func NewPluginConfigurationRepository(db *persistence.DB) *PluginConfigurationRepository {
	return &PluginConfigurationRepository{db: db}
}

func (r *PluginConfigurationRepository) Get(ctx context.Context, name string) (*plugins.PluginConfiguration, error) {
	query := `SELECT name, active, configuration FROM plugin_configurations WHERE name = $1`

	var cfg plugins.PluginConfiguration
	var items []byte
	err := r.db.Pool.QueryRow(ctx, query, name).Scan(&cfg.Name, &cfg.Active, &items)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load plugin configuration %s: %w", name, err)
	}

	if err := json.Unmarshal(items, &cfg.Configuration); err != nil {
		return nil, fmt.Errorf("decode plugin configuration %s: %w", name, err)
	}
	return &cfg, nil
}

func (r *PluginConfigurationRepository) Upsert(ctx context.Context, configuration *plugins.PluginConfiguration) error {
	query := `
		INSERT INTO plugin_configurations (name, active, configuration, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET active = EXCLUDED.active,
		    configuration = EXCLUDED.configuration,
		    updated_at = EXCLUDED.updated_at
	`

	items, err := json.Marshal(configuration.Configuration)
	if err != nil {
		return fmt.Errorf("encode plugin configuration %s: %w", configuration.Name, err)
	}

	if _, err := r.db.Pool.Exec(ctx, query, configuration.Name, configuration.Active, items, time.Now()); err != nil {
		return fmt.Errorf("save plugin configuration %s: %w", configuration.Name, err)
	}
	return nil
}

var _ plugins.ConfigurationStore = (*PluginConfigurationRepository)(nil)
