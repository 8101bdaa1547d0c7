// Package store database for user settings, wallet receive state, and artwork state
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/aouyang1/iotacanvas/settings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const DefaultNode = "https://nodes.devnet.iota.org:443"

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	// m.Close would close db through the driver, so it is left open here
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

const selectSettings = `
	SELECT art_refresh_enabled,
	       art_refresh_rate,
	       refresh_unit,
	       ai_marketplace_url,
	       timezone,
	       display_off_enabled,
	       display_off_time,
	       display_on_time,
	       gpio_setup,
	       gpio_skip,
	       gpio_like
	FROM user_settings
	WHERE singleton = 1
`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getSettings(ctx context.Context, q querier) (*settings.Record, error) {
	var s settings.Record
	err := q.QueryRowContext(ctx, selectSettings).Scan(
		&s.ArtRefreshEnabled,
		&s.ArtRefreshRate,
		&s.RefreshUnit,
		&s.AIMarketplaceURL,
		&s.Timezone,
		&s.DisplayOffEnabled,
		&s.DisplayOffTime,
		&s.DisplayOnTime,
		&s.GPIOSetup,
		&s.GPIOSkip,
		&s.GPIOLike,
	)
	if err == sql.ErrNoRows {
		// Bootstrap defaults if no settings row exists yet
		defaults := settings.Defaults()
		if err := upsertSettings(ctx, q, &defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

func upsertSettings(ctx context.Context, q querier, s *settings.Record) error {
	const stmt = `
		INSERT INTO user_settings (
			singleton,
			art_refresh_enabled,
			art_refresh_rate,
			refresh_unit,
			ai_marketplace_url,
			timezone,
			display_off_enabled,
			display_off_time,
			display_on_time,
			gpio_setup,
			gpio_skip,
			gpio_like
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			art_refresh_enabled = excluded.art_refresh_enabled,
			art_refresh_rate    = excluded.art_refresh_rate,
			refresh_unit        = excluded.refresh_unit,
			ai_marketplace_url  = excluded.ai_marketplace_url,
			timezone            = excluded.timezone,
			display_off_enabled = excluded.display_off_enabled,
			display_off_time    = excluded.display_off_time,
			display_on_time     = excluded.display_on_time,
			gpio_setup          = excluded.gpio_setup,
			gpio_skip           = excluded.gpio_skip,
			gpio_like           = excluded.gpio_like
	`

	_, err := q.ExecContext(
		ctx,
		stmt,
		boolToInt(s.ArtRefreshEnabled),
		s.ArtRefreshRate,
		s.RefreshUnit,
		s.AIMarketplaceURL,
		s.Timezone,
		boolToInt(s.DisplayOffEnabled),
		s.DisplayOffTime,
		s.DisplayOnTime,
		s.GPIOSetup,
		s.GPIOSkip,
		s.GPIOLike,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func (d *Database) GetSettings(ctx context.Context) (*settings.Record, error) {
	return getSettings(ctx, d.db)
}

// UpdateSettingsFields validates and applies the named fields in one
// transaction and returns the stored record. Nothing is written if any field
// is rejected.
func (d *Database) UpdateSettingsFields(ctx context.Context, fields map[string]any) (*settings.Record, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", settings.ErrInvalidValue)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settings update: %w", err)
	}
	defer tx.Rollback()

	current, err := getSettings(ctx, tx)
	if err != nil {
		return nil, err
	}

	for name, value := range fields {
		if err := settings.Validate(name, value); err != nil {
			return nil, err
		}
		if err := current.Set(name, value); err != nil {
			return nil, err
		}
	}

	if err := upsertSettings(ctx, tx, current); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settings update: %w", err)
	}
	return current, nil
}

func getIotaState(ctx context.Context, q querier) (*IotaState, error) {
	const query = `
		SELECT node,
		       addr_index,
		       receive_address
		FROM iota_state
		WHERE singleton = 1
	`

	var s IotaState
	err := q.QueryRowContext(ctx, query).Scan(&s.Node, &s.AddrIndex, &s.ReceiveAddress)
	if err == sql.ErrNoRows {
		defaults := &IotaState{Node: DefaultNode}
		if err := upsertIotaState(ctx, q, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get iota state: %w", err)
	}
	return &s, nil
}

func (d *Database) GetIotaState(ctx context.Context) (*IotaState, error) {
	return getIotaState(ctx, d.db)
}

// SetReceiveAddress stores a freshly generated address and advances the
// address index past it in one transaction.
func (d *Database) SetReceiveAddress(ctx context.Context, address string) (*IotaState, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin receive address update: %w", err)
	}
	defer tx.Rollback()

	// bootstraps the row when missing
	if _, err := getIotaState(ctx, tx); err != nil {
		return nil, err
	}

	const stmt = `
		UPDATE iota_state
		SET receive_address = ?,
		    addr_index      = addr_index + 1
		WHERE singleton = 1
	`
	if _, err := tx.ExecContext(ctx, stmt, address); err != nil {
		return nil, fmt.Errorf("set receive address: %w", err)
	}

	s, err := getIotaState(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit receive address update: %w", err)
	}
	return s, nil
}

// SetNode points the wallet at another iota node.
func (d *Database) SetNode(ctx context.Context, node string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin node update: %w", err)
	}
	defer tx.Rollback()

	if _, err := getIotaState(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE iota_state SET node = ? WHERE singleton = 1`, node); err != nil {
		return fmt.Errorf("set iota node: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit node update: %w", err)
	}
	return nil
}

func upsertIotaState(ctx context.Context, q querier, s *IotaState) error {
	const stmt = `
		INSERT INTO iota_state (
			singleton,
			node,
			addr_index,
			receive_address
		) VALUES (1, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			node            = excluded.node,
			addr_index      = excluded.addr_index,
			receive_address = excluded.receive_address
	`
	if _, err := q.ExecContext(ctx, stmt, s.Node, s.AddrIndex, s.ReceiveAddress); err != nil {
		return fmt.Errorf("upsert iota state: %w", err)
	}
	return nil
}

func (d *Database) GetArtState(ctx context.Context) (*ArtState, error) {
	const query = `
		SELECT current_artwork,
		       last_refresh_time
		FROM art_state
		WHERE singleton = 1
	`

	var s ArtState
	var lastRefresh sql.NullInt64
	err := d.db.QueryRowContext(ctx, query).Scan(&s.CurrentArtwork, &lastRefresh)
	if err == sql.ErrNoRows {
		return &ArtState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get art state: %w", err)
	}
	if lastRefresh.Valid {
		t := time.Unix(lastRefresh.Int64, 0)
		s.LastRefreshTime = &t
	}
	return &s, nil
}

func (d *Database) SetCurrentArtwork(ctx context.Context, name string) error {
	const stmt = `
		INSERT INTO art_state (singleton, current_artwork) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET current_artwork = excluded.current_artwork
	`
	if _, err := d.db.ExecContext(ctx, stmt, name); err != nil {
		return fmt.Errorf("set current artwork: %w", err)
	}
	return nil
}

func (d *Database) SetLastRefresh(ctx context.Context, t time.Time) error {
	const stmt = `
		INSERT INTO art_state (singleton, last_refresh_time) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET last_refresh_time = excluded.last_refresh_time
	`
	if _, err := d.db.ExecContext(ctx, stmt, t.Unix()); err != nil {
		return fmt.Errorf("set last refresh time: %w", err)
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *Database) Close() error {
	return d.db.Close()
}
