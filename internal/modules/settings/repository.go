// Package settings stores user managed configuration as key-value pairs.
// Persisted values take precedence over environment variables, see
// config.UpdateFromSettings.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/rs/zerolog"
)

// Repository handles settings database operations.
//
// Settings are stored as strings. The table is shared with nothing else, so
// every method runs in its own short transaction or single statement.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository.
//
// Parameters:
//   - db: Cache database holding the settings table
//   - log: Structured logger
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
//
// Parameters:
//   - key: Setting key (e.g., "api_key", "user_id")
//
// Returns:
//   - *string: Setting value if found, nil if not found
//   - error: Error if query fails
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRowContext(context.Background(), "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set inserts or updates a setting.
// The description is optional; an existing description is kept when nil.
//
// Parameters:
//   - key: Setting key
//   - value: Setting value (stored as string)
//   - description: Optional description of the setting
//
// Returns:
//   - error: Error if database operation fails
func (r *Repository) Set(key string, value string, description *string) error {
	return r.db.WithTx(context.Background(), func(tx *sql.Tx) error {
		return r.setTx(tx, key, value, description)
	})
}

func (r *Repository) setTx(tx *sql.Tx, key, value string, description *string) error {
	now := time.Now().Unix()

	var err error
	if description != nil {
		_, err = tx.Exec(r.db.Rebind(`
			INSERT INTO settings (key, value, description, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				description = excluded.description,
				updated_at = excluded.updated_at
		`), key, value, *description, now)
	} else {
		_, err = tx.Exec(r.db.Rebind(`
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`), key, value, now)
	}
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetMany writes several settings in one transaction; either all are stored or none.
func (r *Repository) SetMany(values map[string]string) error {
	return r.db.WithTx(context.Background(), func(tx *sql.Tx) error {
		for key, value := range values {
			var desc *string
			if d, ok := SettingDescriptions[key]; ok {
				desc = &d
			}
			if err := r.setTx(tx, key, value, desc); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAll retrieves all settings as a map.
//
// Returns:
//   - map[string]string: Map of setting keys to values
//   - error: Error if query fails
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.QueryContext(context.Background(), "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan setting row")
			continue
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return result, nil
}

// Delete deletes a setting. Deleting a missing key is not an error.
func (r *Repository) Delete(key string) error {
	_, err := r.db.ExecContext(context.Background(), "DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
