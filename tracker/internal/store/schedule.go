package store

import (
	"context"
	"database/sql"
	"strconv"
)

const (
	settingScheduleEnabled  = "schedule_enabled"
	settingScheduleInterval = "schedule_interval_min"
)

// GetSchedule reads the persisted schedule configuration. Missing keys fall
// back to defaults: disabled, 60 minutes.
func (s *Store) GetSchedule(ctx context.Context) (*ScheduleConfig, error) {
	cfg := &ScheduleConfig{Enabled: false, IntervalMinutes: 60}

	if v, err := s.getSetting(ctx, settingScheduleEnabled); err != nil {
		return nil, err
	} else if v != "" {
		cfg.Enabled = v == "1"
	}

	if v, err := s.getSetting(ctx, settingScheduleInterval); err != nil {
		return nil, err
	} else if v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			cfg.IntervalMinutes = n
		}
	}
	return cfg, nil
}

// PutSchedule persists the schedule configuration.
func (s *Store) PutSchedule(ctx context.Context, cfg *ScheduleConfig) error {
	enabled := "0"
	if cfg.Enabled {
		enabled = "1"
	}
	if err := s.putSetting(ctx, settingScheduleEnabled, enabled); err != nil {
		return err
	}
	return s.putSetting(ctx, settingScheduleInterval, strconv.Itoa(cfg.IntervalMinutes))
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) putSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
