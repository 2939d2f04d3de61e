package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/irtlab/adaptest/internal/itembank"
)

// SessionRecordData captures the outcome of one finished administration.
type SessionRecordData struct {
	SessionID  string
	Theta      float64
	SE         float64
	StopReason string
	ItemCount  int
	Degenerate bool
}

// ItemExposure is a per-item exposure statistic for reporting.
type ItemExposure struct {
	ItemID       string
	Domain       itembank.Domain
	Administered int64
	Rate         float64 // administered / sessions observed, 0 if none
}

// BankRepo is the persistence boundary for the item bank: calibrated items
// in, exposure counters and session outcomes out.
type BankRepo interface {
	// ImportItems upserts calibrated items, resetting their exposure rows.
	ImportItems(ctx context.Context, items []itembank.Item) error

	// LoadBank builds an in-memory Bank from the stored items, seeding
	// exposure counters from the persisted statistics.
	LoadBank(ctx context.Context) (*itembank.Bank, error)

	// SaveExposure writes the bank's current exposure counters back.
	SaveExposure(ctx context.Context, bank *itembank.Bank) error

	// RecordSession archives one finished administration.
	RecordSession(ctx context.Context, data SessionRecordData) error

	// ExposureStats returns per-item exposure statistics.
	ExposureStats(ctx context.Context) ([]ItemExposure, error)
}

type bankRepo struct {
	db *sql.DB
}

func (r *bankRepo) ImportItems(ctx context.Context, items []itembank.Item) error {
	// Validate before touching the database; calibration problems are
	// import-time errors, never scoring-time ones.
	for _, it := range items {
		if err := itembank.CheckItem(it); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, domain, discrimination, difficulty, guessing)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   domain = excluded.domain,
			   discrimination = excluded.discrimination,
			   difficulty = excluded.difficulty,
			   guessing = excluded.guessing`,
			it.ID, string(it.Domain), it.Discrimination, it.Difficulty, it.Guessing)
		if err != nil {
			return fmt.Errorf("upsert item %q: %w", it.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exposure (item_id, administered) VALUES (?, 0)
			 ON CONFLICT(item_id) DO NOTHING`,
			it.ID)
		if err != nil {
			return fmt.Errorf("init exposure for %q: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (r *bankRepo) LoadBank(ctx context.Context) (*itembank.Bank, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.domain, i.discrimination, i.difficulty, i.guessing,
		        COALESCE(e.administered, 0)
		 FROM items i LEFT JOIN exposure e ON e.item_id = i.id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []itembank.Item
	counts := make(map[string]int64)
	for rows.Next() {
		var it itembank.Item
		var domain string
		var administered int64
		if err := rows.Scan(&it.ID, &domain, &it.Discrimination, &it.Difficulty, &it.Guessing, &administered); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Domain = itembank.Domain(domain)
		items = append(items, it)
		counts[it.ID] = administered
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	bank, err := itembank.NewBank(items)
	if err != nil {
		return nil, err
	}

	sessions, err := r.sessionsObserved(ctx)
	if err != nil {
		return nil, err
	}
	bank.SeedExposure(counts, sessions)
	return bank, nil
}

func (r *bankRepo) SaveExposure(ctx context.Context, bank *itembank.Bank) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save exposure: %w", err)
	}
	defer tx.Rollback()

	for _, it := range bank.Items() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO exposure (item_id, administered) VALUES (?, ?)
			 ON CONFLICT(item_id) DO UPDATE SET administered = excluded.administered`,
			it.ID, bank.ExposureCount(it.ID))
		if err != nil {
			return fmt.Errorf("save exposure for %q: %w", it.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bank_meta (key, value) VALUES ('sessions', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		bank.Sessions())
	if err != nil {
		return fmt.Errorf("save session count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save exposure: %w", err)
	}
	return nil
}

func (r *bankRepo) RecordSession(ctx context.Context, data SessionRecordData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_records (session_id, theta, se, stop_reason, item_count, degenerate)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		data.SessionID, data.Theta, data.SE, data.StopReason, data.ItemCount, boolToInt(data.Degenerate))
	if err != nil {
		return fmt.Errorf("record session %q: %w", data.SessionID, err)
	}
	return nil
}

func (r *bankRepo) ExposureStats(ctx context.Context) ([]ItemExposure, error) {
	sessions, err := r.sessionsObserved(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.domain, COALESCE(e.administered, 0)
		 FROM items i LEFT JOIN exposure e ON e.item_id = i.id
		 ORDER BY COALESCE(e.administered, 0) DESC, i.id`)
	if err != nil {
		return nil, fmt.Errorf("query exposure stats: %w", err)
	}
	defer rows.Close()

	var stats []ItemExposure
	for rows.Next() {
		var st ItemExposure
		var domain string
		if err := rows.Scan(&st.ItemID, &domain, &st.Administered); err != nil {
			return nil, fmt.Errorf("scan exposure stat: %w", err)
		}
		st.Domain = itembank.Domain(domain)
		if sessions > 0 {
			st.Rate = float64(st.Administered) / float64(sessions)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exposure stats: %w", err)
	}
	return stats, nil
}

func (r *bankRepo) sessionsObserved(ctx context.Context) (int64, error) {
	var sessions int64
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM bank_meta WHERE key = 'sessions'`).Scan(&sessions)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("query session count: %w", err)
	}
	return sessions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
