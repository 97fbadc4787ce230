package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity outcomes
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Activity is one recorded top-level operation
type Activity struct {
	ID        int64
	OpID      string
	Action    string // e.g. "switch", "share-mod"
	Subject   string // Profile, mod or collection the action targeted
	Profiles  []string
	Outcome   string
	Detail    string // Error text for failed operations
	Duration  time.Duration
	CreatedAt time.Time
}

// Record inserts an activity entry, assigning an operation ID when empty
func (d *DB) Record(a *Activity) error {
	if a.OpID == "" {
		a.OpID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Profiles == nil {
		a.Profiles = []string{}
	}

	profiles, err := json.Marshal(a.Profiles)
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}

	res, err := d.Exec(`
		INSERT INTO activity (op_id, action, subject, profiles, outcome, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.OpID, a.Action, a.Subject, string(profiles), a.Outcome, a.Detail, a.Duration.Milliseconds(), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

// Recent returns the newest activity entries first
func (d *DB) Recent(limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Query(`
		SELECT id, op_id, action, subject, profiles, outcome, detail, duration_ms, created_at
		FROM activity
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a        Activity
			profiles string
			ms       int64
		)
		if err := rows.Scan(&a.ID, &a.OpID, &a.Action, &a.Subject, &profiles, &a.Outcome, &a.Detail, &ms, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		if err := json.Unmarshal([]byte(profiles), &a.Profiles); err != nil {
			return nil, fmt.Errorf("decoding profiles: %w", err)
		}
		a.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

// Trim deletes all but the newest keep entries and returns how many were removed.
func (d *DB) Trim(keep int) (int64, error) {
	res, err := d.Exec(`
		DELETE FROM activity
		WHERE id NOT IN (SELECT id FROM activity ORDER BY created_at DESC, id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("trimming activity: %w", err)
	}
	return res.RowsAffected()
}
