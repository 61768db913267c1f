package store

import (
	"database/sql"
	"errors"
	"time"
)

// Snapshot is one ledger entry for an image written to disk.
type Snapshot struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Trigger     string    `json:"trigger"`
	GestureText string    `json:"gesture_text"`
	Expression  string    `json:"expression"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnapshotRepository provides access to the snapshot ledger.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot. A zero CreatedAt is set to now.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, path, trigger_hand, gesture_text, expression, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Path, snap.Trigger, snap.GestureText, snap.Expression, snap.CreatedAt,
	)
	return err
}

// GetByID retrieves a snapshot by its ID.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}

	err := r.db.QueryRow(
		`SELECT id, path, trigger_hand, gesture_text, expression, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Path, &snap.Trigger, &snap.GestureText, &snap.Expression, &snap.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return snap, nil
}

// List returns up to limit snapshots, newest first. A non-positive limit
// returns all of them.
func (r *SnapshotRepository) List(limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, path, trigger_hand, gesture_text, expression, created_at
		 FROM snapshots ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Path, &snap.Trigger, &snap.GestureText, &snap.Expression, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snaps, nil
}

// Count returns the number of snapshots in the ledger.
func (r *SnapshotRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Delete removes a snapshot row by its ID. The image file is left alone.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
