package store

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jjenkins/billtracker/internal/model"
)

// BillStore handles database operations for merged bills
type BillStore struct {
	db *sql.DB
}

// NewBillStore creates a new BillStore
func NewBillStore(db *sql.DB) *BillStore {
	return &BillStore{db: db}
}

// statusDigest is the part of a bill whose change produces a snapshot
type statusDigest struct {
	State        model.BillState     `json:"state"`
	Status       *model.MergedStatus `json:"status"`
	NewestAction *model.Action       `json:"newest_action"`
}

// Checksum returns the serialized status of b and its md5 checksum
func Checksum(b *model.EditorialBill) (json.RawMessage, string, error) {
	status, err := json.Marshal(b.Status)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode status for bill %s: %w", b.BillKey, err)
	}

	digest, err := json.Marshal(statusDigest{State: b.State(), Status: b.Status, NewestAction: b.NewestAction})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode digest for bill %s: %w", b.BillKey, err)
	}
	sum := md5.Sum(digest)
	return status, hex.EncodeToString(sum[:]), nil
}

// SaveBillWithSnapshot saves the current bill state and only creates a
// snapshot if the merged status changed since that day's snapshot
func (s *BillStore) SaveBillWithSnapshot(ctx context.Context, b *model.EditorialBill, runID string, snapshotDate time.Time) (changed bool, err error) {
	status, checksum, err := Checksum(b)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingChecksum sql.NullString
	checksumQuery := `
		SELECT checksum FROM bill_snapshots
		WHERE bill_key = $1 AND snapshot_date = $2
	`
	err = tx.QueryRowContext(ctx, checksumQuery, b.BillKey, snapshotDate).Scan(&existingChecksum)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read snapshot for bill %s: %w", b.BillKey, err)
	}

	changed = !existingChecksum.Valid || existingChecksum.String != checksum

	upsertQuery := `
		INSERT INTO bills (bill_key, title, primary_bill_id, companion_bill_id,
		                   conference_bill_id, state, status, checksum, last_updated, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (bill_key) DO UPDATE SET
			title = EXCLUDED.title,
			primary_bill_id = EXCLUDED.primary_bill_id,
			companion_bill_id = EXCLUDED.companion_bill_id,
			conference_bill_id = EXCLUDED.conference_bill_id,
			state = EXCLUDED.state,
			status = EXCLUDED.status,
			checksum = EXCLUDED.checksum,
			last_updated = EXCLUDED.last_updated,
			fetched_at = EXCLUDED.fetched_at
	`
	_, err = tx.ExecContext(ctx, upsertQuery,
		b.BillKey,
		b.Title,
		b.PrimaryBillID,
		b.CompanionBillID,
		b.ConferenceBillID,
		string(b.State()),
		[]byte(status),
		checksum,
		b.LastUpdated(),
		time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert bill %s: %w", b.BillKey, err)
	}

	if changed {
		snapshotQuery := `
			INSERT INTO bill_snapshots (bill_key, run_id, state, status, checksum,
			                            last_updated, snapshot_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (bill_key, snapshot_date) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				state = EXCLUDED.state,
				status = EXCLUDED.status,
				checksum = EXCLUDED.checksum,
				last_updated = EXCLUDED.last_updated
		`
		_, err = tx.ExecContext(ctx, snapshotQuery,
			b.BillKey,
			runID,
			string(b.State()),
			[]byte(status),
			checksum,
			b.LastUpdated(),
			snapshotDate,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert snapshot for bill %s: %w", b.BillKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return changed, nil
}

// GetByKey retrieves the stored state of a bill
func (s *BillStore) GetByKey(ctx context.Context, billKey string) (*model.StoredBill, error) {
	query := `
		SELECT bill_key, title, primary_bill_id, companion_bill_id, conference_bill_id,
		       state, status, checksum, last_updated, fetched_at
		FROM bills
		WHERE bill_key = $1
	`

	var (
		b      model.StoredBill
		state  string
		status []byte
	)
	err := s.db.QueryRowContext(ctx, query, billKey).Scan(
		&b.BillKey,
		&b.Title,
		&b.PrimaryBillID,
		&b.CompanionBillID,
		&b.ConferenceBillID,
		&state,
		&status,
		&b.Checksum,
		&b.LastUpdated,
		&b.FetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill %s: %w", billKey, err)
	}

	b.State = model.BillState(state)
	b.Status = status
	return &b, nil
}

// GetSnapshots retrieves all snapshots for a bill ordered by date descending
func (s *BillStore) GetSnapshots(ctx context.Context, billKey string) ([]model.BillSnapshot, error) {
	query := `
		SELECT id, bill_key, run_id, state, status, checksum, last_updated,
		       snapshot_date, created_at
		FROM bill_snapshots
		WHERE bill_key = $1
		ORDER BY snapshot_date DESC
	`

	rows, err := s.db.QueryContext(ctx, query, billKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots for bill %s: %w", billKey, err)
	}
	defer rows.Close()

	snapshots := []model.BillSnapshot{}
	for rows.Next() {
		var (
			snap   model.BillSnapshot
			state  string
			status []byte
		)
		err := rows.Scan(
			&snap.ID,
			&snap.BillKey,
			&snap.RunID,
			&state,
			&status,
			&snap.Checksum,
			&snap.LastUpdated,
			&snap.SnapshotDate,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.State = model.BillState(state)
		snap.Status = status
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// CountByState returns the number of stored bills in each merge state
func (s *BillStore) CountByState(ctx context.Context) (map[model.BillState]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM bills GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count bills: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.BillState]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan bill count: %w", err)
		}
		counts[model.BillState(state)] = n
	}

	return counts, rows.Err()
}

// GetSnapshotDates returns all unique snapshot dates
func (s *BillStore) GetSnapshotDates(ctx context.Context) ([]time.Time, error) {
	query := `SELECT DISTINCT snapshot_date FROM bill_snapshots ORDER BY snapshot_date DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot dates: %w", err)
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, date)
	}

	return dates, rows.Err()
}
