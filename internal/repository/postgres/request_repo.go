package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventline/internal/domain"
)

type requestRepository struct {
	DB *sql.DB
}

func NewRequestRepository(db *sql.DB) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

const requestColumns = `id, event_id, requester_id, status, created`

// lockEvent takes the per-event exclusion scope. Every capacity-affecting
// mutation for an event acquires this lock before counting confirmed requests,
// so concurrent admissions for the same event serialize while different events
// proceed in parallel. The lock is released when the transaction ends.
func lockEvent(ctx context.Context, tx *sql.Tx, eventID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID)
	return err
}

func countConfirmedTx(ctx context.Context, tx *sql.Tx, eventID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participation_requests WHERE event_id = $1 AND status = $2`,
		eventID, domain.RequestConfirmed).Scan(&n)
	return n, err
}

func (r *requestRepository) CreateWithinLimit(ctx context.Context, req *domain.ParticipationRequest, limit int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockEvent(ctx, tx, req.EventID); err != nil {
		return err
	}
	if limit > 0 {
		confirmed, err := countConfirmedTx(ctx, tx, req.EventID)
		if err != nil {
			return err
		}
		if confirmed >= limit {
			return domain.ErrLimitReached
		}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO participation_requests (id, event_id, requester_id, status, created)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, req.EventID, req.RequesterID, req.Status, req.Created)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateRequest
		}
		return err
	}
	return tx.Commit()
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM participation_requests WHERE id = $1`
	return scanRequest(r.DB.QueryRowContext(ctx, query, id))
}

func (r *requestRepository) ExistsActive(ctx context.Context, eventID, requesterID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM participation_requests
			WHERE event_id = $1 AND requester_id = $2 AND status <> $3
		)
	`, eventID, requesterID, domain.RequestCanceled).Scan(&exists)
	return exists, err
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE requester_id = $1
		ORDER BY created DESC`
	rows, err := r.DB.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1
		ORDER BY created`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.ParticipationRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE id = ANY($1)
		ORDER BY created`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.ParticipationRequest, error) {
	query := `
		UPDATE participation_requests
		SET status = $2
		WHERE id = $1
		RETURNING ` + requestColumns
	return scanRequest(r.DB.QueryRowContext(ctx, query, id, status))
}

func (r *requestRepository) RejectBatch(ctx context.Context, ids []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updatePendingBatch(ctx, tx, ids, domain.RequestRejected); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *requestRepository) ConfirmBatchWithinLimit(ctx context.Context, eventID string, ids []string, limit int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockEvent(ctx, tx, eventID); err != nil {
		return err
	}
	if limit > 0 {
		confirmed, err := countConfirmedTx(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if limit-confirmed < len(ids) {
			return domain.ErrLimitReached
		}
	}
	if err := updatePendingBatch(ctx, tx, ids, domain.RequestConfirmed); err != nil {
		return err
	}
	return tx.Commit()
}

// updatePendingBatch transitions all the named requests out of PENDING in one
// statement. A row count below len(ids) means some request was already decided
// or canceled; the caller's deferred rollback then discards the whole batch.
func updatePendingBatch(ctx context.Context, tx *sql.Tx, ids []string, status domain.RequestStatus) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE participation_requests
		SET status = $1
		WHERE id = ANY($2) AND status = $3
	`, status, pq.Array(ids), domain.RequestPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return domain.ErrNotPending
	}
	return nil
}

func (r *requestRepository) CountConfirmed(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	query := `
		SELECT event_id, COUNT(*)
		FROM participation_requests
		WHERE event_id = ANY($1) AND status = $2
		GROUP BY event_id
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(eventIDs), domain.RequestConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64, len(eventIDs))
	for rows.Next() {
		var eventID string
		var n int64
		if err := rows.Scan(&eventID, &n); err != nil {
			return nil, err
		}
		counts[eventID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func scanRequest(row rowScanner) (*domain.ParticipationRequest, error) {
	req := &domain.ParticipationRequest{}
	err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func collectRequests(rows *sql.Rows) ([]*domain.ParticipationRequest, error) {
	var requests []*domain.ParticipationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.ParticipationRequest{}
	}
	return requests, nil
}
