package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventline/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, title, annotation, description, category_id, initiator_id, state,
		event_date, created_on, published_on, paid, participant_limit, request_moderation,
		location_lat, location_lng`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO events (id, title, annotation, description, category_id, initiator_id, state,
			event_date, created_on, paid, participant_limit, request_moderation, location_lat, location_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID, e.State,
		e.EventDate, e.CreatedOn, e.Paid, e.ParticipantLimit, e.RequestModeration,
		e.LocationLat, e.LocationLng,
	)
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, annotation = $3, description = $4, category_id = $5, state = $6,
			event_date = $7, published_on = $8, paid = $9, participant_limit = $10,
			request_moderation = $11, location_lat = $12, location_lng = $13
		WHERE id = $1
	`
	var publishedOn sql.NullTime
	if e.PublishedOn != nil {
		publishedOn = sql.NullTime{Time: *e.PublishedOn, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID, e.State,
		e.EventDate, publishedOn, e.Paid, e.ParticipantLimit, e.RequestModeration,
		e.LocationLat, e.LocationLng,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByInitiator(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE initiator_id = $1`, initiatorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE initiator_id = $1
		ORDER BY event_date DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, initiatorID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListByFilter(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.InitiatorIDs) > 0 {
		conds = append(conds, "initiator_id = ANY("+arg(pq.Array(filter.InitiatorIDs))+")")
	}
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, s := range filter.States {
			states[i] = string(s)
		}
		conds = append(conds, "state = ANY("+arg(pq.Array(states))+")")
	}
	if len(filter.CategoryIDs) > 0 {
		conds = append(conds, "category_id = ANY("+arg(pq.Array(filter.CategoryIDs))+")")
	}
	if filter.RangeStart != nil {
		conds = append(conds, "event_date >= "+arg(*filter.RangeStart))
	}
	if filter.RangeEnd != nil {
		conds = append(conds, "event_date <= "+arg(*filter.RangeEnd))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + eventColumns + " FROM events" + where +
		" ORDER BY event_date DESC LIMIT " + arg(params.Limit()) + " OFFSET " + arg(params.Offset())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var publishedOn sql.NullTime
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID, &e.State,
		&e.EventDate, &e.CreatedOn, &publishedOn, &e.Paid, &e.ParticipantLimit, &e.RequestModeration,
		&e.LocationLat, &e.LocationLng,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if publishedOn.Valid {
		e.PublishedOn = &publishedOn.Time
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}
