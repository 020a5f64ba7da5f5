package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/wire"
)

// ErrDuplicateChangeSet is returned when a change-set id is already stored.
var ErrDuplicateChangeSet = errors.New("change-set already recorded")

const uniqueViolation = "23505"

// ChangeSetRepository is the append-only store of ticket change-set logs.
// Stored rows are never updated or deleted.
type ChangeSetRepository interface {
	Append(ctx context.Context, ticketID string, changeSets ...domain.ChangeSet) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ChangeSet, error)
	ListTicketIDs(ctx context.Context, limit, offset int) ([]string, error)
}

type changeSetRepository struct {
	pool *pgxpool.Pool
}

// NewChangeSetRepository returns a Postgres-backed log store.
func NewChangeSetRepository(pool *pgxpool.Pool) ChangeSetRepository {
	return &changeSetRepository{pool: pool}
}

func (r *changeSetRepository) Append(ctx context.Context, ticketID string, changeSets ...domain.ChangeSet) error {
	const query = `
        INSERT INTO change_sets (id, ticket_id, recorded_at, author_id, payload)
        VALUES ($1, $2, $3, $4, $5)`

	batch := &pgx.Batch{}
	for _, cs := range changeSets {
		payload, err := encodePayload(cs)
		if err != nil {
			return err
		}
		batch.Queue(query, cs.ID(), ticketID, cs.Timestamp(), cs.Author().ID(), payload)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := tx.SendBatch(ctx, batch)
	for range changeSets {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrDuplicateChangeSet
			}
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *changeSetRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ChangeSet, error) {
	const query = `
        SELECT payload FROM change_sets
        WHERE ticket_id=$1
        ORDER BY recorded_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChangeSet
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		cs, err := decodePayload(payload)
		if err != nil {
			return nil, fmt.Errorf("ticket %s: %w", ticketID, err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *changeSetRepository) ListTicketIDs(ctx context.Context, limit, offset int) ([]string, error) {
	const query = `
        SELECT ticket_id FROM change_sets
        GROUP BY ticket_id
        ORDER BY MIN(recorded_at) DESC, ticket_id
        LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func encodePayload(cs domain.ChangeSet) ([]byte, error) {
	payload, err := json.Marshal(wire.FromChangeSet("", cs))
	if err != nil {
		return nil, fmt.Errorf("encode change-set %s: %w", cs.ID(), err)
	}
	return payload, nil
}

func decodePayload(payload []byte) (domain.ChangeSet, error) {
	var record wire.ChangeSet
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.ChangeSet{}, &domain.ValueError{Field: "change-set payload", Reason: err.Error()}
	}
	return record.ToDomain()
}
