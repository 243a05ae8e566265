package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"checklist-cli/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func formatErrEventContract(format string, args ...any) error {
	return fmt.Errorf("event contract: "+format, args...)
}

// AppendEvent records a mutation in the append-only event log. Sequence numbers are
// unique; an append that loses a race for one retries with the next.
func (s *SQLStore) AppendEvent(ctx context.Context, taskID, actorID, typ, entityID string, payload any) error {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return formatErrEventContract("missing type")
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return formatErrEventContract("missing entity id")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return formatErrEventContract("missing actor id")
	}

	pb, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	taskID = strings.TrimSpace(taskID)
	for attempt := 1; ; attempt++ {
		err := s.appendEventTx(ctx, id, taskID, actorID, typ, entityID, string(pb))
		if err == nil || !isUniqueViolation(err) || attempt == maxSeqAttempts {
			return err
		}
	}
}

const maxSeqAttempts = 5

// appendEventTx allocates the next seq and inserts the row. A concurrent writer that
// took the same seq makes the insert fail on idx_events_seq.
func (s *SQLStore) appendEventTx(ctx context.Context, id, taskID, actorID, typ, entityID, payload string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM events`).Scan(&seq); err != nil {
		return fmt.Errorf("allocate event seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO events(event_id, seq, task_id, actor_id, type, entity_id, payload_json, issued_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`),
		id, seq, taskID, actorID, typ, entityID, payload, s.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ReadEvents returns the last limit events of a task in chronological order.
// taskID "" reads across all tasks; limit <= 0 returns everything.
func (s *SQLStore) ReadEvents(ctx context.Context, taskID string, limit int) ([]model.Event, error) {
	q := `SELECT event_id, actor_id, type, entity_id, payload_json, issued_at_unixms FROM events`
	var args []any
	if taskID = strings.TrimSpace(taskID); taskID != "" {
		q += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	q += ` ORDER BY seq DESC`
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			ev  model.Event
			raw string
			ms  int64
		)
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.Type, &ev.EntityID, &raw, &ms); err != nil {
			return nil, err
		}
		if strings.TrimSpace(raw) != "" {
			var payload any
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, fmt.Errorf("decode event payload %s: %w", ev.ID, err)
			}
			ev.Payload = payload
		}
		ev.TS = fromUnixMs(ms)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}
