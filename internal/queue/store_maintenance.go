package queue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"reelpress/internal/database"
)

// Stats reports ready, in-flight, and dead-lettered message counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	nowMs := s.now().UnixMilli()
	var stats Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT
            COALESCE(SUM(CASE WHEN visible_at <= ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN visible_at > ? THEN 1 ELSE 0 END), 0)
         FROM queue_messages`, nowMs, nowMs)
	if err := row.Scan(&stats.Ready, &stats.InFlight); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM dead_letters`).Scan(&stats.DeadLetters); err != nil {
		return Stats{}, fmt.Errorf("dead letter stats: %w", err)
	}
	return stats, nil
}

// ListDeadLetters returns dead-lettered messages, oldest first.
func (s *Store) ListDeadLetters(ctx context.Context) ([]DeadLetter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body, receive_count, COALESCE(last_error, ''), created_at, dead_lettered_at
         FROM dead_letters ORDER BY dead_lettered_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()
	var out []DeadLetter
	for rows.Next() {
		var (
			dl                 DeadLetter
			created, deadAtStr string
		)
		if err := rows.Scan(&dl.ID, &dl.Body, &dl.ReceiveCount, &dl.LastError, &created, &deadAtStr); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}
		dl.CreatedAt = database.ParseTimestamp(created)
		dl.DeadLetteredAt = database.ParseTimestamp(deadAtStr)
		out = append(out, dl)
	}
	return out, rows.Err()
}

// Redrive moves dead letters back onto the queue with a fresh receive budget.
// With no ids every dead letter is redriven. It returns the number moved.
func (s *Store) Redrive(ctx context.Context, ids ...int64) (int, error) {
	moved := 0
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		moved = 0
		now := s.now()
		ts := database.Timestamp(now)
		where, args := idFilter(ids)
		insert := `INSERT INTO queue_messages (id, body, receive_count, visible_at, last_error, created_at, updated_at)
                   SELECT id, body, 0, ?, last_error, created_at, ? FROM dead_letters` + where
		res, err := tx.ExecContext(ctx, insert, append([]any{now.UnixMilli(), ts}, args...)...)
		if err != nil {
			return fmt.Errorf("requeue dead letters: %w", err)
		}
		n, _ := res.RowsAffected()
		moved = int(n)
		if _, err := tx.ExecContext(ctx, `DELETE FROM dead_letters`+where, args...); err != nil {
			return fmt.Errorf("remove redriven dead letters: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redrive: %w", err)
	}
	if moved > 0 {
		s.logger.Info("dead letters redriven", "count", moved)
	}
	return moved, nil
}

// PurgeDeadLetters deletes every dead letter and returns how many were removed.
func (s *Store) PurgeDeadLetters(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dead_letters`)
	if err != nil {
		return 0, fmt.Errorf("purge dead letters: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func idFilter(ids []int64) (string, []any) {
	if len(ids) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return " WHERE id IN (" + strings.Join(placeholders, ",") + ")", args
}
