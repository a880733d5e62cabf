package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelpress/internal/database"
	"reelpress/internal/job"
	"reelpress/internal/logging"
)

const (
	defaultVisibilityTimeout = 15 * time.Minute
	defaultMaxReceives       = 3
)

// Options tunes lease and retry behaviour.
type Options struct {
	VisibilityTimeout time.Duration
	MaxReceives       int
	// OnDeadLetter is invoked after a message moves to the dead-letter table.
	OnDeadLetter func(context.Context, DeadLetter)
	Logger       *slog.Logger
	Now          func() time.Time
}

// Store is the sqlite-backed work queue.
type Store struct {
	db           *database.DB
	visibility   time.Duration
	maxReceives  int
	onDeadLetter func(context.Context, DeadLetter)
	logger       *slog.Logger
	now          func() time.Time
}

// New constructs a Store on an opened database.
func New(db *database.DB, opts Options) *Store {
	s := &Store{
		db:           db,
		visibility:   opts.VisibilityTimeout,
		maxReceives:  opts.MaxReceives,
		onDeadLetter: opts.OnDeadLetter,
		logger:       logging.NewComponentLogger(opts.Logger, "queue"),
		now:          opts.Now,
	}
	if s.visibility <= 0 {
		s.visibility = defaultVisibilityTimeout
	}
	if s.maxReceives <= 0 {
		s.maxReceives = defaultMaxReceives
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxReceives returns the receive budget per message.
func (s *Store) MaxReceives() int { return s.maxReceives }

// VisibilityTimeout returns the lease duration.
func (s *Store) VisibilityTimeout() time.Duration { return s.visibility }

// Enqueue stores a validated work item and makes it immediately visible.
func (s *Store) Enqueue(ctx context.Context, item job.WorkItem) (int64, error) {
	body, err := item.Encode()
	if err != nil {
		return 0, err
	}
	now := s.now()
	ts := database.Timestamp(now)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO queue_messages (body, receive_count, visible_at, created_at, updated_at)
         VALUES (?, 0, ?, ?, ?)`,
		string(body), now.UnixMilli(), ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("enqueue id: %w", err)
	}
	s.logger.Debug("message enqueued",
		logging.Int64("message_id", id),
		logging.String(logging.FieldFileID, item.FileID),
		logging.String(logging.FieldRequestID, item.RequestID),
	)
	return id, nil
}

type pendingRow struct {
	id           int64
	body         string
	receiveCount int
	lastError    string
	createdAt    string
}

// Dequeue leases up to max visible messages. Messages whose lease expired
// after their final receive are dead-lettered instead of being delivered.
func (s *Store) Dequeue(ctx context.Context, max int) ([]Delivery, error) {
	if max <= 0 {
		return nil, nil
	}
	var (
		deliveries []Delivery
		dead       []DeadLetter
	)
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		deliveries = deliveries[:0]
		dead = dead[:0]
		now := s.now()
		nowMs := now.UnixMilli()

		exhausted, err := selectRows(ctx, tx,
			`SELECT id, body, receive_count, COALESCE(last_error, ''), created_at
             FROM queue_messages WHERE visible_at <= ? AND receive_count >= ? ORDER BY id`,
			nowMs, s.maxReceives)
		if err != nil {
			return err
		}
		for _, row := range exhausted {
			reason := row.lastError
			if reason == "" {
				reason = "visibility timeout expired"
			}
			dl, err := moveToDeadLetters(ctx, tx, row, reason, now)
			if err != nil {
				return err
			}
			dead = append(dead, dl)
		}

		ready, err := selectRows(ctx, tx,
			`SELECT id, body, receive_count, COALESCE(last_error, ''), created_at
             FROM queue_messages WHERE visible_at <= ? AND receive_count < ? ORDER BY id LIMIT ?`,
			nowMs, s.maxReceives, max)
		if err != nil {
			return err
		}
		for _, row := range ready {
			item, decodeErr := job.DecodeWorkItem([]byte(row.body))
			if decodeErr != nil {
				dl, err := moveToDeadLetters(ctx, tx, row, decodeErr.Error(), now)
				if err != nil {
					return err
				}
				dead = append(dead, dl)
				continue
			}
			receipt := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`UPDATE queue_messages
                 SET receipt = ?, receive_count = receive_count + 1, visible_at = ?, updated_at = ?
                 WHERE id = ?`,
				receipt, now.Add(s.visibility).UnixMilli(), database.Timestamp(now), row.id,
			); err != nil {
				return fmt.Errorf("lease message %d: %w", row.id, err)
			}
			deliveries = append(deliveries, Delivery{
				ID:           row.id,
				Receipt:      receipt,
				Item:         item,
				ReceiveCount: row.receiveCount + 1,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	s.raiseDeadLetterAlarms(ctx, dead)
	return deliveries, nil
}

// Ack deletes the leased message identified by receipt.
func (s *Store) Ack(ctx context.Context, receipt string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_messages WHERE receipt = ?`, receipt)
	if err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidReceipt
	}
	return nil
}

// Nack releases the lease so the message is redelivered, or dead-letters it
// when the receive budget is spent.
func (s *Store) Nack(ctx context.Context, receipt, reason string) error {
	var dead []DeadLetter
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		dead = dead[:0]
		now := s.now()
		rows, err := selectRows(ctx, tx,
			`SELECT id, body, receive_count, COALESCE(last_error, ''), created_at
             FROM queue_messages WHERE receipt = ?`, receipt)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrInvalidReceipt
		}
		row := rows[0]
		if row.receiveCount >= s.maxReceives {
			dl, err := moveToDeadLetters(ctx, tx, row, reason, now)
			if err != nil {
				return err
			}
			dead = append(dead, dl)
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE queue_messages SET receipt = NULL, visible_at = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			now.UnixMilli(), database.NullableString(reason), database.Timestamp(now), row.id)
		if err != nil {
			return fmt.Errorf("release message %d: %w", row.id, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidReceipt) {
			return ErrInvalidReceipt
		}
		return fmt.Errorf("nack: %w", err)
	}
	s.raiseDeadLetterAlarms(ctx, dead)
	return nil
}

func (s *Store) raiseDeadLetterAlarms(ctx context.Context, dead []DeadLetter) {
	for _, dl := range dead {
		attrs := []slog.Attr{
			logging.Alert("dead_letter"),
			logging.String(logging.FieldEventType, "queue_dead_letter"),
			logging.Int64("message_id", dl.ID),
			logging.Int("receive_count", dl.ReceiveCount),
			logging.String("reason", dl.LastError),
			logging.String(logging.FieldErrorHint, "inspect with 'reelpress queue dead-letters' and redrive once fixed"),
		}
		if item, err := dl.Item(); err == nil {
			attrs = append(attrs,
				logging.String(logging.FieldFileID, item.FileID),
				logging.String(logging.FieldRequestID, item.RequestID),
			)
		}
		s.logger.Error("message moved to dead-letter table", logging.Args(attrs...)...)
		if s.onDeadLetter != nil {
			s.onDeadLetter(ctx, dl)
		}
	}
}

func selectRows(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]pendingRow, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()
	var out []pendingRow
	for rows.Next() {
		var row pendingRow
		if err := rows.Scan(&row.id, &row.body, &row.receiveCount, &row.lastError, &row.createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func moveToDeadLetters(ctx context.Context, tx *sql.Tx, row pendingRow, reason string, now time.Time) (DeadLetter, error) {
	ts := database.Timestamp(now)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO dead_letters (id, body, receive_count, last_error, created_at, dead_lettered_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		row.id, row.body, row.receiveCount, database.NullableString(reason), row.createdAt, ts,
	); err != nil {
		return DeadLetter{}, fmt.Errorf("insert dead letter %d: %w", row.id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_messages WHERE id = ?`, row.id); err != nil {
		return DeadLetter{}, fmt.Errorf("remove dead-lettered message %d: %w", row.id, err)
	}
	return DeadLetter{
		ID:             row.id,
		Body:           row.body,
		ReceiveCount:   row.receiveCount,
		LastError:      reason,
		CreatedAt:      database.ParseTimestamp(row.createdAt),
		DeadLetteredAt: now.UTC(),
	}, nil
}
