package voicestore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"talkline/internal/domain"
)

// Postgres persists utterances in a voice_messages table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool and ensures the voice_messages table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("voicestore: postgres connect failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("voicestore: postgres ping failed: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS voice_messages (
			id               TEXT PRIMARY KEY,
			contact_id       TEXT NOT NULL,
			call_at          TIMESTAMPTZ NOT NULL,
			text             TEXT NOT NULL,
			audio            BYTEA NOT NULL,
			duration_seconds DOUBLE PRECISION NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS voice_messages_call_idx
			ON voice_messages (contact_id, call_at);
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("voicestore: schema setup failed: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Save(ctx context.Context, utterance domain.PersistedUtterance) (string, error) {
	id := utterance.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO voice_messages (id, contact_id, call_at, text, audio, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, utterance.ContactID, utterance.CallAt, utterance.Text, utterance.Audio, utterance.DurationSeconds,
	)
	if err != nil {
		return "", fmt.Errorf("voicestore: insert failed: %w", err)
	}
	return id, nil
}

func (p *Postgres) ListByCall(ctx context.Context, contactID string, callAt time.Time) ([]domain.PersistedUtterance, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, contact_id, call_at, text, audio, duration_seconds
		FROM voice_messages
		WHERE contact_id = $1 AND call_at = $2
		ORDER BY created_at`,
		contactID, callAt,
	)
	if err != nil {
		return nil, fmt.Errorf("voicestore: query failed: %w", err)
	}
	defer rows.Close()

	var out []domain.PersistedUtterance
	for rows.Next() {
		var u domain.PersistedUtterance
		if err := rows.Scan(&u.ID, &u.ContactID, &u.CallAt, &u.Text, &u.Audio, &u.DurationSeconds); err != nil {
			return nil, fmt.Errorf("voicestore: scan failed: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteByContact(ctx context.Context, contactID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM voice_messages WHERE contact_id = $1`, contactID)
	if err != nil {
		return fmt.Errorf("voicestore: delete failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
