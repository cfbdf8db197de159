package voicestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"talkline/internal/domain"
)

// Redis persists utterances as hashes with a TTL, indexed per contact.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis connects a client and validates connectivity via PING.
func OpenRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("voicestore: redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("voicestore: redis ping failed: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func entryKey(contactID string, callAt time.Time, id string) string {
	return fmt.Sprintf("voice:%s:%d:%s", contactID, callAt.UnixNano(), id)
}

func indexKey(contactID string) string {
	return "voice:index:" + contactID
}

func (r *Redis) Save(ctx context.Context, utterance domain.PersistedUtterance) (string, error) {
	id := utterance.ID
	if id == "" {
		id = uuid.NewString()
	}
	key := entryKey(utterance.ContactID, utterance.CallAt, id)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"text":     utterance.Text,
		"audio":    utterance.Audio,
		"duration": utterance.DurationSeconds,
		"callAt":   utterance.CallAt.UnixNano(),
	})
	pipe.SAdd(ctx, indexKey(utterance.ContactID), key)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, indexKey(utterance.ContactID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("voicestore: redis save failed: %w", err)
	}
	return id, nil
}

func (r *Redis) ListByCall(ctx context.Context, contactID string, callAt time.Time) ([]domain.PersistedUtterance, error) {
	keys, err := r.client.SMembers(ctx, indexKey(contactID)).Result()
	if err != nil {
		return nil, fmt.Errorf("voicestore: redis index read failed: %w", err)
	}

	prefix := fmt.Sprintf("voice:%s:%d:", contactID, callAt.UnixNano())
	var out []domain.PersistedUtterance
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("voicestore: redis entry read failed: %w", err)
		}
		if len(fields) == 0 {
			continue
		}
		duration, _ := strconv.ParseFloat(fields["duration"], 64)
		out = append(out, domain.PersistedUtterance{
			ID:              strings.TrimPrefix(key, prefix),
			ContactID:       contactID,
			CallAt:          callAt,
			Text:            fields["text"],
			Audio:           []byte(fields["audio"]),
			DurationSeconds: duration,
		})
	}
	return out, nil
}

func (r *Redis) DeleteByContact(ctx context.Context, contactID string) error {
	keys, err := r.client.SMembers(ctx, indexKey(contactID)).Result()
	if err != nil {
		return fmt.Errorf("voicestore: redis index read failed: %w", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("voicestore: redis delete failed: %w", err)
		}
	}
	return r.client.Del(ctx, indexKey(contactID)).Err()
}

// Close releases the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
