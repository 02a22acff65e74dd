package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"practice-service/internal/apperr"
	"practice-service/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "practice:session:"

// claimScript moves the cursor from ARGV[1] to ARGV[1]+1. Returns -1 when
// the session does not exist, 0 when the cursor is elsewhere, 1 on success.
var claimScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'cursor')
if not cur then return -1 end
if tonumber(cur) ~= tonumber(ARGV[1]) then return 0 end
redis.call('HSET', KEYS[1], 'cursor', tonumber(ARGV[1]) + 1)
return 1
`)

var releaseScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'cursor')
if cur and tonumber(cur) == tonumber(ARGV[1]) + 1 then
  redis.call('HSET', KEYS[1], 'cursor', ARGV[1])
  return 1
end
return 0
`)

// SessionRepository keeps practice sessions in redis hashes that expire
// after ttl. The cursor lives in its own field so claims never rewrite the
// session body.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *SessionRepository) Create(ctx context.Context, session *models.PracticeSession) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := sessionKey(session.ID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "data", body, "cursor", session.Cursor)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.PracticeSession, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, apperr.NotFound("session %q not found", id)
	}

	var session models.PracticeSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if cursor, err := strconv.Atoi(fields["cursor"]); err == nil {
		session.Cursor = cursor
	}
	return &session, nil
}

func (r *SessionRepository) ClaimAnswer(ctx context.Context, id string, index int) (bool, error) {
	res, err := claimScript.Run(ctx, r.client, []string{sessionKey(id)}, index).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("claim answer: %w", err)
	}
	switch res {
	case -1:
		return false, apperr.NotFound("session %q not found", id)
	case 1:
		return true, nil
	}
	return false, nil
}

func (r *SessionRepository) ReleaseAnswer(ctx context.Context, id string, index int) error {
	if err := releaseScript.Run(ctx, r.client, []string{sessionKey(id)}, index).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release answer: %w", err)
	}
	return nil
}
