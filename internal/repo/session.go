package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/analyst-9000/server/internal/agent/model"
	errx "github.com/analyst-9000/server/internal/core/error"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// sessionIndexKey is a ZSET of active session IDs scored by last update time.
const sessionIndexKey = "sessions:index"

type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (r *RedisSessionRepository) GetOrCreate(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	if sessionID != "" {
		session, err := r.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	} else {
		sessionID = uuid.NewString()
	}

	now := r.now().UTC()
	session := &model.ChatSession{
		ID:        sessionID,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	if err := r.save(ctx, session); err != nil {
		return nil, err
	}

	logx.Debug().Str("session_id", sessionID).Msg("created new session")
	return session, nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	key := r.sessionKey(sessionID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var session model.ChatSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Update(ctx context.Context, sessionID string, update model.SessionUpdate) error {
	session, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return errx.New(redis.Nil, http.StatusNotFound, errx.RedisNotFoundMessage)
	}

	if update.Title != nil {
		session.Title = *update.Title
	}
	if len(update.Messages) > 0 {
		session.Messages = append(session.Messages, update.Messages...)
	}
	if update.MessageCount != nil {
		session.MessageCount = *update.MessageCount
	} else {
		session.MessageCount = len(session.Messages)
	}
	session.UpdatedAt = r.now().UTC()

	return r.save(ctx, session)
}

func (r *RedisSessionRepository) List(ctx context.Context, limit, offset int) ([]model.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ids, err := r.rdb.ZRevRange(ctx, sessionIndexKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to read session index from redis")
		return nil, errx.WrapRedis(err)
	}
	if len(ids) == 0 {
		return []model.SessionSummary{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}

	rows, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to load sessions from redis")
		return nil, errx.WrapRedis(err)
	}

	summaries := make([]model.SessionSummary, 0, len(rows))
	for i, row := range rows {
		raw, ok := row.(string)
		if !ok {
			// Expired document still referenced by the index.
			logx.Warn().Str("session_id", ids[i]).Msg("session missing for indexed id")
			continue
		}
		var session model.ChatSession
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			logx.Error().Err(err).Str("session_id", ids[i]).Msg("failed to unmarshal session")
			continue
		}
		if !session.IsActive {
			continue
		}
		summaries = append(summaries, model.SessionSummary{
			ID:           session.ID,
			Title:        session.Title,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
			MessageCount: session.MessageCount,
		})
	}
	return summaries, nil
}

func (r *RedisSessionRepository) SoftDelete(ctx context.Context, sessionID string) (bool, error) {
	session, err := r.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil || !session.IsActive {
		return false, nil
	}

	session.IsActive = false
	session.UpdatedAt = r.now().UTC()

	b, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("marshal session %s: %w", sessionID, err)
	}
	key := r.sessionKey(sessionID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return false, errx.WrapRedis(err)
	}
	if err := r.rdb.ZRem(ctx, sessionIndexKey, sessionID).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to remove session from index")
		return false, errx.WrapRedis(err)
	}

	logx.Debug().Str("session_id", sessionID).Msg("session soft deleted")
	return true, nil
}

// save persists the document and refreshes its index entry in one pass.
func (r *RedisSessionRepository) save(ctx context.Context, session *model.ChatSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}

	key := r.sessionKey(session.ID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}

	err = r.rdb.ZAdd(ctx, sessionIndexKey, redis.Z{
		Score:  float64(session.UpdatedAt.UnixMilli()),
		Member: session.ID,
	}).Err()
	if err != nil {
		logx.Error().Err(err).Str("session_id", session.ID).Msg("failed to index session")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
