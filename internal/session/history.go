package session

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// ConversationHistory is the persisted transcript of one session.
type ConversationHistory struct {
	Messages []*schema.Message `json:"messages"`
}

// HistoryRepository stores conversation transcripts. Implementations
// must return an empty history, not an error, for unknown sessions.
type HistoryRepository interface {
	Load(ctx context.Context, sessionID string) (*ConversationHistory, error)
	Save(ctx context.Context, sessionID string, history *ConversationHistory) error
	AddMessage(ctx context.Context, sessionID string, message *schema.Message) error
	Clear(ctx context.Context, sessionID string) error
}

// ====================== Redis ======================

// RedisHistoryRepository persists transcripts in Redis with a sliding
// TTL: reading a conversation keeps it alive.
type RedisHistoryRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistoryRepository(ctx context.Context, redisURL string, ttl time.Duration) (*RedisHistoryRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisHistoryRepository{client: client, ttl: ttl}, nil
}

func historyKey(sessionID string) string {
	return "conversation:" + sessionID
}

func (r *RedisHistoryRepository) Load(ctx context.Context, sessionID string) (*ConversationHistory, error) {
	data, err := r.client.Get(ctx, historyKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return &ConversationHistory{Messages: []*schema.Message{}}, nil
		}
		return nil, err
	}

	var history ConversationHistory
	if err := sonic.UnmarshalString(data, &history); err != nil {
		return nil, err
	}

	r.client.Expire(ctx, historyKey(sessionID), r.ttl)
	return &history, nil
}

func (r *RedisHistoryRepository) Save(ctx context.Context, sessionID string, history *ConversationHistory) error {
	data, err := sonic.Marshal(history)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, historyKey(sessionID), data, r.ttl).Err()
}

func (r *RedisHistoryRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	history, err := r.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	history.Messages = append(history.Messages, message)
	return r.Save(ctx, sessionID, history)
}

func (r *RedisHistoryRepository) Clear(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, historyKey(sessionID)).Err()
}

func (r *RedisHistoryRepository) Close() error {
	return r.client.Close()
}

// ====================== In-memory ======================

// MemoryHistoryRepository is the fallback when no Redis is configured,
// and the backend tests run against.
type MemoryHistoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]*schema.Message
}

func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{sessions: make(map[string][]*schema.Message)}
}

func (m *MemoryHistoryRepository) Load(_ context.Context, sessionID string) (*ConversationHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.sessions[sessionID]
	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)
	return &ConversationHistory{Messages: out}, nil
}

func (m *MemoryHistoryRepository) Save(_ context.Context, sessionID string, history *ConversationHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := make([]*schema.Message, len(history.Messages))
	copy(msgs, history.Messages)
	m.sessions[sessionID] = msgs
	return nil
}

func (m *MemoryHistoryRepository) AddMessage(_ context.Context, sessionID string, message *schema.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], message)
	return nil
}

func (m *MemoryHistoryRepository) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
