package scenarios

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/redis"
	"github.com/google/uuid"
)

// SessionStore keeps scenario results between Compare calls. Load returns
// (nil, nil) when the session does not exist; Delete of a missing session is
// not an error.
type SessionStore interface {
	Load(ctx context.Context, ownerID uuid.UUID, sessionID string) (*Session, error)
	Save(ctx context.Context, ownerID uuid.UUID, sessionID string, session *Session) error
	Delete(ctx context.Context, ownerID uuid.UUID, sessionID string) error
}

// MemorySessionStore is a process-local store, used when Redis is absent.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (m *MemorySessionStore) Load(_ context.Context, ownerID uuid.UUID, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[memoryKey(ownerID, sessionID)]
	if !ok {
		return nil, nil
	}
	out := Session{Fingerprint: s.Fingerprint, Results: append([]ScenarioResult(nil), s.Results...)}
	return &out, nil
}

func (m *MemorySessionStore) Save(_ context.Context, ownerID uuid.UUID, sessionID string, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[memoryKey(ownerID, sessionID)] = Session{
		Fingerprint: session.Fingerprint,
		Results:     append([]ScenarioResult(nil), session.Results...),
	}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, ownerID uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, memoryKey(ownerID, sessionID))
	return nil
}

func memoryKey(ownerID uuid.UUID, sessionID string) string {
	return ownerID.String() + ":" + sessionID
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ScenarioSessionKey(ownerID, sessionID string) string
}

// RedisSessionStore stores sessions as JSON with a sliding TTL.
type RedisSessionStore struct {
	kv  redisKV
	ttl time.Duration
}

func NewRedisSessionStore(kv redisKV, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{kv: kv, ttl: ttl}
}

func (r *RedisSessionStore) Load(ctx context.Context, ownerID uuid.UUID, sessionID string) (*Session, error) {
	raw, err := r.kv.Get(ctx, r.kv.ScenarioSessionKey(ownerID.String(), sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scenario session")
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode scenario session")
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, ownerID uuid.UUID, sessionID string, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode scenario session")
	}
	if err := r.kv.Set(ctx, r.kv.ScenarioSessionKey(ownerID.String(), sessionID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save scenario session")
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, ownerID uuid.UUID, sessionID string) error {
	if err := r.kv.Del(ctx, r.kv.ScenarioSessionKey(ownerID.String(), sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete scenario session")
	}
	return nil
}
