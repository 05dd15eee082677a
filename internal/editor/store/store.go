// Package store keeps edit screen state, staged previews and submit locks in
// Redis, scoped to a browser session.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
	"github.com/odyssey-erp/storefront-admin/internal/shared"
)

// StateStore persists editor.State as JSON.
type StateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStateStore constructs a StateStore whose entries expire after ttl.
func NewStateStore(client redis.UniversalClient, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

// Load returns the stored state or nil when none exists.
func (s *StateStore) Load(ctx context.Context, sessionID, productID string) (*editor.State, error) {
	data, err := s.client.Get(ctx, shared.EditorStateKey(sessionID, productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load editor state: %w", err)
	}
	var st editor.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode editor state: %w", err)
	}
	if st.Touched == nil {
		st.Touched = map[string]bool{}
	}
	if st.Errors == nil {
		st.Errors = editor.FieldErrors{}
	}
	return &st, nil
}

// Save writes the state and refreshes its expiry.
func (s *StateStore) Save(ctx context.Context, sessionID string, st *editor.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode editor state: %w", err)
	}
	if err := s.client.Set(ctx, shared.EditorStateKey(sessionID, st.ProductID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save editor state: %w", err)
	}
	return nil
}

// Delete removes the state.
func (s *StateStore) Delete(ctx context.Context, sessionID, productID string) error {
	return s.client.Del(ctx, shared.EditorStateKey(sessionID, productID)).Err()
}

// PreviewStore keeps staged file bytes in a hash per handle. The TTL is a
// backstop for screens that are never torn down.
type PreviewStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewPreviewStore constructs a PreviewStore.
func NewPreviewStore(client redis.UniversalClient, ttl time.Duration) *PreviewStore {
	return &PreviewStore{client: client, ttl: ttl}
}

// ForSession scopes the store to one session.
func (p *PreviewStore) ForSession(sessionID string) editor.PreviewStore {
	return sessionPreviews{store: p, sessionID: sessionID}
}

type sessionPreviews struct {
	store     *PreviewStore
	sessionID string
}

func (s sessionPreviews) Acquire(ctx context.Context, preview editor.Preview) (string, error) {
	handle := uuid.NewString()
	key := shared.EditorPreviewKey(s.sessionID, handle)
	_, err := s.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"name":         preview.Name,
			"content_type": preview.ContentType,
			"data":         preview.Data,
		})
		pipe.Expire(ctx, key, s.store.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("stage preview: %w", err)
	}
	return handle, nil
}

func (s sessionPreviews) Open(ctx context.Context, handle string) (editor.Preview, error) {
	if _, err := uuid.Parse(handle); err != nil {
		return editor.Preview{}, editor.ErrPreviewNotFound
	}
	vals, err := s.store.client.HGetAll(ctx, shared.EditorPreviewKey(s.sessionID, handle)).Result()
	if err != nil {
		return editor.Preview{}, fmt.Errorf("open preview: %w", err)
	}
	if len(vals) == 0 {
		return editor.Preview{}, editor.ErrPreviewNotFound
	}
	return editor.Preview{
		Name:        vals["name"],
		ContentType: vals["content_type"],
		Data:        []byte(vals["data"]),
	}, nil
}

func (s sessionPreviews) Release(ctx context.Context, handle string) error {
	if err := s.store.client.Del(ctx, shared.EditorPreviewKey(s.sessionID, handle)).Err(); err != nil {
		return fmt.Errorf("release preview: %w", err)
	}
	return nil
}

// unlockScript deletes the lock only when it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmitLocks hands out per draft submission locks.
type SubmitLocks struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSubmitLocks constructs SubmitLocks. ttl bounds how long a crashed
// submission can block the draft.
func NewSubmitLocks(client redis.UniversalClient, ttl time.Duration) *SubmitLocks {
	return &SubmitLocks{client: client, ttl: ttl}
}

// For returns the locker of one draft.
func (l *SubmitLocks) For(sessionID, productID string) editor.Locker {
	return draftLock{locks: l, key: shared.EditorSubmitLockKey(sessionID, productID)}
}

type draftLock struct {
	locks *SubmitLocks
	key   string
}

func (d draftLock) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := d.locks.client.SetNX(ctx, d.key, token, d.locks.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock: %w", err)
	}
	if !ok {
		return nil, editor.ErrSubmitInFlight
	}
	return func() {
		_ = unlockScript.Run(context.WithoutCancel(ctx), d.locks.client, []string{d.key}, token).Err()
	}, nil
}
