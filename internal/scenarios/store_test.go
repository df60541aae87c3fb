package scenarios

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	delErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeKV) ScenarioSessionKey(ownerID, sessionID string) string {
	return "pf:scenario_session:" + ownerID + ":" + sessionID
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	kv := newFakeKV()
	store := NewRedisSessionStore(kv, 30*time.Minute)
	owner := uuid.New()
	ctx := context.Background()

	missing, err := store.Load(ctx, owner, "s1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	session := &Session{
		Fingerprint: "abc",
		Results: []ScenarioResult{{
			ScenarioID:     enums.ScenarioRealistic,
			ForecastPoints: []forecast.ForecastPoint{{Date: types.NewDate(2026, 1, 2), PredictedValue: 4.5}},
			Confidence:     0.7,
			Summary:        "steady",
		}},
	}
	require.NoError(t, store.Save(ctx, owner, "s1", session))
	assert.Equal(t, 30*time.Minute, kv.ttls["pf:scenario_session:"+owner.String()+":s1"])

	loaded, err := store.Load(ctx, owner, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "abc", loaded.Fingerprint)
	require.Len(t, loaded.Results, 1)
	assert.True(t, loaded.Results[0].ForecastPoints[0].Date.Equal(types.NewDate(2026, 1, 2)))

	other, err := store.Load(ctx, uuid.New(), "s1")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRedisSessionStoreErrors(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	store := NewRedisSessionStore(kv, time.Minute)
	_, err := store.Load(context.Background(), uuid.New(), "s1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	kv = newFakeKV()
	owner := uuid.New()
	kv.data[kv.ScenarioSessionKey(owner.String(), "s1")] = "{not json"
	store = NewRedisSessionStore(kv, time.Minute)
	_, err = store.Load(context.Background(), owner, "s1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestMemorySessionStoreCopiesResults(t *testing.T) {
	store := NewMemorySessionStore()
	owner := uuid.New()
	session := &Session{Fingerprint: "f", Results: []ScenarioResult{{ScenarioID: enums.ScenarioOptimistic}}}
	require.NoError(t, store.Save(context.Background(), owner, "s", session))

	session.Results[0].ScenarioID = enums.ScenarioPessimistic
	loaded, err := store.Load(context.Background(), owner, "s")
	require.NoError(t, err)
	assert.Equal(t, enums.ScenarioOptimistic, loaded.Results[0].ScenarioID)
}

func TestRedisSessionStoreDelete(t *testing.T) {
	kv := newFakeKV()
	store := NewRedisSessionStore(kv, time.Minute)
	owner := uuid.New()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, owner, "s1", &Session{Fingerprint: "abc"}))
	require.NoError(t, store.Delete(ctx, owner, "s1"))
	loaded, err := store.Load(ctx, owner, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Delete(ctx, owner, "never-saved"))

	kv.delErr = errors.New("connection refused")
	err = store.Delete(ctx, owner, "s1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore()
	owner := uuid.New()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, owner, "s", &Session{Fingerprint: "f"}))
	require.NoError(t, store.Delete(ctx, owner, "s"))
	loaded, err := store.Load(ctx, owner, "s")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
