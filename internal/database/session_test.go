package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis stores values in a map and answers with pre-built commands.
type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSessionStorageBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) SessionStorage{
		"memory": func(t *testing.T) SessionStorage { return NewMemorySession() },
		"file": func(t *testing.T) SessionStorage {
			return NewFileSession(storage.NewFileStorage(t.TempDir()), "tab-1")
		},
		"redis": func(t *testing.T) SessionStorage { return NewRedisSession(newFakeRedis(), "tab-1", time.Hour) },
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			_, err := s.Get(ctx, ResultsKey)
			assert.ErrorIs(t, err, entity.ErrSessionKeyAbsent)

			payload := `{"class":"tumor","confidence":0.87}`
			require.NoError(t, s.Set(ctx, ResultsKey, payload))
			got, err := s.Get(ctx, ResultsKey)
			require.NoError(t, err)
			assert.Equal(t, payload, got)

			taken, err := TakeResults(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, payload, taken)

			_, err = s.Get(ctx, ResultsKey)
			assert.ErrorIs(t, err, entity.ErrSessionKeyAbsent)
			assert.NoError(t, s.Delete(ctx, ResultsKey))
		})
	}
}

func TestRedisSessionScopesKeysByTab(t *testing.T) {
	fake := newFakeRedis()
	ctx := context.Background()

	a := NewRedisSession(fake, "tab-a", 30*time.Minute)
	b := NewRedisSession(fake, "tab-b", 30*time.Minute)
	require.NoError(t, a.Set(ctx, ResultsKey, "a"))

	_, err := b.Get(ctx, ResultsKey)
	assert.ErrorIs(t, err, entity.ErrSessionKeyAbsent)
	assert.Equal(t, "a", fake.values["session:tab-a:predictionResults"])
	assert.Equal(t, 30*time.Minute, fake.ttls["session:tab-a:predictionResults"])
}

func TestRedisSessionPropagatesErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.setErr = errors.New("connection refused")

	err := NewRedisSession(fake, "tab", 0).Set(context.Background(), ResultsKey, "x")
	assert.EqualError(t, err, "connection refused")
}

func TestFileSessionLayout(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := NewFileSession(storage.NewFileStorage(dir), "tab-9")

	require.NoError(t, s.Set(ctx, ResultsKey, `{"a":1}`))
	require.NoError(t, s.Set(ctx, "other", "x"))

	data, err := os.ReadFile(filepath.Join(dir, "sessions", "tab-9.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"predictionResults":"{\"a\":1}","other":"x"}`, string(data))

	require.NoError(t, s.Delete(ctx, ResultsKey))
	require.NoError(t, s.Delete(ctx, "other"))
	_, err = os.Stat(filepath.Join(dir, "sessions", "tab-9.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileSessionWithoutDocument(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	s := NewFileSession(fs, "fresh-tab")

	_, err := s.Get(context.Background(), ResultsKey)
	assert.ErrorIs(t, err, entity.ErrSessionKeyAbsent)
	assert.False(t, fs.Exists("sessions/fresh-tab.json"), "reading must not create the document")
}

func TestNewTabIDUnique(t *testing.T) {
	assert.NotEqual(t, NewTabID(), NewTabID())
}
