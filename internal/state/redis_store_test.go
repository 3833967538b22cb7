package state

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/quizbot-fsm/internal/errors"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return mr, client
}

func TestRedisStore_SetThenGet(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client, testTable, testLogger())
	ctx := context.Background()

	require.NoError(t, store.SetState(ctx, 42, "AWAITING_ANSWER"))

	state, ok, err := store.GetState(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, State("AWAITING_ANSWER"), state)

	require.NoError(t, store.Reset(ctx, 42))

	state, ok, err = store.GetState(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, state)
}

func TestRedisStore_SetStateReplacesRecord(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, testTable, testLogger())
	ctx := context.Background()

	require.NoError(t, store.SetState(ctx, 5, "QUESTION_1"))
	mr.HSet(testTable+":5", "meta", `{"scores":{"alice":3}}`, "extra", "stale")

	require.NoError(t, store.SetState(ctx, 5, "QUESTION_2"))

	keys, err := mr.HKeys(testTable + ":5")
	require.NoError(t, err)
	assert.Equal(t, []string{"meta", "state"}, keys)

	record, err := store.GetRecord(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, &Record{
		ChatID: 5,
		State:  "QUESTION_2",
		Meta:   Meta{"scores": map[string]any{}},
	}, record)
}

func TestRedisStore_ResetIsIdempotent(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client, testTable, testLogger())
	ctx := context.Background()

	assert.NoError(t, store.Reset(ctx, 1))
	assert.NoError(t, store.Reset(ctx, 1))

	record, err := store.GetRecord(ctx, 1)
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestRedisStore_WrongTypeIsParsingError(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, testTable, testLogger())

	require.NoError(t, mr.Set(testTable+":99", "not-a-hash"))

	_, _, err := store.GetState(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrParsing)
	assert.False(t, apperrors.IsStoreUnavailable(err))
}

func TestRedisStore_CorruptMetaIsParsingError(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, testTable, testLogger())

	mr.HSet(testTable+":3", "state", "RESULTS", "meta", "{broken")

	record, err := store.GetRecord(context.Background(), 3)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, apperrors.ErrParsing)

	state, ok, err := store.GetState(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, State("RESULTS"), state)
}

func TestRedisStore_StoreUnavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, testTable, testLogger())
	ctx := context.Background()
	mr.Close()

	_, _, err := store.GetState(ctx, 7)
	assert.True(t, apperrors.IsStoreUnavailable(err), "get state: %v", err)

	err = store.SetState(ctx, 7, "AWAITING_ANSWER")
	assert.True(t, apperrors.IsStoreUnavailable(err), "set state: %v", err)

	err = store.Reset(ctx, 7)
	assert.True(t, apperrors.IsStoreUnavailable(err), "reset: %v", err)

	_, err = store.GetRecord(ctx, 7)
	assert.True(t, apperrors.IsStoreUnavailable(err), "get record: %v", err)
}
