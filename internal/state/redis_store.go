package state

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/Proton-105/quizbot-fsm/internal/errors"
	"github.com/Proton-105/quizbot-fsm/pkg/logger"
)

const (
	redisRecordKeyPattern = "%s:%d"
	wrongTypePrefix       = "WRONGTYPE"
)

// RedisStore persists chat FSM state as Redis hashes named <table>:<chat_id>
// with the fields state and meta (JSON).
type RedisStore struct {
	client redis.Cmdable
	table  string
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore binds a ready Redis client to the given key namespace.
func NewRedisStore(client redis.Cmdable, table string, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		table:  table,
		log:    log,
	}
}

// GetState returns the state field of the chat's hash, if any.
func (s *RedisStore) GetState(ctx context.Context, chatID int64) (State, bool, error) {
	fields, err := s.load(ctx, chatID)
	s.debug(ctx, "get_state", chatID, err)
	if err != nil {
		return "", false, err
	}

	value, ok := fields[attrState]
	if !ok {
		return "", false, nil
	}

	return State(value), true, nil
}

// SetState replaces the chat's hash atomically, resetting meta to empty scores.
func (s *RedisStore) SetState(ctx context.Context, chatID int64, state State) error {
	meta, err := sonic.Marshal(newMeta())
	if err != nil {
		return apperrors.NewParsingError("encode FSM meta: " + err.Error())
	}

	key := s.key(chatID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, attrState, string(state), attrMeta, string(meta))
		return nil
	})
	if err != nil {
		err = s.mapError(err)
	}
	s.debug(ctx, "set_state", chatID, err, slog.String("state", string(state)))

	return err
}

// Reset deletes the chat's hash. Deleting a missing key succeeds.
func (s *RedisStore) Reset(ctx context.Context, chatID int64) error {
	err := s.client.Del(ctx, s.key(chatID)).Err()
	if err != nil {
		err = apperrors.NewStoreUnavailableError(err)
	}
	s.debug(ctx, "reset", chatID, err)

	return err
}

// GetRecord returns the chat's record with decoded meta, or nil when absent.
func (s *RedisStore) GetRecord(ctx context.Context, chatID int64) (*Record, error) {
	fields, err := s.load(ctx, chatID)
	s.debug(ctx, "get_record", chatID, err)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, nil
	}

	record := &Record{
		ChatID: chatID,
		State:  State(fields[attrState]),
	}

	if raw, ok := fields[attrMeta]; ok && raw != "" {
		var meta Meta
		if err := sonic.UnmarshalString(raw, &meta); err != nil {
			return nil, apperrors.NewParsingError("decode FSM meta: " + err.Error())
		}
		record.Meta = meta
	}

	return record, nil
}

func (s *RedisStore) load(ctx context.Context, chatID int64) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, s.key(chatID)).Result()
	if err != nil {
		return nil, s.mapError(err)
	}

	return fields, nil
}

// mapError reports keys holding a non-hash value as malformed records and
// everything else as store unavailability.
func (s *RedisStore) mapError(err error) error {
	if strings.HasPrefix(err.Error(), wrongTypePrefix) {
		return apperrors.NewParsingError("FSM record has unexpected type: " + err.Error())
	}

	return apperrors.NewStoreUnavailableError(err)
}

func (s *RedisStore) key(chatID int64) string {
	return fmt.Sprintf(redisRecordKeyPattern, s.table, chatID)
}

func (s *RedisStore) debug(ctx context.Context, op string, chatID int64, err error, extra ...slog.Attr) {
	attrs := append([]slog.Attr{
		slog.String("op", op),
		slog.Int64("chat_id", chatID),
		slog.String("key", s.key(chatID)),
	}, extra...)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	s.log.LogAttrs(ctx, slog.LevelDebug, "fsm store request", attrs...)
}
