package state

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "github.com/Proton-105/quizbot-fsm/internal/errors"
	"github.com/Proton-105/quizbot-fsm/pkg/dynamo"
	"github.com/Proton-105/quizbot-fsm/pkg/logger"
)

const (
	keyConditionExpression = "#key = :value"
	keyNamePlaceholder     = "#key"
	keyValuePlaceholder    = ":value"

	errStateNotRecorded = "given state is not recorded in FSM store"
)

// DynamoStore persists chat FSM state in a DynamoDB table keyed by chat_id.
type DynamoStore struct {
	client dynamo.API
	table  string
	log    *slog.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore binds a ready DynamoDB client to the named table.
func NewDynamoStore(client dynamo.API, table string, log *slog.Logger) *DynamoStore {
	if log == nil {
		log = slog.Default()
	}

	return &DynamoStore{
		client: client,
		table:  table,
		log:    log,
	}
}

// GetState queries the chat's record and returns its string state attribute.
// An empty result, a missing attribute or a non-string attribute yield no state.
func (s *DynamoStore) GetState(ctx context.Context, chatID int64) (State, bool, error) {
	items, err := s.query(ctx, chatID)
	if err != nil {
		s.debug(ctx, "get_state", chatID, err)
		return "", false, err
	}
	s.debug(ctx, "get_state", chatID, nil)

	if len(items) == 0 {
		return "", false, nil
	}

	raw, ok := items[0][attrState].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, nil
	}

	return State(raw.Value), true, nil
}

// SetState overwrites the chat's record, resetting meta to empty scores.
func (s *DynamoStore) SetState(ctx context.Context, chatID int64, state State) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			attrChatID: chatIDValue(chatID),
			attrState:  &types.AttributeValueMemberS{Value: string(state)},
			attrMeta: &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				metaScoresKey: &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}},
			}},
		},
	})
	if err != nil {
		err = apperrors.NewStoreUnavailableError(err)
	}
	s.debug(ctx, "set_state", chatID, err, slog.String("state", string(state)))

	return err
}

// Reset deletes the chat's record unconditionally.
func (s *DynamoStore) Reset(ctx context.Context, chatID int64) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrChatID: chatIDValue(chatID),
		},
	})
	if err != nil {
		err = apperrors.NewStoreUnavailableError(err)
	}
	s.debug(ctx, "reset", chatID, err)

	return err
}

// GetRecord returns the chat's record with decoded meta, or nil when absent.
func (s *DynamoStore) GetRecord(ctx context.Context, chatID int64) (*Record, error) {
	items, err := s.query(ctx, chatID)
	s.debug(ctx, "get_record", chatID, err)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, nil
	}

	var record Record
	if err := attributevalue.UnmarshalMap(items[0], &record); err != nil {
		return nil, apperrors.NewParsingError("decode FSM record: " + err.Error())
	}

	return &record, nil
}

func (s *DynamoStore) query(ctx context.Context, chatID int64) ([]map[string]types.AttributeValue, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		KeyConditionExpression:   aws.String(keyConditionExpression),
		ExpressionAttributeNames: map[string]string{keyNamePlaceholder: attrChatID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			keyValuePlaceholder: chatIDValue(chatID),
		},
		Select: types.SelectAllAttributes,
	})
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	// An empty list means no record; a missing list is a malformed response.
	if out == nil || out.Items == nil {
		return nil, apperrors.NewParsingError(errStateNotRecorded)
	}

	return out.Items, nil
}

func (s *DynamoStore) debug(ctx context.Context, op string, chatID int64, err error, extra ...slog.Attr) {
	attrs := append([]slog.Attr{
		slog.String("op", op),
		slog.Int64("chat_id", chatID),
		slog.String("table", s.table),
	}, extra...)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	s.log.LogAttrs(ctx, slog.LevelDebug, "fsm store request", attrs...)
}

func chatIDValue(chatID int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(chatID, 10)}
}
