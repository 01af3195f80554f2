package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"procurement-hub/internal/resource"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrResource = "resource"
	attrID       = "id"
	attrVersion  = "version"
	attrLastID   = "last_id"

	// el contador de ids vive en el item (resource, 0)
	counterID = 0

	maxAttempts = 3
)

// API es el subconjunto del cliente que usa Store (permite fakes en tests).
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type docItem struct {
	Resource string `dynamodbav:"resource"`
	ID       int64  `dynamodbav:"id"`
	Version  int64  `dynamodbav:"version"`
	Payload  string `dynamodbav:"payload"`
}

// Store implementa resource.Store[T] en una tabla DynamoDB compartida.
// Las escrituras usan optimistic locking por "version"; ante conflicto se reintenta.
type Store[T any] struct {
	api      API
	table    string
	resource string
}

func NewStore[T any](api API, table, resourceName string) *Store[T] {
	return &Store[T]{api: api, table: table, resource: resourceName}
}

func (s *Store[T]) key(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrResource: &types.AttributeValueMemberS{Value: s.resource},
		attrID:       &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

func (s *Store[T]) Find(ctx context.Context) ([]T, error) {
	out := make([]T, 0)
	var start map[string]types.AttributeValue
	for {
		res, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("#r = :r AND #id > :zero"),
			ExpressionAttributeNames: map[string]string{
				"#r":  attrResource,
				"#id": attrID,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":r":    &types.AttributeValueMemberS{Value: s.resource},
				":zero": &types.AttributeValueMemberN{Value: "0"},
			},
			ConsistentRead:    aws.Bool(true),
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", s.resource, err)
		}
		for _, raw := range res.Items {
			v, _, err := s.decode(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		if len(res.LastEvaluatedKey) == 0 {
			return out, nil
		}
		start = res.LastEvaluatedKey
	}
}

func (s *Store[T]) Get(ctx context.Context, id int64) (T, error) {
	v, _, err := s.get(ctx, id)
	return v, err
}

func (s *Store[T]) Insert(ctx context.Context, build func(id int64) (T, error)) (T, error) {
	var zero T
	id, err := s.nextID(ctx)
	if err != nil {
		return zero, err
	}
	v, err := build(id)
	if err != nil {
		// el id queda consumido; no se reutiliza
		return zero, err
	}
	item, err := s.encode(id, 1, v)
	if err != nil {
		return zero, err
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrID},
	})
	if err != nil {
		return zero, fmt.Errorf("put %s/%d: %w", s.resource, id, err)
	}
	return v, nil
}

func (s *Store[T]) Update(ctx context.Context, id int64, mutate func(cur T) (T, error)) (T, error) {
	var zero T
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cur, version, err := s.get(ctx, id)
		if err != nil {
			return zero, err
		}
		next, err := mutate(cur)
		if err != nil {
			return zero, err
		}
		item, err := s.encode(id, version+1, next)
		if err != nil {
			return zero, err
		}
		_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(s.table),
			Item:                      item,
			ConditionExpression:       aws.String("#v = :v"),
			ExpressionAttributeNames:  map[string]string{"#v": attrVersion},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)}},
		})
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return zero, fmt.Errorf("put %s/%d: %w", s.resource, id, err)
		}
		return next, nil
	}
	return zero, resource.Conflictf("%s %d was modified concurrently, retry", s.resource, id)
}

func (s *Store[T]) Remove(ctx context.Context, id int64, guard func(cur T) error) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cur, version, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(cur); err != nil {
				return err
			}
		}
		_, err = s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:                 aws.String(s.table),
			Key:                       s.key(id),
			ConditionExpression:       aws.String("#v = :v"),
			ExpressionAttributeNames:  map[string]string{"#v": attrVersion},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)}},
		})
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("delete %s/%d: %w", s.resource, id, err)
		}
		return nil
	}
	return resource.Conflictf("%s %d was modified concurrently, retry", s.resource, id)
}

func (s *Store[T]) nextID(ctx context.Context) (int64, error) {
	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(counterID),
		UpdateExpression:          aws.String("ADD #last :one"),
		ExpressionAttributeNames:  map[string]string{"#last": attrLastID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", s.resource, err)
	}
	var got struct {
		LastID int64 `dynamodbav:"last_id"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &got); err != nil {
		return 0, err
	}
	if got.LastID <= 0 {
		return 0, fmt.Errorf("next id %s: counter not returned", s.resource)
	}
	return got.LastID, nil
}

func (s *Store[T]) get(ctx context.Context, id int64) (T, int64, error) {
	var zero T
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return zero, 0, fmt.Errorf("get %s/%d: %w", s.resource, id, err)
	}
	if len(out.Item) == 0 {
		return zero, 0, resource.ErrNotFound
	}
	return s.decode(out.Item)
}

func (s *Store[T]) encode(id, version int64, v T) (map[string]types.AttributeValue, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return attributevalue.MarshalMap(docItem{
		Resource: s.resource,
		ID:       id,
		Version:  version,
		Payload:  string(payload),
	})
}

func (s *Store[T]) decode(raw map[string]types.AttributeValue) (T, int64, error) {
	var zero T
	var it docItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return zero, 0, err
	}
	var v T
	if err := json.Unmarshal([]byte(it.Payload), &v); err != nil {
		return zero, 0, fmt.Errorf("decode %s/%d: %w", s.resource, it.ID, err)
	}
	return v, it.Version, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
