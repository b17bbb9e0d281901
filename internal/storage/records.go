package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// RecordsAPI is the slice of the DynamoDB client the record store uses
type RecordsAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// RecordStore provides typed access to the onboarding record tables.
// Every call goes through the dependency guard so retries and degradation
// behave the same as any other remote call.
type RecordStore struct {
	guard *resilience.Guard
}

// NewRecordStore wraps the record store handle with a guard
func NewRecordStore(handle *resilience.Handle, retry resilience.RetryConfig, observer resilience.Observer) (*RecordStore, error) {
	guard, err := resilience.NewGuard(handle, resilience.GuardConfig{
		Name:     handle.Name(),
		Retry:    retry,
		Observer: observer,
	})
	if err != nil {
		return nil, err
	}
	return &RecordStore{guard: guard}, nil
}

// Guard exposes the underlying guard for callers that need custom fallbacks
func (s *RecordStore) Guard() *resilience.Guard {
	return s.guard
}

// PutRecord marshals item and writes it to the given table
func (s *RecordStore) PutRecord(ctx context.Context, table string, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.NewInternalError("failed to marshal record").WithCause(err)
	}

	result := s.guard.Do(ctx, "put_item", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(RecordsAPI)
		out, callErr := api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &table,
			Item:      av,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyRecords, callErr)
		}
		return out, nil
	})

	return result.Err()
}

// GetRecord fetches one item by key and unmarshals it into out. The
// second return is false when the key has no item.
func (s *RecordStore) GetRecord(ctx context.Context, table string, key map[string]types.AttributeValue, out interface{}) (bool, error) {
	result := s.guard.Do(ctx, "get_item", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(RecordsAPI)
		resp, callErr := api.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &table,
			Key:       key,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyRecords, callErr)
		}
		return resp, nil
	})
	if err := result.Err(); err != nil {
		return false, err
	}

	resp := result.Payload.(*dynamodb.GetItemOutput)
	if len(resp.Item) == 0 {
		return false, nil
	}

	if err := attributevalue.UnmarshalMap(resp.Item, out); err != nil {
		return false, errors.NewInternalError("failed to unmarshal record").WithCause(err)
	}
	return true, nil
}

// QueryRecords runs the given query and unmarshals all items into out,
// which must be a pointer to a slice.
func (s *RecordStore) QueryRecords(ctx context.Context, input *dynamodb.QueryInput, out interface{}) error {
	result := s.guard.Do(ctx, "query", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(RecordsAPI)
		resp, callErr := api.Query(ctx, input)
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyRecords, callErr)
		}
		return resp, nil
	})
	if err := result.Err(); err != nil {
		return err
	}

	resp := result.Payload.(*dynamodb.QueryOutput)
	if err := attributevalue.UnmarshalListOfMaps(resp.Items, out); err != nil {
		return errors.NewInternalError("failed to unmarshal query results").WithCause(err)
	}
	return nil
}

// UpdateRecord applies an update expression to one item
func (s *RecordStore) UpdateRecord(ctx context.Context, input *dynamodb.UpdateItemInput) error {
	result := s.guard.Do(ctx, "update_item", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(RecordsAPI)
		out, callErr := api.UpdateItem(ctx, input)
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyRecords, callErr)
		}
		return out, nil
	})

	return result.Err()
}

// DeleteRecord removes one item by key
func (s *RecordStore) DeleteRecord(ctx context.Context, table string, key map[string]types.AttributeValue) error {
	result := s.guard.Do(ctx, "delete_item", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(RecordsAPI)
		out, callErr := api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &table,
			Key:       key,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyRecords, callErr)
		}
		return out, nil
	})

	return result.Err()
}

// ScanRecords scans a full table and unmarshals all items into out
func (s *RecordStore) ScanRecords(ctx context.Context, table string, out interface{}) error {
	result := s.guard.Do(ctx, "scan", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(RecordsAPI)
		resp, callErr := api.Scan(ctx, &dynamodb.ScanInput{TableName: &table})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyRecords, callErr)
		}
		return resp, nil
	})
	if err := result.Err(); err != nil {
		return err
	}

	resp := result.Payload.(*dynamodb.ScanOutput)
	if err := attributevalue.UnmarshalListOfMaps(resp.Items, out); err != nil {
		return errors.NewInternalError("failed to unmarshal scan results").WithCause(err)
	}
	return nil
}
