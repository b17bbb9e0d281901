package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// ObjectsAPI is the slice of the S3 client the object store uses
type ObjectsAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ObjectStore provides guarded access to the content bucket
type ObjectStore struct {
	guard  *resilience.Guard
	bucket string
}

// NewObjectStore wraps the object store handle with a guard
func NewObjectStore(handle *resilience.Handle, bucket string, retry resilience.RetryConfig, observer resilience.Observer) (*ObjectStore, error) {
	guard, err := resilience.NewGuard(handle, resilience.GuardConfig{
		Name:     handle.Name(),
		Retry:    retry,
		Observer: observer,
	})
	if err != nil {
		return nil, err
	}
	return &ObjectStore{guard: guard, bucket: bucket}, nil
}

// Guard exposes the underlying guard for callers that need custom fallbacks
func (s *ObjectStore) Guard() *resilience.Guard {
	return s.guard
}

// Bucket returns the bucket the store writes to
func (s *ObjectStore) Bucket() string {
	return s.bucket
}

// PutObject stores data under key with the given content type
func (s *ObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	result := s.guard.Do(ctx, "put_object", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(ObjectsAPI)
		out, callErr := api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &s.bucket,
			Key:         &key,
			Body:        bytes.NewReader(data),
			ContentType: &contentType,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyObjects, callErr)
		}
		return out, nil
	})

	return result.Err()
}

// GetObject reads the full object stored under key
func (s *ObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	result := s.guard.Do(ctx, "get_object", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(ObjectsAPI)
		resp, callErr := api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyObjects, callErr)
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, errors.NewExternalError(awsclients.DependencyObjects, "failed to read object body").WithCause(readErr)
		}
		return data, nil
	})
	if err := result.Err(); err != nil {
		return nil, err
	}

	return result.Payload.([]byte), nil
}

// ListObjects lists objects under the given prefix
func (s *ObjectStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	result := s.guard.Do(ctx, "list_objects", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(ObjectsAPI)

		var infos []ObjectInfo
		var continuation *string
		for {
			resp, callErr := api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            &s.bucket,
				Prefix:            &prefix,
				ContinuationToken: continuation,
			})
			if callErr != nil {
				return nil, awsclients.Classify(awsclients.DependencyObjects, callErr)
			}

			for _, obj := range resp.Contents {
				info := ObjectInfo{}
				if obj.Key != nil {
					info.Key = *obj.Key
				}
				if obj.Size != nil {
					info.Size = *obj.Size
				}
				if obj.LastModified != nil {
					info.ModifiedAt = *obj.LastModified
				}
				infos = append(infos, info)
			}

			if resp.IsTruncated == nil || !*resp.IsTruncated {
				break
			}
			continuation = resp.NextContinuationToken
		}
		return infos, nil
	})
	if err := result.Err(); err != nil {
		return nil, err
	}

	return result.Payload.([]ObjectInfo), nil
}

// DeleteObject removes the object stored under key
func (s *ObjectStore) DeleteObject(ctx context.Context, key string) error {
	result := s.guard.Do(ctx, "delete_object", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(ObjectsAPI)
		out, callErr := api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyObjects, callErr)
		}
		return out, nil
	})

	return result.Err()
}
