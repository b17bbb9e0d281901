package awsclients

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"

	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// Dependency names used for handles, logging, and metrics labels
const (
	DependencyAssistant  = "assistant"
	DependencyObjects    = "object_store"
	DependencyRecords    = "record_store"
	DependencyEmail      = "email"
	DependencySpeech     = "speech"
	DependencyTranscribe = "transcription"
	DependencyTextract   = "text_extraction"
)

// Clients owns one resilience handle per managed service. SDK clients are
// constructed lazily on first use and share a single resolved AWS config.
type Clients struct {
	cfg *config.Config

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error

	Assistant  *resilience.Handle
	Objects    *resilience.Handle
	Records    *resilience.Handle
	Email      *resilience.Handle
	Speech     *resilience.Handle
	Transcribe *resilience.Handle
	Textract   *resilience.Handle
}

// NewClients wires a handle for every managed service, honoring the
// feature flags so disabled features never construct a client.
func NewClients(cfg *config.Config) *Clients {
	c := &Clients{cfg: cfg}

	c.Assistant = resilience.NewHandle(DependencyAssistant, cfg.Features.Assistant, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return bedrockagentruntime.NewFromConfig(awsCfg), nil
	})

	c.Objects = resilience.NewHandle(DependencyObjects, true, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return s3.NewFromConfig(awsCfg), nil
	})

	c.Records = resilience.NewHandle(DependencyRecords, cfg.Features.ProgressTracking, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return dynamodb.NewFromConfig(awsCfg), nil
	})

	c.Email = resilience.NewHandle(DependencyEmail, cfg.Features.EmailAutomation, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return sesv2.NewFromConfig(awsCfg), nil
	})

	c.Speech = resilience.NewHandle(DependencySpeech, cfg.Features.Voice, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return polly.NewFromConfig(awsCfg), nil
	})

	c.Transcribe = resilience.NewHandle(DependencyTranscribe, cfg.Features.Voice, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return transcribe.NewFromConfig(awsCfg), nil
	})

	c.Textract = resilience.NewHandle(DependencyTextract, cfg.Features.Documents, func(ctx context.Context) (interface{}, error) {
		awsCfg, err := c.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return textract.NewFromConfig(awsCfg), nil
	})

	return c
}

// Handles returns every dependency handle keyed by name, for health
// reporting and state gauges.
func (c *Clients) Handles() map[string]*resilience.Handle {
	return map[string]*resilience.Handle{
		DependencyAssistant:  c.Assistant,
		DependencyObjects:    c.Objects,
		DependencyRecords:    c.Records,
		DependencyEmail:      c.Email,
		DependencySpeech:     c.Speech,
		DependencyTranscribe: c.Transcribe,
		DependencyTextract:   c.Textract,
	}
}

func (c *Clients) awsConfig(ctx context.Context) (aws.Config, error) {
	c.awsOnce.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(c.cfg.AWS.Region),
		)
		if err != nil {
			c.awsErr = errors.NewConfigurationError("aws", "failed to load AWS configuration").WithCause(err)
			return
		}
		c.awsCfg = awsCfg
	})

	return c.awsCfg, c.awsErr
}
