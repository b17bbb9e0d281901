package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"

	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// TranscribeAPI is the slice of the Transcribe client the service uses
type TranscribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// SpeechAPI is the slice of the Polly client the service uses
type SpeechAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// transcriptDocument is the JSON document Transcribe writes to S3
type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Service turns recorded speech into text and text back into speech.
// Audio lands in the content bucket; transcription runs as an async
// Transcribe job that is polled to completion.
type Service struct {
	transcription *resilience.Guard
	speech        *resilience.Guard
	objects       *storage.ObjectStore
	bucket        string
	voiceID       pollytypes.VoiceId
	pollInterval  time.Duration
	pollTimeout   time.Duration
	logger        *logging.Logger
}

// NewService wires the transcription and speech handles behind guards
func NewService(transcribeHandle, speechHandle *resilience.Handle, objects *storage.ObjectStore, bucket string, retry resilience.RetryConfig, observer resilience.Observer) (*Service, error) {
	transcription, err := resilience.NewGuard(transcribeHandle, resilience.GuardConfig{
		Name:     transcribeHandle.Name(),
		Retry:    retry,
		Observer: observer,
	})
	if err != nil {
		return nil, err
	}

	speech, err := resilience.NewGuard(speechHandle, resilience.GuardConfig{
		Name:     speechHandle.Name(),
		Retry:    retry,
		Observer: observer,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		transcription: transcription,
		speech:        speech,
		objects:       objects,
		bucket:        bucket,
		voiceID:       pollytypes.VoiceIdJoanna,
		pollInterval:  5 * time.Second,
		pollTimeout:   3 * time.Minute,
		logger:        logging.GetLogger(),
	}, nil
}

// Transcribe uploads the recording, runs a transcription job, and
// returns the spoken text
func (s *Service) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if len(audio) == 0 {
		return "", errors.NewValidationError("audio data is required")
	}
	if format == "" {
		format = "mp3"
	}

	jobID := uuid.NewString()
	audioKey := fmt.Sprintf("voice/input/%s.%s", jobID, format)
	transcriptKey := fmt.Sprintf("voice/transcripts/%s.json", jobID)

	if err := s.objects.PutObject(ctx, audioKey, audio, "audio/mpeg"); err != nil {
		return "", err
	}

	// Job names must be unique per account, so each start attempt uses a
	// fresh name. A start that errored after registering the job must not
	// be replayed under the same name on retry.
	started := s.transcription.Do(ctx, "start_transcription_job", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(TranscribeAPI)
		jobName := "transcription-" + uuid.NewString()

		_, callErr := api.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
			Media: &transcribetypes.Media{
				MediaFileUri: aws.String(fmt.Sprintf("s3://%s/%s", s.bucket, audioKey)),
			},
			MediaFormat:      transcribetypes.MediaFormat(format),
			LanguageCode:     transcribetypes.LanguageCodeEnUs,
			OutputBucketName: aws.String(s.bucket),
			OutputKey:        aws.String(transcriptKey),
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyTranscribe, callErr)
		}
		return jobName, nil
	})
	if !started.Succeeded {
		return "", started.Err()
	}
	jobName := started.Payload.(string)

	// Polling is retried independently so a transient status check
	// resumes the running job instead of starting another one.
	polled := s.transcription.Do(ctx, "poll_transcription_job", func(ctx context.Context, client interface{}) (interface{}, error) {
		return nil, s.waitForJob(ctx, client.(TranscribeAPI), jobName)
	})
	if !polled.Succeeded {
		return "", polled.Err()
	}

	doc, err := s.objects.GetObject(ctx, transcriptKey)
	if err != nil {
		return "", err
	}

	var transcript transcriptDocument
	if err := json.Unmarshal(doc, &transcript); err != nil {
		return "", errors.NewInternalError("failed to parse transcript document").WithCause(err)
	}
	if len(transcript.Results.Transcripts) == 0 {
		return "", errors.NewExternalError(awsclients.DependencyTranscribe, "transcript document is empty")
	}
	return transcript.Results.Transcripts[0].Transcript, nil
}

// Synthesize renders text as spoken MP3 audio
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	result := s.speech.Do(ctx, "synthesize_speech", func(ctx context.Context, client interface{}) (interface{}, error) {
		if text == "" {
			return nil, errors.NewValidationError("text is required")
		}

		api := client.(SpeechAPI)
		out, callErr := api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
			Text:         aws.String(text),
			OutputFormat: pollytypes.OutputFormatMp3,
			VoiceId:      s.voiceID,
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencySpeech, callErr)
		}
		defer out.AudioStream.Close()

		audio, readErr := io.ReadAll(out.AudioStream)
		if readErr != nil {
			return nil, errors.NewExternalError(awsclients.DependencySpeech, "failed to read audio stream")
		}
		return audio, nil
	})
	if !result.Succeeded {
		return nil, result.Err()
	}
	return result.Payload.([]byte), nil
}

func (s *Service) waitForJob(ctx context.Context, api TranscribeAPI, jobName string) error {
	deadline := time.NewTimer(s.pollTimeout)
	defer deadline.Stop()

	for {
		out, err := api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return awsclients.Classify(awsclients.DependencyTranscribe, err)
		}

		switch out.TranscriptionJob.TranscriptionJobStatus {
		case transcribetypes.TranscriptionJobStatusCompleted:
			return nil
		case transcribetypes.TranscriptionJobStatusFailed:
			reason := "transcription job failed"
			if out.TranscriptionJob.FailureReason != nil {
				reason = *out.TranscriptionJob.FailureReason
			}
			return errors.NewExternalError(awsclients.DependencyTranscribe, reason)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errors.NewTimeoutError("transcription job " + jobName)
		case <-time.After(s.pollInterval):
		}
	}
}
