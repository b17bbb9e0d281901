package voice

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

const transcriptJSON = `{"results":{"transcripts":[{"transcript":"how do I set up my laptop"}]}}`

type fakeObjectsAPI struct {
	stored map[string][]byte
}

func (f *fakeObjectsAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.stored[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectsAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.stored[*params.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found", Fault: smithy.FaultClient}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjectsAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func (f *fakeObjectsAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

// fakeTranscribeAPI walks through the given statuses one poll at a time
// and drops the transcript document into the object store on completion
type fakeTranscribeAPI struct {
	objects        *fakeObjectsAPI
	statuses       []transcribetypes.TranscriptionJobStatus
	failReason     string
	startCalls     int
	pollCalls      int
	pollFailFirstN int
	transcriptAt   string
	startedNames   map[string]bool
}

func (f *fakeTranscribeAPI) StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.startCalls++
	name := *params.TranscriptionJobName
	if f.startedNames[name] {
		return nil, &smithy.GenericAPIError{Code: "ConflictException", Message: "job name already exists", Fault: smithy.FaultClient}
	}
	if f.startedNames == nil {
		f.startedNames = make(map[string]bool)
	}
	f.startedNames[name] = true
	f.transcriptAt = *params.OutputKey
	return &transcribe.StartTranscriptionJobOutput{}, nil
}

func (f *fakeTranscribeAPI) GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	f.pollCalls++
	if f.pollCalls <= f.pollFailFirstN {
		return nil, &smithy.GenericAPIError{Code: "ServiceUnavailableException", Message: "try again", Fault: smithy.FaultServer}
	}

	step := f.pollCalls - f.pollFailFirstN - 1
	status := f.statuses[len(f.statuses)-1]
	if step < len(f.statuses) {
		status = f.statuses[step]
	}

	if status == transcribetypes.TranscriptionJobStatusCompleted {
		f.objects.stored[f.transcriptAt] = []byte(transcriptJSON)
	}

	job := &transcribetypes.TranscriptionJob{TranscriptionJobStatus: status}
	if status == transcribetypes.TranscriptionJobStatusFailed && f.failReason != "" {
		job.FailureReason = aws.String(f.failReason)
	}
	return &transcribe.GetTranscriptionJobOutput{TranscriptionJob: job}, nil
}

type fakeSpeechAPI struct {
	calls      int
	failFirstN int
	audio      []byte
}

func (f *fakeSpeechAPI) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.calls++
	if f.calls <= f.failFirstN {
		return nil, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down", Fault: smithy.FaultClient}
	}
	return &polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(bytes.NewReader(f.audio))}, nil
}

type voiceFixture struct {
	service    *Service
	objects    *fakeObjectsAPI
	transcribe *fakeTranscribeAPI
	speech     *fakeSpeechAPI
}

func newVoiceFixture(t *testing.T, enabled bool) *voiceFixture {
	t.Helper()

	objects := &fakeObjectsAPI{stored: make(map[string][]byte)}
	transcribeAPI := &fakeTranscribeAPI{
		objects:  objects,
		statuses: []transcribetypes.TranscriptionJobStatus{transcribetypes.TranscriptionJobStatusCompleted},
	}
	speechAPI := &fakeSpeechAPI{audio: []byte("mp3-bytes")}
	retry := resilience.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}

	objectHandle := resilience.NewHandle("object_store", true, func(ctx context.Context) (interface{}, error) {
		return objects, nil
	})
	objectStore, err := storage.NewObjectStore(objectHandle, "easyonboard-content", retry, nil)
	require.NoError(t, err)

	transcribeHandle := resilience.NewHandle("transcription", enabled, func(ctx context.Context) (interface{}, error) {
		return transcribeAPI, nil
	})
	speechHandle := resilience.NewHandle("speech", enabled, func(ctx context.Context) (interface{}, error) {
		return speechAPI, nil
	})

	service, err := NewService(transcribeHandle, speechHandle, objectStore, "easyonboard-content", retry, nil)
	require.NoError(t, err)
	service.pollInterval = time.Millisecond
	service.pollTimeout = time.Second

	return &voiceFixture{service: service, objects: objects, transcribe: transcribeAPI, speech: speechAPI}
}

func TestService_Transcribe(t *testing.T) {
	f := newVoiceFixture(t, true)

	text, err := f.service.Transcribe(context.Background(), []byte("audio"), "mp3")

	require.NoError(t, err)
	assert.Equal(t, "how do I set up my laptop", text)
	assert.Equal(t, 1, f.transcribe.startCalls)

	uploaded := false
	for key := range f.objects.stored {
		if strings.HasPrefix(key, "voice/input/") && strings.HasSuffix(key, ".mp3") {
			uploaded = true
		}
	}
	assert.True(t, uploaded)
}

func TestService_Transcribe_PollsUntilComplete(t *testing.T) {
	f := newVoiceFixture(t, true)
	f.transcribe.statuses = []transcribetypes.TranscriptionJobStatus{
		transcribetypes.TranscriptionJobStatusInProgress,
		transcribetypes.TranscriptionJobStatusInProgress,
		transcribetypes.TranscriptionJobStatusCompleted,
	}

	text, err := f.service.Transcribe(context.Background(), []byte("audio"), "mp3")

	require.NoError(t, err)
	assert.Equal(t, "how do I set up my laptop", text)
	assert.Equal(t, 3, f.transcribe.pollCalls)
}

func TestService_Transcribe_ResumesJobAfterTransientPollError(t *testing.T) {
	f := newVoiceFixture(t, true)
	f.transcribe.pollFailFirstN = 1

	text, err := f.service.Transcribe(context.Background(), []byte("audio"), "mp3")

	require.NoError(t, err)
	assert.Equal(t, "how do I set up my laptop", text)
	assert.Equal(t, 1, f.transcribe.startCalls)
	assert.Equal(t, 2, f.transcribe.pollCalls)
}

func TestService_Transcribe_JobFailed(t *testing.T) {
	f := newVoiceFixture(t, true)
	f.transcribe.statuses = []transcribetypes.TranscriptionJobStatus{transcribetypes.TranscriptionJobStatusFailed}
	f.transcribe.failReason = "unsupported audio format"

	_, err := f.service.Transcribe(context.Background(), []byte("audio"), "mp3")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeExternal, errors.GetType(err))
}

func TestService_Transcribe_EmptyAudio(t *testing.T) {
	f := newVoiceFixture(t, true)

	_, err := f.service.Transcribe(context.Background(), nil, "mp3")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
	assert.Zero(t, f.transcribe.startCalls)
}

func TestService_Transcribe_Disabled(t *testing.T) {
	f := newVoiceFixture(t, false)

	_, err := f.service.Transcribe(context.Background(), []byte("audio"), "mp3")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.GetType(err))
	assert.Zero(t, f.transcribe.startCalls)
}

func TestService_Synthesize(t *testing.T) {
	f := newVoiceFixture(t, true)

	audio, err := f.service.Synthesize(context.Background(), "Welcome aboard")

	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestService_Synthesize_RetriesThrottling(t *testing.T) {
	f := newVoiceFixture(t, true)
	f.speech.failFirstN = 2

	audio, err := f.service.Synthesize(context.Background(), "Welcome aboard")

	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, 3, f.speech.calls)
}

func TestService_Synthesize_EmptyText(t *testing.T) {
	f := newVoiceFixture(t, true)

	_, err := f.service.Synthesize(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
}

func TestService_Synthesize_Disabled(t *testing.T) {
	f := newVoiceFixture(t, false)

	_, err := f.service.Synthesize(context.Background(), "Welcome aboard")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.GetType(err))
	assert.Zero(t, f.speech.calls)
}
