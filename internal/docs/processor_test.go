package docs

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	textracttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

type memoryRecordsAPI struct {
	items map[string]map[string]ddbtypes.AttributeValue
}

func (m *memoryRecordsAPI) key(av map[string]ddbtypes.AttributeValue) string {
	if s, ok := av["document_id"].(*ddbtypes.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (m *memoryRecordsAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.items[m.key(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memoryRecordsAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: m.items[m.key(params.Key)]}, nil
}

func (m *memoryRecordsAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (m *memoryRecordsAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *memoryRecordsAPI) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *memoryRecordsAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	var items []map[string]ddbtypes.AttributeValue
	for _, item := range m.items {
		items = append(items, item)
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

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

type fakeTextractAPI struct {
	lines      []string
	calls      int
	failFirstN int
}

func (f *fakeTextractAPI) DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error) {
	f.calls++
	if f.calls <= f.failFirstN {
		return nil, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down", Fault: smithy.FaultClient}
	}

	blocks := []textracttypes.Block{{BlockType: textracttypes.BlockTypePage}}
	for _, line := range f.lines {
		blocks = append(blocks, textracttypes.Block{
			BlockType: textracttypes.BlockTypeLine,
			Text:      aws.String(line),
		})
	}
	return &textract.DetectDocumentTextOutput{Blocks: blocks}, nil
}

type docsFixture struct {
	processor *Processor
	records   *memoryRecordsAPI
	objects   *fakeObjectsAPI
	textract  *fakeTextractAPI
}

func newDocsFixture(t *testing.T, enabled bool) *docsFixture {
	t.Helper()

	records := &memoryRecordsAPI{items: make(map[string]map[string]ddbtypes.AttributeValue)}
	objects := &fakeObjectsAPI{stored: make(map[string][]byte)}
	extractor := &fakeTextractAPI{lines: []string{"Employee Handbook", "Chapter 1: Getting Started"}}
	retry := resilience.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}

	recordHandle := resilience.NewHandle("record_store", true, func(ctx context.Context) (interface{}, error) {
		return records, nil
	})
	recordStore, err := storage.NewRecordStore(recordHandle, retry, nil)
	require.NoError(t, err)

	objectHandle := resilience.NewHandle("object_store", true, func(ctx context.Context) (interface{}, error) {
		return objects, nil
	})
	objectStore, err := storage.NewObjectStore(objectHandle, "easyonboard-content", retry, nil)
	require.NoError(t, err)

	textractHandle := resilience.NewHandle("text_extraction", enabled, func(ctx context.Context) (interface{}, error) {
		return extractor, nil
	})

	processor, err := NewProcessor(textractHandle, objectStore, recordStore, "onboarding-knowledge", "easyonboard-content", retry, nil)
	require.NoError(t, err)

	return &docsFixture{processor: processor, records: records, objects: objects, textract: extractor}
}

func TestProcessor_ProcessDocument_PDF(t *testing.T) {
	f := newDocsFixture(t, true)

	doc, err := f.processor.ProcessDocument(context.Background(), "docs/handbook.pdf")

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "docs/handbook.pdf", doc.FileName)
	assert.Equal(t, "Employee Handbook\nChapter 1: Getting Started\n", doc.ExtractedText)
	assert.Equal(t, len(doc.ExtractedText), doc.TextLength)
	assert.Equal(t, "processed", doc.Status)
	assert.Len(t, f.records.items, 1)
}

func TestProcessor_ProcessDocument_PlainText(t *testing.T) {
	f := newDocsFixture(t, true)
	f.objects.stored["docs/notes.txt"] = []byte("remote work policy")

	doc, err := f.processor.ProcessDocument(context.Background(), "docs/notes.txt")

	require.NoError(t, err)
	assert.Equal(t, "remote work policy", doc.ExtractedText)
	assert.Zero(t, f.textract.calls)
}

func TestProcessor_ProcessDocument_UnsupportedType(t *testing.T) {
	f := newDocsFixture(t, true)

	_, err := f.processor.ProcessDocument(context.Background(), "docs/report.xlsx")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.GetType(err))
}

func TestProcessor_ProcessDocument_RetriesThrottling(t *testing.T) {
	f := newDocsFixture(t, true)
	f.textract.failFirstN = 2

	doc, err := f.processor.ProcessDocument(context.Background(), "docs/handbook.pdf")

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ExtractedText)
	assert.Equal(t, 3, f.textract.calls)
}

func TestProcessor_ProcessDocument_Disabled(t *testing.T) {
	f := newDocsFixture(t, false)

	_, err := f.processor.ProcessDocument(context.Background(), "docs/handbook.pdf")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.GetType(err))
	assert.Zero(t, f.textract.calls)
}

func TestProcessor_ProcessDocument_TruncatesLongText(t *testing.T) {
	f := newDocsFixture(t, true)
	long := make([]byte, storedTextLimit+500)
	for i := range long {
		long[i] = 'a'
	}
	f.objects.stored["docs/long.txt"] = long

	doc, err := f.processor.ProcessDocument(context.Background(), "docs/long.txt")

	require.NoError(t, err)
	assert.Len(t, doc.ExtractedText, storedTextLimit)
	assert.Equal(t, storedTextLimit+500, doc.TextLength)
}

func TestProcessor_GetDocument(t *testing.T) {
	f := newDocsFixture(t, true)
	created, err := f.processor.ProcessDocument(context.Background(), "docs/handbook.pdf")
	require.NoError(t, err)

	doc, err := f.processor.GetDocument(context.Background(), created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.FileName, doc.FileName)
}

func TestProcessor_GetDocument_NotFound(t *testing.T) {
	f := newDocsFixture(t, true)

	_, err := f.processor.GetDocument(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.GetType(err))
}

func TestProcessor_ListDocuments_OmitsText(t *testing.T) {
	f := newDocsFixture(t, true)
	_, err := f.processor.ProcessDocument(context.Background(), "docs/handbook.pdf")
	require.NoError(t, err)

	documents, err := f.processor.ListDocuments(context.Background())

	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Empty(t, documents[0].ExtractedText)
	assert.NotZero(t, documents[0].TextLength)
}
