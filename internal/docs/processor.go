package docs

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	textracttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/google/uuid"

	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// storedTextLimit caps how much extracted text is kept per document
const storedTextLimit = 5000

// TextractAPI is the slice of the Textract client the processor uses
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Document is one processed knowledge base entry
type Document struct {
	ID            string `json:"document_id" dynamodbav:"document_id"`
	FileName      string `json:"file_name" dynamodbav:"file_name"`
	ExtractedText string `json:"extracted_text" dynamodbav:"extracted_text"`
	TextLength    int    `json:"text_length" dynamodbav:"text_length"`
	ProcessedAt   string `json:"processed_at" dynamodbav:"processed_at"`
	Status        string `json:"status" dynamodbav:"status"`
}

// Processor extracts text from uploaded documents and files the result
// in the knowledge table. PDFs and images go through Textract; plain
// text files are read straight from the bucket.
type Processor struct {
	extraction *resilience.Guard
	objects    *storage.ObjectStore
	records    *storage.RecordStore
	table      string
	bucket     string
	logger     *logging.Logger
	now        func() time.Time
}

// NewProcessor wires the text extraction handle behind a guard
func NewProcessor(textractHandle *resilience.Handle, objects *storage.ObjectStore, records *storage.RecordStore, table, bucket string, retry resilience.RetryConfig, observer resilience.Observer) (*Processor, error) {
	extraction, err := resilience.NewGuard(textractHandle, resilience.GuardConfig{
		Name:     textractHandle.Name(),
		Retry:    retry,
		Observer: observer,
	})
	if err != nil {
		return nil, err
	}

	return &Processor{
		extraction: extraction,
		objects:    objects,
		records:    records,
		table:      table,
		bucket:     bucket,
		logger:     logging.GetLogger(),
		now:        time.Now,
	}, nil
}

// ProcessDocument extracts the text behind an object key and stores the
// result as a knowledge base document
func (p *Processor) ProcessDocument(ctx context.Context, key string) (Document, error) {
	if key == "" {
		return Document{}, errors.NewValidationError("object key is required")
	}

	var text string
	var err error
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		text, err = p.extractWithTextract(ctx, key)
	case ".txt":
		text, err = p.extractPlainText(ctx, key)
	default:
		return Document{}, errors.NewValidationError("unsupported file type: " + key)
	}
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:            uuid.NewString(),
		FileName:      key,
		ExtractedText: clampText(text),
		TextLength:    len(text),
		ProcessedAt:   p.now().UTC().Format(time.RFC3339),
		Status:        "processed",
	}

	if err := p.records.PutRecord(ctx, p.table, doc); err != nil {
		return Document{}, err
	}

	p.logger.Info("Document processed",
		"document_id", doc.ID,
		"file_name", key,
		"text_length", doc.TextLength,
	)
	return doc, nil
}

// GetDocument fetches one knowledge base document by id
func (p *Processor) GetDocument(ctx context.Context, documentID string) (Document, error) {
	var doc Document
	found, err := p.records.GetRecord(ctx, p.table, map[string]ddbtypes.AttributeValue{
		"document_id": &ddbtypes.AttributeValueMemberS{Value: documentID},
	}, &doc)
	if err != nil {
		return Document{}, err
	}
	if !found {
		return Document{}, errors.NewNotFoundError("document")
	}
	return doc, nil
}

// ListDocuments returns the processed knowledge base entries. The
// extracted text is omitted to keep listings small.
func (p *Processor) ListDocuments(ctx context.Context) ([]Document, error) {
	var documents []Document
	if err := p.records.ScanRecords(ctx, p.table, &documents); err != nil {
		return nil, err
	}
	for i := range documents {
		documents[i].ExtractedText = ""
	}
	return documents, nil
}

func (p *Processor) extractWithTextract(ctx context.Context, key string) (string, error) {
	result := p.extraction.Do(ctx, "detect_document_text", func(ctx context.Context, client interface{}) (interface{}, error) {
		api := client.(TextractAPI)
		out, callErr := api.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
			Document: &textracttypes.Document{
				S3Object: &textracttypes.S3Object{
					Bucket: aws.String(p.bucket),
					Name:   aws.String(key),
				},
			},
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyTextract, callErr)
		}

		var text strings.Builder
		for _, block := range out.Blocks {
			if block.BlockType == textracttypes.BlockTypeLine && block.Text != nil {
				text.WriteString(*block.Text)
				text.WriteString("\n")
			}
		}
		return text.String(), nil
	})
	if !result.Succeeded {
		return "", result.Err()
	}
	return result.Payload.(string), nil
}

func (p *Processor) extractPlainText(ctx context.Context, key string) (string, error) {
	data, err := p.objects.GetObject(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func clampText(text string) string {
	if len(text) > storedTextLimit {
		return text[:storedTextLimit]
	}
	return text
}
