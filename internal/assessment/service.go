package assessment

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

// PassingScore is the minimum percentage required to pass an assessment
const PassingScore = 70.0

// Assessment describes one available assessment
type Assessment struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Questions       int    `json:"questions"`
	Difficulty      string `json:"difficulty"`
	Status          string `json:"status"`
}

// Question is one multiple-choice question. CorrectAnswer indexes into
// Options and is stripped before questions reach a client.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer,omitempty"`
}

// Result is a scored submission
type Result struct {
	AssessmentID   string  `json:"assessment_id" dynamodbav:"assessment_id"`
	EmployeeID     string  `json:"employee_id" dynamodbav:"employee_id"`
	Score          float64 `json:"score" dynamodbav:"score"`
	CorrectAnswers int     `json:"correct_answers" dynamodbav:"correct_answers"`
	TotalQuestions int     `json:"total_questions" dynamodbav:"total_questions"`
	Passed         bool    `json:"passed" dynamodbav:"passed"`
	Feedback       string  `json:"feedback" dynamodbav:"feedback"`
	SubmittedAt    string  `json:"submitted_at" dynamodbav:"submitted_at"`
}

// Service manages assessments: role-keyed catalogs, question banks,
// scoring, and guarded history persistence.
type Service struct {
	records *storage.RecordStore
	table   string
	logger  *logging.Logger

	catalogs map[string][]Assessment
	banks    map[string][]Question
}

// NewService creates the assessment service over the given record store
func NewService(records *storage.RecordStore, table string) *Service {
	return &Service{
		records: records,
		table:   table,
		logger:  logging.GetLogger(),
		catalogs: map[string][]Assessment{
			"engineer": {
				{ID: "tech_001", Name: "Technical Fundamentals", DurationMinutes: 30, Questions: 20, Difficulty: "intermediate", Status: "available"},
				{ID: "code_001", Name: "Coding Best Practices", DurationMinutes: 45, Questions: 15, Difficulty: "intermediate", Status: "available"},
				{ID: "arch_001", Name: "System Architecture", DurationMinutes: 40, Questions: 25, Difficulty: "advanced", Status: "locked"},
			},
			"sales": {
				{ID: "product_001", Name: "Product Knowledge", DurationMinutes: 25, Questions: 30, Difficulty: "beginner", Status: "available"},
				{ID: "sales_001", Name: "Sales Process", DurationMinutes: 30, Questions: 20, Difficulty: "intermediate", Status: "available"},
			},
			"default": {
				{ID: "culture_001", Name: "Company Culture Quiz", DurationMinutes: 15, Questions: 15, Difficulty: "beginner", Status: "available"},
				{ID: "policy_001", Name: "Policies & Compliance", DurationMinutes: 20, Questions: 20, Difficulty: "beginner", Status: "available"},
			},
		},
		banks: map[string][]Question{
			"culture_001": {
				{
					ID:       1,
					Question: "What is our company's primary mission?",
					Type:     "multiple_choice",
					Options: []string{
						"Maximize profits",
						"Deliver innovative solutions to customers",
						"Expand globally",
						"Reduce costs",
					},
					CorrectAnswer: 1,
				},
				{
					ID:       2,
					Question: "Which value is most important in our company culture?",
					Type:     "multiple_choice",
					Options: []string{
						"Competition",
						"Individual achievement",
						"Collaboration and teamwork",
						"Speed over quality",
					},
					CorrectAnswer: 2,
				},
			},
			"tech_001": {
				{
					ID:       1,
					Question: "What is the recommended approach for code reviews?",
					Type:     "multiple_choice",
					Options: []string{
						"Review only critical bugs",
						"All code must be reviewed before merging",
						"Reviews are optional",
						"Only senior developers review code",
					},
					CorrectAnswer: 1,
				},
			},
		},
	}
}

// GetAvailableAssessments returns the catalog for the employee's role
func (s *Service) GetAvailableAssessments(role string) []Assessment {
	role = strings.ToLower(role)

	key := "default"
	switch {
	case strings.Contains(role, "engineer"):
		key = "engineer"
	case strings.Contains(role, "sales"):
		key = "sales"
	}

	catalog := s.catalogs[key]
	out := make([]Assessment, len(catalog))
	copy(out, catalog)
	return out
}

// GetQuestions returns the question bank for an assessment with the
// answer keys removed.
func (s *Service) GetQuestions(assessmentID string) ([]Question, error) {
	bank, ok := s.banks[assessmentID]
	if !ok {
		return nil, errors.NewNotFoundError("assessment")
	}

	questions := make([]Question, len(bank))
	for i, q := range bank {
		q.CorrectAnswer = 0
		questions[i] = q
	}
	return questions, nil
}

// Submit scores the answers against the bank, persists the result when
// the record store is available, and returns the scored result. Storage
// failures do not lose the score.
func (s *Service) Submit(ctx context.Context, employeeID, assessmentID string, answers []int) (Result, error) {
	bank, ok := s.banks[assessmentID]
	if !ok {
		return Result{}, errors.NewNotFoundError("assessment")
	}

	correct := 0
	for i, q := range bank {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	score := float64(correct) / float64(len(bank)) * 100
	result := Result{
		AssessmentID:   assessmentID,
		EmployeeID:     employeeID,
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(bank),
		Passed:         score >= PassingScore,
		Feedback:       feedback(score),
		SubmittedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.records.PutRecord(ctx, s.table, result); err != nil {
		s.logger.LogError(ctx, err, "Failed to persist assessment result", map[string]interface{}{
			"employee_id":   employeeID,
			"assessment_id": assessmentID,
		})
	}

	return result, nil
}

// GetHistory returns the employee's past results. An unavailable record
// store yields an empty history.
func (s *Service) GetHistory(ctx context.Context, employeeID string) []Result {
	var results []Result
	err := s.records.QueryRecords(ctx, &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: aws.String("employee_id = :id"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":id": &ddbtypes.AttributeValueMemberS{Value: employeeID},
		},
	}, &results)
	if err != nil {
		s.logger.LogError(ctx, err, "Failed to load assessment history", map[string]interface{}{
			"employee_id": employeeID,
		})
		return []Result{}
	}
	return results
}

func feedback(score float64) string {
	switch {
	case score >= 90:
		return "Excellent! You have demonstrated mastery of this topic."
	case score >= 80:
		return "Great job! You have a strong understanding of this material."
	case score >= PassingScore:
		return "Good work! You passed the assessment. Review the materials to strengthen your knowledge."
	default:
		return "You did not pass this time. Please review the materials and try again."
	}
}
