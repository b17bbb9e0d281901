package progress

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// memoryRecordsAPI keeps items in memory keyed by employee_id
type memoryRecordsAPI struct {
	items map[string]map[string]ddbtypes.AttributeValue
	fail  error
}

func newMemoryRecordsAPI() *memoryRecordsAPI {
	return &memoryRecordsAPI{items: make(map[string]map[string]ddbtypes.AttributeValue)}
}

func (m *memoryRecordsAPI) keyOf(av map[string]ddbtypes.AttributeValue) string {
	if s, ok := av["employee_id"].(*ddbtypes.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (m *memoryRecordsAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.items[m.keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memoryRecordsAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	return &dynamodb.GetItemOutput{Item: m.items[m.keyOf(params.Key)]}, nil
}

func (m *memoryRecordsAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (m *memoryRecordsAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *memoryRecordsAPI) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(m.items, m.keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *memoryRecordsAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

func testTracker(t *testing.T, api storage.RecordsAPI, enabled bool) *Tracker {
	t.Helper()

	handle := resilience.NewHandle("record_store", enabled, func(ctx context.Context) (interface{}, error) {
		return api, nil
	})
	store, err := storage.NewRecordStore(handle, resilience.RetryConfig{MaxAttempts: 2, Delay: time.Millisecond}, nil)
	require.NoError(t, err)

	return NewTracker(store, "onboarding-progress")
}

func TestTracker_InitializeAndGetProgress(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)

	created := tracker.InitializeProgress(context.Background(), "emp-001", agent.UserProfile{
		Role:       "Engineer",
		Department: "Platform",
	})

	assert.Equal(t, "emp-001", created.EmployeeID)
	assert.Equal(t, "Engineer", created.Role)
	assert.Equal(t, 0, created.OverallProgress)
	assert.Empty(t, created.CompletedModules)

	record, degraded := tracker.GetProgress(context.Background(), "emp-001")
	assert.False(t, degraded)
	assert.Equal(t, created.StartDate, record.StartDate)
	assert.Equal(t, "Platform", record.Department)
}

func TestTracker_GetProgress_FallbackWhenDisabled(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, false)

	record, degraded := tracker.GetProgress(context.Background(), "emp-001")

	assert.True(t, degraded)
	assert.Equal(t, "emp-001", record.EmployeeID)
	assert.Equal(t, 45, record.OverallProgress)
	assert.Equal(t, []string{"Company Culture", "IT Systems Setup"}, record.CompletedModules)
	assert.Equal(t, 12, record.LearningStreakDays)
	assert.Equal(t, 180, record.TotalLearningTimeMinutes)
}

func TestTracker_GetProgress_FallbackWhenStoreFails(t *testing.T) {
	api := newMemoryRecordsAPI()
	api.fail = &smithy.GenericAPIError{Code: "InternalServerError", Message: "down", Fault: smithy.FaultServer}
	tracker := testTracker(t, api, true)

	record, degraded := tracker.GetProgress(context.Background(), "emp-001")

	assert.True(t, degraded)
	assert.Equal(t, 45, record.OverallProgress)
}

func TestTracker_GetProgress_FallbackWhenUnknownEmployee(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)

	record, degraded := tracker.GetProgress(context.Background(), "emp-unknown")

	assert.True(t, degraded)
	assert.Equal(t, "emp-unknown", record.EmployeeID)
}

func TestTracker_UpdateProgress(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)
	tracker.InitializeProgress(context.Background(), "emp-001", agent.UserProfile{Role: "Engineer"})

	progress := 25
	updated, err := tracker.UpdateProgress(context.Background(), "emp-001", Update{
		OverallProgress:   &progress,
		InProgressModules: []string{"Technical Stack Overview"},
	})

	require.NoError(t, err)
	assert.Equal(t, 25, updated.OverallProgress)
	assert.Equal(t, []string{"Technical Stack Overview"}, updated.InProgressModules)
	assert.Equal(t, 1, updated.LearningStreakDays)
}

func TestTracker_UpdateProgress_UnknownEmployee(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)

	progress := 25
	_, err := tracker.UpdateProgress(context.Background(), "emp-missing", Update{OverallProgress: &progress})

	require.Error(t, err)
}

func TestTracker_CompleteModule(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)
	tracker.InitializeProgress(context.Background(), "emp-001", agent.UserProfile{Role: "Engineer"})

	_, err := tracker.UpdateProgress(context.Background(), "emp-001", Update{
		InProgressModules: []string{"Company Culture"},
		UpcomingModules:   []string{"Technical Stack Overview", "Code Review Process"},
	})
	require.NoError(t, err)

	record, err := tracker.CompleteModule(context.Background(), "emp-001", "Company Culture", 90)

	require.NoError(t, err)
	assert.Equal(t, []string{"Company Culture"}, record.CompletedModules)
	assert.Empty(t, record.InProgressModules)
	assert.Equal(t, 33, record.OverallProgress)
	assert.Equal(t, 90, record.TotalLearningTimeMinutes)
}

func TestTracker_CompleteModule_AlreadyCompleted(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)
	tracker.InitializeProgress(context.Background(), "emp-001", agent.UserProfile{Role: "Engineer"})

	_, err := tracker.CompleteModule(context.Background(), "emp-001", "Company Culture", 60)
	require.NoError(t, err)

	record, err := tracker.CompleteModule(context.Background(), "emp-001", "Company Culture", 60)

	require.NoError(t, err)
	assert.Equal(t, []string{"Company Culture"}, record.CompletedModules)
	assert.Equal(t, 60, record.TotalLearningTimeMinutes)
}

func TestTracker_GetAnalyticsSummary(t *testing.T) {
	api := newMemoryRecordsAPI()
	tracker := testTracker(t, api, true)
	tracker.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

	record := Record{
		EmployeeID:               "emp-001",
		StartDate:                "2025-03-01",
		OverallProgress:          40,
		CompletedModules:         []string{"Company Culture", "IT Systems Setup"},
		InProgressModules:        []string{"Role-Specific Training"},
		UpcomingModules:          []string{"Team Collaboration", "Advanced Skills"},
		LastActivityDate:         "2025-03-15",
		TotalLearningTimeMinutes: 180,
	}
	item, err := itemFor(record)
	require.NoError(t, err)
	api.items["emp-001"] = item

	summary := tracker.GetAnalyticsSummary(context.Background(), "emp-001")

	assert.Equal(t, 40.0, summary.OverallMetrics.CompletionRate)
	assert.Equal(t, 2, summary.OverallMetrics.ModulesCompleted)
	assert.Equal(t, 5, summary.OverallMetrics.ModulesTotal)
	assert.Equal(t, 3.0, summary.OverallMetrics.TotalTimeHours)
	assert.Equal(t, ProgressBreakdown{Completed: 2, InProgress: 1, Upcoming: 2}, summary.ProgressBreakdown)
	assert.True(t, summary.Predictions.OnTrack)
	// 2 modules in 14 days, 3 remaining
	assert.Equal(t, 21, summary.Predictions.EstimatedDaysRemaining)
	assert.NotEmpty(t, summary.Recommendations)
}

func TestTracker_GetWeeklyChartData(t *testing.T) {
	tracker := testTracker(t, newMemoryRecordsAPI(), true)

	chart := tracker.GetWeeklyChartData()

	assert.Len(t, chart.Labels, 7)
	assert.Len(t, chart.CompletedModules, 7)
	assert.Len(t, chart.TimeSpentMinutes, 7)
}

func TestTracker_Recommendations(t *testing.T) {
	tracker := testTracker(t, newMemoryRecordsAPI(), true)

	recs := tracker.recommendations(Record{
		OverallProgress:        60,
		LearningStreakDays:     5,
		AssessmentsCompleted:   0,
		VRExperiencesCompleted: 0,
	})

	types := make([]string, 0, len(recs))
	for _, r := range recs {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{"assessment", "vr_training"}, types)
}

// itemFor marshals a record the way the store does, for seeding fakes
func itemFor(record Record) (map[string]ddbtypes.AttributeValue, error) {
	av := map[string]ddbtypes.AttributeValue{
		"employee_id":                 &ddbtypes.AttributeValueMemberS{Value: record.EmployeeID},
		"role":                        &ddbtypes.AttributeValueMemberS{Value: record.Role},
		"department":                  &ddbtypes.AttributeValueMemberS{Value: record.Department},
		"start_date":                  &ddbtypes.AttributeValueMemberS{Value: record.StartDate},
		"overall_progress":            &ddbtypes.AttributeValueMemberN{Value: itoa(record.OverallProgress)},
		"completed_modules":           stringList(record.CompletedModules),
		"in_progress_modules":         stringList(record.InProgressModules),
		"upcoming_modules":            stringList(record.UpcomingModules),
		"assessments_completed":       &ddbtypes.AttributeValueMemberN{Value: itoa(record.AssessmentsCompleted)},
		"vr_experiences_completed":    &ddbtypes.AttributeValueMemberN{Value: itoa(record.VRExperiencesCompleted)},
		"learning_streak_days":        &ddbtypes.AttributeValueMemberN{Value: itoa(record.LearningStreakDays)},
		"last_activity_date":          &ddbtypes.AttributeValueMemberS{Value: record.LastActivityDate},
		"milestones_achieved":         stringList(record.MilestonesAchieved),
		"total_learning_time_minutes": &ddbtypes.AttributeValueMemberN{Value: itoa(record.TotalLearningTimeMinutes)},
	}
	return av, nil
}

func stringList(values []string) ddbtypes.AttributeValue {
	members := make([]ddbtypes.AttributeValue, 0, len(values))
	for _, v := range values {
		members = append(members, &ddbtypes.AttributeValueMemberS{Value: v})
	}
	return &ddbtypes.AttributeValueMemberL{Value: members}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
