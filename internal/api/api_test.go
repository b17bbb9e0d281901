package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/internal/assessment"
	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/internal/content"
	"github.com/easyonboard/easyonboard/internal/progress"
	"github.com/easyonboard/easyonboard/internal/scheduler"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

const testJWTSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		AWS: config.AWSConfig{
			Region:          "us-east-1",
			ContentBucket:   "easyonboard-content",
			ProgressTable:   "onboarding-progress",
			AssessmentTable: "onboarding-assessments",
			MeetingsTable:   "onboarding-meetings",
		},
		Auth: config.AuthConfig{
			JWTSecret:     testJWTSecret,
			JWTExpiration: time.Hour,
		},
		Retry: config.RetryConfig{
			MaxAttempts: 2,
			Delay:       time.Millisecond,
		},
		Features: config.FeatureFlags{
			Assistant:        true,
			ProgressTracking: true,
			EmailAutomation:  true,
			Scheduler:        true,
			VRTraining:       true,
			Voice:            true,
			Documents:        true,
		},
		Logging: config.LoggingConfig{Level: "info"},
		Company: config.CompanyConfig{Name: "TechCorp", AppTitle: "EasyOnboard"},
	}
}

// testRouter wires every service over disabled dependency handles, so
// each endpoint exercises its degradation path without any remote.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	retry := resilience.RetryConfig{MaxAttempts: cfg.Retry.MaxAttempts, Delay: cfg.Retry.Delay}

	down := func(name string) *resilience.Handle {
		return resilience.NewHandle(name, false, func(ctx context.Context) (interface{}, error) {
			t.Fatalf("disabled handle %s must not construct a client", name)
			return nil, nil
		})
	}

	records, err := storage.NewRecordStore(down(awsclients.DependencyRecords), retry, nil)
	require.NoError(t, err)
	objects, err := storage.NewObjectStore(down(awsclients.DependencyObjects), cfg.AWS.ContentBucket, retry, nil)
	require.NoError(t, err)
	orchestrator, err := agent.NewOrchestrator(cfg, down(awsclients.DependencyAssistant), retry, nil)
	require.NoError(t, err)

	deps := Dependencies{
		Handles: map[string]*resilience.Handle{
			awsclients.DependencyAssistant: down(awsclients.DependencyAssistant),
			awsclients.DependencyRecords:   down(awsclients.DependencyRecords),
		},
		Orchestrator: orchestrator,
		Personalizer: agent.NewPersonalizer(),
		Tracker:      progress.NewTracker(records, cfg.AWS.ProgressTable),
		Curator:      content.NewCurator(objects),
		Assessments:  assessment.NewService(records, cfg.AWS.AssessmentTable),
		Scheduler:    scheduler.NewScheduler(records, cfg.AWS.MeetingsTable, "https://meet.techcorp.com"),
	}

	return NewRouter(cfg, deps)
}

func authToken(t *testing.T) string {
	t.Helper()
	claims := JWTClaims{
		EmployeeID: "emp_001",
		Email:      "jordan@techcorp.com",
		Name:       "Jordan",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var envelope APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func dataMap(t *testing.T, envelope APIResponse) map[string]interface{} {
	t.Helper()
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", envelope.Data)
	return data
}

func TestRouter_VersionInfo(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1", nil, "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.True(t, envelope.Success)
	assert.Equal(t, "EasyOnboard", dataMap(t, envelope)["name"])
}

func TestRouter_RequiresAuth(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/content/categories", nil, "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.False(t, envelope.Success)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
}

func TestRouter_RejectsBadToken(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/content/categories", nil, "not-a-token")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/nope", nil, "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.False(t, envelope.Success)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1", nil)
	req.Header.Set("X-Request-ID", "req-123")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, "req-123", recorder.Header().Get("X-Request-ID"))
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "req-123", envelope.RequestID)
}

func TestHealth_ReportsDependencyStates(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, recorder.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.Checks[awsclients.DependencyAssistant].Status)
	assert.Equal(t, "disabled", health.Checks[awsclients.DependencyRecords].Status)
}

func TestChat_DegradedFallback(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/chat", ChatRequest{Message: "How do I set up my laptop?"}, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	data := dataMap(t, decodeEnvelope(t, recorder))
	assert.Equal(t, agent.FallbackReply, data["reply"])
	assert.Equal(t, true, data["degraded"])
	assert.NotEmpty(t, data["session_id"])
}

func TestChat_RequiresMessage(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/chat", map[string]string{}, authToken(t))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestChat_RejectsUnknownQueryType(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/chat/route", RoutedChatRequest{
		Type:    "astrology",
		Message: "What does my sign say about onboarding?",
	}, authToken(t))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLearningPath_ForEngineer(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/learning-path", LearningPathRequest{
		Profile: agent.UserProfile{Role: "engineer", Department: "Engineering"},
	}, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	data := dataMap(t, decodeEnvelope(t, recorder))
	assert.NotEmpty(t, data["learning_path"])
}

func TestContent_Categories(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/content/categories", nil, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Contains(t, envelope.Data, "company_culture")
}

func TestContent_SearchRequiresQuery(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/content/search", nil, authToken(t))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestContent_UnknownCategory(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/content/categories/astrology", nil, authToken(t))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestProgress_DegradedRecord(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/progress/emp_001", nil, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	data := dataMap(t, decodeEnvelope(t, recorder))
	assert.Equal(t, true, data["degraded"])
	assert.Equal(t, float64(45), data["overall_progress"])
}

func TestAssessments_ListForRole(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/assessments?role=engineer", nil, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assessments, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, assessments)
}

func TestAssessments_SubmitScoresWithoutStorage(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/assessments/culture_001/submit", SubmitRequest{
		EmployeeID: "emp_001",
		Answers:    []int{0, 0, 0},
	}, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	data := dataMap(t, decodeEnvelope(t, recorder))
	assert.Equal(t, "culture_001", data["assessment_id"])
	assert.NotZero(t, data["total_questions"])
}

func TestAssessments_SubmitUnknown(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/assessments/nope_001/submit", SubmitRequest{
		EmployeeID: "emp_001",
		Answers:    []int{0},
	}, authToken(t))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestMeetings_DefaultsWhenStoreDown(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/meetings/emp_001", nil, authToken(t))

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	meetings, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, meetings, 3)
}

func TestMeetings_SlotsRequireDate(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/meetings/slots", nil, authToken(t))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMeetings_ScheduleValidation(t *testing.T) {
	router := testRouter(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/meetings", scheduler.ScheduleRequest{
		EmployeeID: "emp_001",
	}, authToken(t))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.False(t, envelope.Success)
}
