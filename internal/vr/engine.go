package vr

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/easyonboard/easyonboard/internal/progress"
	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

const (
	StatusAvailable  = "available"
	StatusComingSoon = "coming_soon"
)

// Experience is one immersive training experience in the catalog
type Experience struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Difficulty  string   `json:"difficulty"`
	Type        string   `json:"type"`
	Features    []string `json:"features"`
	Status      string   `json:"status"`
}

// Session is one employee's run through an experience
type Session struct {
	ID            string            `json:"session_id"`
	ExperienceID  string            `json:"experience_id"`
	EmployeeID    string            `json:"employee_id"`
	Status        string            `json:"status"`
	StartedAt     string            `json:"started_at"`
	ExperienceURL string            `json:"experience_url"`
	Controls      map[string]string `json:"controls"`
	Instructions  []string          `json:"instructions"`
	Progress      int               `json:"progress"`
	Score         int               `json:"score,omitempty"`
	CompletedAt   string            `json:"completed_at,omitempty"`
}

// LaunchResult bundles a new session with its experience
type LaunchResult struct {
	Session    Session    `json:"session"`
	Experience Experience `json:"experience"`
}

// Completion reports how a session ended
type Completion struct {
	Score            int `json:"score"`
	TimeSpentMinutes int `json:"time_spent_minutes"`
}

// Certificate acknowledges a completed experience
type Certificate struct {
	ID          string `json:"certificate_id"`
	Achievement string `json:"achievement"`
	ObjectKey   string `json:"object_key,omitempty"`
}

// CompletionResult is returned when a session is completed
type CompletionResult struct {
	SessionID   string      `json:"session_id"`
	CompletedAt string      `json:"completed_at"`
	Score       int         `json:"score"`
	Certificate Certificate `json:"certificate"`
}

// Statistics summarizes an employee's VR training activity
type Statistics struct {
	TotalExperiences     int      `json:"total_experiences"`
	CompletedExperiences int      `json:"completed_experiences"`
	TotalTimeMinutes     int      `json:"total_time_minutes"`
	AverageScore         int      `json:"average_score"`
	Achievements         []string `json:"achievements"`
}

// Engine manages the VR/AR training experiences. Sessions live in
// memory for their duration; completions flow into the progress record
// and leave a certificate PDF in the content bucket.
type Engine struct {
	objects *storage.ObjectStore
	tracker *progress.Tracker
	baseURL string
	logger  *logging.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewEngine creates a VR training engine
func NewEngine(objects *storage.ObjectStore, tracker *progress.Tracker, experienceBaseURL string) *Engine {
	return &Engine{
		objects:  objects,
		tracker:  tracker,
		baseURL:  experienceBaseURL,
		logger:   logging.GetLogger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// ListExperiences returns the experience catalog
func (e *Engine) ListExperiences() []Experience {
	out := make([]Experience, len(catalog))
	copy(out, catalog)
	return out
}

// GetExperience looks up one experience by id
func (e *Engine) GetExperience(experienceID string) (Experience, bool) {
	for _, exp := range catalog {
		if exp.ID == experienceID {
			return exp, true
		}
	}
	return Experience{}, false
}

// Launch starts a session for an available experience
func (e *Engine) Launch(ctx context.Context, employeeID, experienceID string) (LaunchResult, error) {
	experience, ok := e.GetExperience(experienceID)
	if !ok {
		return LaunchResult{}, errors.NewNotFoundError("experience")
	}
	if experience.Status != StatusAvailable {
		return LaunchResult{}, errors.NewConflictError(fmt.Sprintf("experience is %s", experience.Status))
	}

	session := Session{
		ID:            "vrs_" + uuid.NewString(),
		ExperienceID:  experienceID,
		EmployeeID:    employeeID,
		Status:        "active",
		StartedAt:     e.now().UTC().Format(time.RFC3339),
		ExperienceURL: fmt.Sprintf("%s/experience/%s", e.baseURL, experienceID),
		Controls:      controlsFor(experience.Type),
		Instructions:  instructionsFor(experience.Type),
	}

	e.mu.Lock()
	e.sessions[session.ID] = &session
	e.mu.Unlock()

	e.logger.Info("VR session launched",
		"session_id", session.ID,
		"experience_id", experienceID,
		"employee_id", employeeID,
	)
	return LaunchResult{Session: session, Experience: experience}, nil
}

// TrackProgress records how far through an experience a session is
func (e *Engine) TrackProgress(ctx context.Context, sessionID string, percent int) (Session, error) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok {
		return Session{}, errors.NewNotFoundError("session")
	}
	session.Progress = percent
	return *session, nil
}

// Complete marks a session finished, issues a certificate, and rolls
// the completion into the employee's progress record. Storage failures
// never fail the completion.
func (e *Engine) Complete(ctx context.Context, sessionID string, completion Completion) (CompletionResult, error) {
	e.mu.Lock()
	session, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return CompletionResult{}, errors.NewNotFoundError("session")
	}

	score := completion.Score
	if score == 0 {
		score = 100
	}

	completedAt := e.now().UTC().Format(time.RFC3339)
	session.Status = "completed"
	session.Progress = 100
	session.Score = score
	session.CompletedAt = completedAt
	snapshot := *session
	e.mu.Unlock()

	certificate := Certificate{
		ID:          fmt.Sprintf("VR_CERT_%s", sessionID),
		Achievement: "VR Training Completed",
	}

	experience, _ := e.GetExperience(snapshot.ExperienceID)
	pdf, err := e.renderCertificate(snapshot, experience, certificate.ID)
	if err != nil {
		e.logger.LogError(ctx, err, "Failed to render VR certificate", map[string]interface{}{
			"session_id": sessionID,
		})
	} else {
		key := fmt.Sprintf("certificates/%s.pdf", certificate.ID)
		if err := e.objects.PutObject(ctx, key, pdf, "application/pdf"); err != nil {
			e.logger.LogError(ctx, err, "Failed to store VR certificate", map[string]interface{}{
				"session_id": sessionID,
			})
		} else {
			certificate.ObjectKey = key
		}
	}

	e.recordCompletion(ctx, snapshot.EmployeeID, completion.TimeSpentMinutes)

	return CompletionResult{
		SessionID:   sessionID,
		CompletedAt: completedAt,
		Score:       score,
		Certificate: certificate,
	}, nil
}

// GetStatistics summarizes an employee's VR activity from the progress
// record and any sessions completed this process
func (e *Engine) GetStatistics(ctx context.Context, employeeID string) Statistics {
	record, _ := e.tracker.GetProgress(ctx, employeeID)

	totalScore := 0
	scored := 0
	timeSpent := 0

	e.mu.Lock()
	for _, session := range e.sessions {
		if session.EmployeeID != employeeID || session.Status != "completed" {
			continue
		}
		totalScore += session.Score
		scored++
	}
	e.mu.Unlock()

	average := 0
	if scored > 0 {
		average = totalScore / scored
	}
	timeSpent = record.TotalLearningTimeMinutes

	available := 0
	for _, exp := range catalog {
		if exp.Status == StatusAvailable {
			available++
		}
	}

	return Statistics{
		TotalExperiences:     available,
		CompletedExperiences: record.VRExperiencesCompleted,
		TotalTimeMinutes:     timeSpent,
		AverageScore:         average,
		Achievements:         achievementsFor(record),
	}
}

func (e *Engine) recordCompletion(ctx context.Context, employeeID string, timeSpentMinutes int) {
	record, degraded := e.tracker.GetProgress(ctx, employeeID)
	if degraded {
		e.logger.Warn("Skipping progress update for VR completion", "employee_id", employeeID)
		return
	}

	completed := record.VRExperiencesCompleted + 1
	total := record.TotalLearningTimeMinutes + timeSpentMinutes
	if _, err := e.tracker.UpdateProgress(ctx, employeeID, progress.Update{
		VRExperiencesCompleted:   &completed,
		TotalLearningTimeMinutes: &total,
	}); err != nil {
		e.logger.LogError(ctx, err, "Failed to record VR completion", map[string]interface{}{
			"employee_id": employeeID,
		})
	}
}

func (e *Engine) renderCertificate(session Session, experience Experience, certificateID string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 40, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 14, session.EmployeeID, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "has completed the immersive training experience", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, experience.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Score: %d", session.Score), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Completed: %s", session.CompletedAt), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Certificate ID: %s", certificateID), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate certificate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func achievementsFor(record progress.Record) []string {
	var achievements []string
	if record.VRExperiencesCompleted >= 1 {
		achievements = append(achievements, "VR Explorer")
	}
	if record.VRExperiencesCompleted >= 3 {
		achievements = append(achievements, "Quick Learner")
	}
	if record.LearningStreakDays >= 7 {
		achievements = append(achievements, "Team Player")
	}
	return achievements
}

func controlsFor(experienceType string) map[string]string {
	if experienceType == "ar" {
		return map[string]string{
			"movement":    "Move your phone to look around",
			"interaction": "Tap on AR markers",
			"menu":        "Tap menu icon",
			"capture":     "Tap camera icon to capture",
		}
	}
	return map[string]string{
		"movement":    "Use joystick or WASD keys",
		"interaction": "Point and click with controller or mouse",
		"menu":        "Press Menu button or ESC key",
		"reset_view":  "Press Reset View button",
	}
}

func instructionsFor(experienceType string) []string {
	if experienceType == "ar" {
		return []string{
			"Open this experience on your mobile device",
			"Grant camera permissions",
			"Point camera at AR markers in your workspace",
			"Follow interactive instructions",
			"Tap objects for more information",
		}
	}
	return []string{
		"Put on your VR headset (or use desktop mode)",
		"Adjust fit and ensure clear vision",
		"Follow the on-screen tutorial",
		"Use controllers or keyboard/mouse for interaction",
		"Take breaks every 20 minutes",
	}
}

var catalog = []Experience{
	{
		ID:          "vr_office_tour",
		Title:       "Virtual Office Tour",
		Description: "Take a virtual tour of our office and meet your team",
		Duration:    "20 minutes",
		Difficulty:  "beginner",
		Type:        "vr",
		Features: []string{
			"Interactive 360 office views",
			"Meet team members virtually",
			"Explore facilities and amenities",
			"Learn office navigation",
		},
		Status: StatusAvailable,
	},
	{
		ID:          "vr_equipment_training",
		Title:       "Equipment Training",
		Description: "Hands-on training with company equipment in VR",
		Duration:    "30 minutes",
		Difficulty:  "intermediate",
		Type:        "vr",
		Features: []string{
			"Safe practice environment",
			"Step-by-step guidance",
			"Interactive troubleshooting",
			"Performance tracking",
		},
		Status: StatusAvailable,
	},
	{
		ID:          "vr_team_meeting",
		Title:       "Virtual Team Meeting",
		Description: "Join your team in a virtual meeting space",
		Duration:    "45 minutes",
		Difficulty:  "beginner",
		Type:        "vr",
		Features: []string{
			"Collaborative virtual space",
			"Real-time interaction",
			"Presentation sharing",
			"Social networking",
		},
		Status: StatusAvailable,
	},
	{
		ID:          "ar_workspace_guide",
		Title:       "AR Workspace Guide",
		Description: "Augmented reality guide to your workspace",
		Duration:    "15 minutes",
		Difficulty:  "beginner",
		Type:        "ar",
		Features: []string{
			"Phone-based AR",
			"Interactive labels",
			"Safety information",
			"Quick reference guides",
		},
		Status: StatusAvailable,
	},
	{
		ID:          "vr_customer_simulation",
		Title:       "Customer Interaction Simulation",
		Description: "Practice customer interactions in realistic scenarios",
		Duration:    "40 minutes",
		Difficulty:  "advanced",
		Type:        "vr",
		Features: []string{
			"AI-driven customer responses",
			"Multiple scenarios",
			"Performance feedback",
			"Best practice demonstrations",
		},
		Status: StatusComingSoon,
	},
}
