package agent

import (
	"fmt"
	"strings"
)

// LearningModule is one unit of an onboarding learning path
type LearningModule struct {
	Name          string `json:"module"`
	DurationHours int    `json:"duration_hours"`
	Priority      string `json:"priority"`
}

// LearningPath is a personalized sequence of modules for one employee
type LearningPath struct {
	Modules             []LearningModule  `json:"learning_path"`
	EstimatedCompletion string            `json:"estimated_completion"`
	Factors             map[string]string `json:"personalization_factors"`
}

// Recommendation is one actionable suggestion for an employee
type Recommendation struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Personalizer builds learning paths and recommendations from the
// employee's role and experience. The catalog is curated, not learned.
type Personalizer struct {
	paths map[string][]LearningModule
}

// NewPersonalizer builds the role-keyed module catalog
func NewPersonalizer() *Personalizer {
	return &Personalizer{
		paths: map[string][]LearningModule{
			"engineer": {
				{Name: "Company Culture", DurationHours: 2, Priority: "high"},
				{Name: "Technical Stack Overview", DurationHours: 4, Priority: "high"},
				{Name: "Development Environment Setup", DurationHours: 3, Priority: "high"},
				{Name: "Code Review Process", DurationHours: 2, Priority: "medium"},
				{Name: "Deployment Procedures", DurationHours: 2, Priority: "medium"},
			},
			"sales": {
				{Name: "Company Culture", DurationHours: 2, Priority: "high"},
				{Name: "Product Knowledge", DurationHours: 4, Priority: "high"},
				{Name: "Sales Process & CRM", DurationHours: 3, Priority: "high"},
				{Name: "Customer Success Stories", DurationHours: 2, Priority: "medium"},
			},
			"marketing": {
				{Name: "Company Culture", DurationHours: 2, Priority: "high"},
				{Name: "Brand Guidelines", DurationHours: 3, Priority: "high"},
				{Name: "Marketing Tools", DurationHours: 2, Priority: "high"},
				{Name: "Campaign Processes", DurationHours: 2, Priority: "medium"},
			},
			"default": {
				{Name: "Company Culture", DurationHours: 2, Priority: "high"},
				{Name: "Company Policies", DurationHours: 1, Priority: "high"},
				{Name: "Team Introduction", DurationHours: 1, Priority: "high"},
				{Name: "Tools & Systems", DurationHours: 2, Priority: "medium"},
			},
		},
	}
}

// CreateLearningPath builds a path for the employee's role, trimming
// introductory modules for senior hires.
func (p *Personalizer) CreateLearningPath(profile UserProfile) LearningPath {
	role := strings.ToLower(profile.Role)
	experience := profile.ExperienceLevel
	if experience == "" {
		experience = "beginner"
	}

	modules, ok := p.paths[role]
	if !ok {
		modules = p.paths["default"]
	}

	if experience == "senior" {
		filtered := make([]LearningModule, 0, len(modules))
		for _, m := range modules {
			if m.Name == "Company Culture" {
				continue
			}
			filtered = append(filtered, m)
		}
		modules = filtered
	}

	path := make([]LearningModule, len(modules))
	copy(path, modules)

	return LearningPath{
		Modules:             path,
		EstimatedCompletion: fmt.Sprintf("%d hours", totalHours(path)),
		Factors: map[string]string{
			"role":       role,
			"experience": experience,
		},
	}
}

// GetRecommendations suggests the next action based on completion rate
func (p *Personalizer) GetRecommendations(completionRate int) []Recommendation {
	switch {
	case completionRate < 30:
		return []Recommendation{{
			Type:    "encouragement",
			Message: "Great start! Keep up the momentum.",
			Action:  "Continue with your current module",
		}}
	case completionRate < 70:
		return []Recommendation{{
			Type:    "milestone",
			Message: "You are halfway there!",
			Action:  "Take a short break and review what you have learned",
		}}
	default:
		return []Recommendation{{
			Type:    "completion",
			Message: "Almost done! You are doing great!",
			Action:  "Prepare for final assessment",
		}}
	}
}

func totalHours(modules []LearningModule) int {
	total := 0
	for _, m := range modules {
		total += m.DurationHours
	}
	return total
}
