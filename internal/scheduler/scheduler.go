package scheduler

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/easyonboard/easyonboard/internal/storage"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/logging"
)

const dateLayout = "2006-01-02"

// Meeting is one scheduled onboarding meeting
type Meeting struct {
	ID          string   `json:"id" dynamodbav:"meeting_id"`
	EmployeeID  string   `json:"employee_id" dynamodbav:"employee_id"`
	Title       string   `json:"title" dynamodbav:"title"`
	Date        string   `json:"date" dynamodbav:"date"`
	Time        string   `json:"time" dynamodbav:"time"`
	Duration    string   `json:"duration" dynamodbav:"duration"`
	Attendees   []string `json:"attendees" dynamodbav:"attendees"`
	Location    string   `json:"location" dynamodbav:"location"`
	Type        string   `json:"type" dynamodbav:"type"`
	Status      string   `json:"status" dynamodbav:"status"`
	CreatedAt   string   `json:"created_at" dynamodbav:"created_at"`
	MeetingLink string   `json:"meeting_link" dynamodbav:"meeting_link"`
}

// ScheduleRequest carries the fields needed to schedule a meeting
type ScheduleRequest struct {
	EmployeeID string   `json:"employee_id"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Duration   string   `json:"duration"`
	Attendees  []string `json:"attendees"`
	Location   string   `json:"location"`
	Type       string   `json:"type"`
}

// TimeSlot is one bookable slot on a day
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DaySuggestion lists up to three open times on one day
type DaySuggestion struct {
	Date           string   `json:"date"`
	DayName        string   `json:"day_name"`
	AvailableTimes []string `json:"available_times"`
}

// Scheduler manages onboarding meetings. Suggestions simply take the
// first open slots per day; there is no attendee calendar negotiation.
type Scheduler struct {
	records *storage.RecordStore
	table   string
	baseURL string
	logger  *logging.Logger
	now     func() time.Time
}

// NewScheduler creates a scheduler over the given record store
func NewScheduler(records *storage.RecordStore, table, meetingBaseURL string) *Scheduler {
	return &Scheduler{
		records: records,
		table:   table,
		baseURL: meetingBaseURL,
		logger:  logging.GetLogger(),
		now:     time.Now,
	}
}

// GetUpcomingMeetings returns the employee's scheduled meetings. When
// none are stored (or the store is unavailable) the standard onboarding
// meetings are returned instead.
func (s *Scheduler) GetUpcomingMeetings(ctx context.Context, employeeID string) []Meeting {
	var meetings []Meeting
	err := s.records.QueryRecords(ctx, &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: aws.String("employee_id = :id"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":id": &ddbtypes.AttributeValueMemberS{Value: employeeID},
		},
	}, &meetings)
	if err != nil {
		s.logger.LogError(ctx, err, "Serving default meeting schedule", map[string]interface{}{
			"employee_id": employeeID,
		})
		return s.defaultMeetings(employeeID)
	}
	if len(meetings) == 0 {
		return s.defaultMeetings(employeeID)
	}
	return meetings
}

// ScheduleMeeting validates the request, assigns an id and meeting
// link, and persists the meeting when the record store is available.
func (s *Scheduler) ScheduleMeeting(ctx context.Context, req ScheduleRequest) (Meeting, error) {
	switch {
	case req.Title == "":
		return Meeting{}, errors.NewValidationError("missing required field: title")
	case req.Date == "":
		return Meeting{}, errors.NewValidationError("missing required field: date")
	case req.Time == "":
		return Meeting{}, errors.NewValidationError("missing required field: time")
	case req.Duration == "":
		return Meeting{}, errors.NewValidationError("missing required field: duration")
	case len(req.Attendees) == 0:
		return Meeting{}, errors.NewValidationError("missing required field: attendees")
	}

	location := req.Location
	if location == "" {
		location = "Virtual"
	}
	meetingType := req.Type
	if meetingType == "" {
		meetingType = "general"
	}

	id := "meet_" + uuid.NewString()
	meeting := Meeting{
		ID:          id,
		EmployeeID:  req.EmployeeID,
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Duration:    req.Duration,
		Attendees:   req.Attendees,
		Location:    location,
		Type:        meetingType,
		Status:      "scheduled",
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
		MeetingLink: s.baseURL + "/" + id,
	}

	if err := s.records.PutRecord(ctx, s.table, meeting); err != nil {
		s.logger.LogError(ctx, err, "Failed to persist meeting", map[string]interface{}{
			"meeting_id": id,
		})
	}

	return meeting, nil
}

// RescheduleMeeting moves a meeting to a new date and time
func (s *Scheduler) RescheduleMeeting(ctx context.Context, employeeID, meetingID, newDate, newTime string) (Meeting, error) {
	if newDate == "" || newTime == "" {
		return Meeting{}, errors.NewValidationError("new date and time are required")
	}

	var meeting Meeting
	found, err := s.records.GetRecord(ctx, s.table, meetingKey(employeeID, meetingID), &meeting)
	if err != nil {
		return Meeting{}, err
	}
	if !found {
		return Meeting{}, errors.NewNotFoundError("meeting")
	}

	meeting.Date = newDate
	meeting.Time = newTime
	meeting.Status = "scheduled"

	if err := s.records.PutRecord(ctx, s.table, meeting); err != nil {
		return Meeting{}, err
	}
	return meeting, nil
}

// CancelMeeting marks a meeting cancelled
func (s *Scheduler) CancelMeeting(ctx context.Context, employeeID, meetingID string) (Meeting, error) {
	var meeting Meeting
	found, err := s.records.GetRecord(ctx, s.table, meetingKey(employeeID, meetingID), &meeting)
	if err != nil {
		return Meeting{}, err
	}
	if !found {
		return Meeting{}, errors.NewNotFoundError("meeting")
	}

	meeting.Status = "cancelled"
	if err := s.records.PutRecord(ctx, s.table, meeting); err != nil {
		return Meeting{}, err
	}
	return meeting, nil
}

// GetAvailableTimeSlots returns the open slots for a date
func (s *Scheduler) GetAvailableTimeSlots(date string, durationMinutes int) []TimeSlot {
	// fixed availability grid; there is no calendar backend to consult
	slots := []TimeSlot{
		{Time: "9:00 AM", Available: true},
		{Time: "10:00 AM", Available: false},
		{Time: "11:00 AM", Available: true},
		{Time: "1:00 PM", Available: true},
		{Time: "2:00 PM", Available: true},
		{Time: "3:00 PM", Available: false},
		{Time: "4:00 PM", Available: true},
	}

	open := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Available {
			open = append(open, slot)
		}
	}
	return open
}

// SuggestMeetingTimes proposes the first open slots over the coming
// days. It does not weigh attendee calendars against each other.
func (s *Scheduler) SuggestMeetingTimes(attendees []string, durationMinutes, preferredDays int) []DaySuggestion {
	if preferredDays <= 0 {
		preferredDays = 7
	}

	var suggestions []DaySuggestion
	today := s.now()

	for i := 1; i <= preferredDays; i++ {
		day := today.AddDate(0, 0, i)
		slots := s.GetAvailableTimeSlots(day.Format(dateLayout), durationMinutes)
		if len(slots) == 0 {
			continue
		}

		times := make([]string, 0, 3)
		for _, slot := range slots {
			times = append(times, slot.Time)
			if len(times) == 3 {
				break
			}
		}

		suggestions = append(suggestions, DaySuggestion{
			Date:           day.Format(dateLayout),
			DayName:        day.Weekday().String(),
			AvailableTimes: times,
		})
		if len(suggestions) == 5 {
			break
		}
	}

	return suggestions
}

// defaultMeetings is the standard onboarding schedule for a new hire
func (s *Scheduler) defaultMeetings(employeeID string) []Meeting {
	today := s.now()

	return []Meeting{
		{
			ID:          "meet_001",
			EmployeeID:  employeeID,
			Title:       "Welcome Meeting with Manager",
			Date:        today.AddDate(0, 0, 1).Format(dateLayout),
			Time:        "10:00 AM",
			Duration:    "60 minutes",
			Attendees:   []string{"Manager", "HR Representative"},
			Location:    "Conference Room A",
			Type:        "onboarding",
			Status:      "scheduled",
			MeetingLink: s.baseURL + "/abc123",
		},
		{
			ID:          "meet_002",
			EmployeeID:  employeeID,
			Title:       "Team Introduction",
			Date:        today.AddDate(0, 0, 2).Format(dateLayout),
			Time:        "2:00 PM",
			Duration:    "45 minutes",
			Attendees:   []string{"Team Members"},
			Location:    "Virtual",
			Type:        "team_building",
			Status:      "scheduled",
			MeetingLink: s.baseURL + "/xyz789",
		},
		{
			ID:         "meet_003",
			EmployeeID: employeeID,
			Title:      "Technical Onboarding Session",
			Date:       today.AddDate(0, 0, 3).Format(dateLayout),
			Time:       "11:00 AM",
			Duration:   "90 minutes",
			Attendees:  []string{"Tech Lead", "Senior Engineer"},
			Location:   "Training Room",
			Type:       "training",
			Status:     "scheduled",
		},
	}
}

func meetingKey(employeeID, meetingID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"employee_id": &ddbtypes.AttributeValueMemberS{Value: employeeID},
		"meeting_id":  &ddbtypes.AttributeValueMemberS{Value: meetingID},
	}
}
