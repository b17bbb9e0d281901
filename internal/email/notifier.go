package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/easyonboard/easyonboard/internal/assessment"
	"github.com/easyonboard/easyonboard/internal/awsclients"
	"github.com/easyonboard/easyonboard/internal/progress"
	"github.com/easyonboard/easyonboard/internal/scheduler"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/errors"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// EmailAPI is the slice of the SES client the notifier uses
type EmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Employee identifies a notification recipient
type Employee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SendResult acknowledges a notification attempt. Sent is false when the
// message could not or would not be delivered; Message says why.
type SendResult struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Notifier renders and sends the onboarding notification emails through
// a guarded SES client. Sending never fails the calling workflow: an
// unavailable email service yields a "not sent" acknowledgment.
type Notifier struct {
	guard     *resilience.Guard
	sender    string
	portalURL string
	company   string
}

// NewNotifier wraps the email handle with a guard
func NewNotifier(cfg *config.Config, handle *resilience.Handle, retry resilience.RetryConfig, observer resilience.Observer) (*Notifier, error) {
	guard, err := resilience.NewGuard(handle, resilience.GuardConfig{
		Name:     handle.Name(),
		Retry:    retry,
		Observer: observer,
		Fallback: func(ctx context.Context, operation string) interface{} {
			return SendResult{Sent: false, Message: "email notifications are not available"}
		},
	})
	if err != nil {
		return nil, err
	}

	return &Notifier{
		guard:     guard,
		sender:    cfg.Email.SenderAddress,
		portalURL: cfg.Email.PortalURL,
		company:   cfg.Company.Name,
	}, nil
}

// SendWelcome sends the welcome email to a new employee
func (n *Notifier) SendWelcome(ctx context.Context, employee Employee) SendResult {
	role := employee.Role
	if role == "" {
		role = "Team Member"
	}

	subject := fmt.Sprintf("Welcome to %s, %s!", n.company, employee.Name)
	return n.send(ctx, "welcome", employee.Email, subject, welcomeTemplate, welcomeData{
		CompanyName: n.company,
		Name:        employee.Name,
		Role:        role,
		PortalURL:   n.portalURL,
		HRAddress:   fmt.Sprintf("hr@%s.com", strings.ToLower(n.company)),
	})
}

// SendProgressUpdate sends the progress snapshot email
func (n *Notifier) SendProgressUpdate(ctx context.Context, employee Employee, record progress.Record) SendResult {
	subject := fmt.Sprintf("Your Onboarding Progress - %d%% Complete!", record.OverallProgress)
	return n.send(ctx, "progress_update", employee.Email, subject, progressTemplate, progressData{
		Name:             employee.Name,
		OverallProgress:  record.OverallProgress,
		ModulesCompleted: len(record.CompletedModules),
		StreakDays:       record.LearningStreakDays,
		Assessments:      record.AssessmentsCompleted,
		PortalURL:        n.portalURL,
	})
}

// SendAssessmentReminder nudges the employee toward a pending assessment
func (n *Notifier) SendAssessmentReminder(ctx context.Context, employee Employee, a assessment.Assessment) SendResult {
	subject := fmt.Sprintf("Assessment Ready: %s", a.Name)
	return n.send(ctx, "assessment_reminder", employee.Email, subject, assessmentReminderTemplate, assessmentReminderData{
		Name:            employee.Name,
		AssessmentName:  a.Name,
		DurationMinutes: a.DurationMinutes,
		Questions:       a.Questions,
		PortalURL:       n.portalURL,
	})
}

// SendMeetingReminder reminds the employee about an upcoming meeting
func (n *Notifier) SendMeetingReminder(ctx context.Context, employee Employee, meeting scheduler.Meeting) SendResult {
	location := meeting.Location
	if location == "" {
		location = "Virtual"
	}

	subject := fmt.Sprintf("Reminder: %s - %s", meeting.Title, meeting.Date)
	return n.send(ctx, "meeting_reminder", employee.Email, subject, meetingReminderTemplate, meetingReminderData{
		Name:        employee.Name,
		Title:       meeting.Title,
		Date:        meeting.Date,
		Time:        meeting.Time,
		Duration:    meeting.Duration,
		Location:    location,
		MeetingLink: meeting.MeetingLink,
	})
}

func (n *Notifier) send(ctx context.Context, kind, recipient, subject string, tmpl *template.Template, data interface{}) SendResult {
	result := n.guard.Do(ctx, "send_"+kind, func(ctx context.Context, client interface{}) (interface{}, error) {
		if recipient == "" {
			return nil, errors.NewValidationError("recipient email is required")
		}

		var body bytes.Buffer
		if err := tmpl.Execute(&body, data); err != nil {
			return nil, errors.NewInternalError("failed to render email template").WithCause(err)
		}

		api := client.(EmailAPI)
		charset := "UTF-8"
		html := body.String()
		out, callErr := api.SendEmail(ctx, &sesv2.SendEmailInput{
			FromEmailAddress: &n.sender,
			Destination: &sestypes.Destination{
				ToAddresses: []string{recipient},
			},
			Content: &sestypes.EmailContent{
				Simple: &sestypes.Message{
					Subject: &sestypes.Content{Data: &subject, Charset: &charset},
					Body: &sestypes.Body{
						Html: &sestypes.Content{Data: &html, Charset: &charset},
					},
				},
			},
		})
		if callErr != nil {
			return nil, awsclients.Classify(awsclients.DependencyEmail, callErr)
		}

		messageID := ""
		if out.MessageId != nil {
			messageID = *out.MessageId
		}
		return SendResult{Sent: true, MessageID: messageID}, nil
	})

	if !result.Succeeded {
		return SendResult{Sent: false, Message: result.UserMessage}
	}
	return result.Payload.(SendResult)
}
