package email

import "html/template"

// Template data for the notification emails. Rendering uses
// html/template so employee-provided values are escaped.

type welcomeData struct {
	CompanyName string
	Name        string
	Role        string
	PortalURL   string
	HRAddress   string
}

type progressData struct {
	Name             string
	OverallProgress  int
	ModulesCompleted int
	StreakDays       int
	Assessments      int
	PortalURL        string
}

type assessmentReminderData struct {
	Name            string
	AssessmentName  string
	DurationMinutes int
	Questions       int
	PortalURL       string
}

type meetingReminderData struct {
	Name        string
	Title       string
	Date        string
	Time        string
	Duration    string
	Location    string
	MeetingLink string
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; }
.header { background: #2c6bed; color: white; padding: 20px; text-align: center; }
.content { padding: 20px; }
.button { background: #2c6bed; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block; }
</style>
</head>
<body>
<div class="header"><h1>Welcome to {{.CompanyName}}!</h1></div>
<div class="content">
<p>Dear {{.Name}},</p>
<p>We're thrilled to have you join our team as a {{.Role}}!
Your journey with us begins today, and we're excited to support you every step of the way.</p>
<h3>Get Started:</h3>
<ul>
<li>Access your onboarding assistant</li>
<li>Complete your personalized learning path</li>
<li>Experience our VR training modules</li>
<li>Connect with your mentor and team</li>
</ul>
<p style="text-align: center; margin: 30px 0;">
<a href="{{.PortalURL}}" class="button">Launch Your Onboarding</a>
</p>
<p>If you have any questions, our assistant is available 24/7, or you can reach out to {{.HRAddress}}</p>
<p>Welcome aboard!<br>The {{.CompanyName}} Team</p>
</div>
</body>
</html>`))

var progressTemplate = template.Must(template.New("progress").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2>Great Progress, {{.Name}}!</h2>
<p>You're <strong>{{.OverallProgress}}%</strong> through your onboarding journey!</p>
<h3>Your Stats:</h3>
<ul>
<li>Modules Completed: {{.ModulesCompleted}}</li>
<li>Learning Streak: {{.StreakDays}} days</li>
<li>Assessments Passed: {{.Assessments}}</li>
</ul>
<h3>Next Steps:</h3>
<ul>
<li>Continue with your current module</li>
<li>Try a VR training session</li>
<li>Schedule time with your mentor</li>
</ul>
<p><a href="{{.PortalURL}}">Continue Your Journey</a></p>
</body>
</html>`))

var assessmentReminderTemplate = template.Must(template.New("assessment_reminder").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2>Time to Test Your Knowledge!</h2>
<p>Hi {{.Name}},</p>
<p>You're ready to take the <strong>{{.AssessmentName}}</strong> assessment.</p>
<p><strong>Details:</strong></p>
<ul>
<li>Duration: {{.DurationMinutes}} min</li>
<li>Questions: {{.Questions}}</li>
<li>Passing Score: 70%</li>
</ul>
<p><a href="{{.PortalURL}}/assessments">Start Assessment</a></p>
</body>
</html>`))

var meetingReminderTemplate = template.Must(template.New("meeting_reminder").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<h2>Meeting Reminder</h2>
<p>Hi {{.Name}},</p>
<p>This is a reminder about your upcoming meeting:</p>
<p><strong>{{.Title}}</strong><br>
{{.Date}} at {{.Time}}<br>
Duration: {{.Duration}}<br>
Location: {{.Location}}</p>
{{if .MeetingLink}}<p><a href="{{.MeetingLink}}">Join Meeting</a></p>{{end}}
<p>Looking forward to seeing you!</p>
</body>
</html>`))
