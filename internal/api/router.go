package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/agent"
	"github.com/easyonboard/easyonboard/internal/assessment"
	"github.com/easyonboard/easyonboard/internal/content"
	"github.com/easyonboard/easyonboard/internal/docs"
	"github.com/easyonboard/easyonboard/internal/email"
	"github.com/easyonboard/easyonboard/internal/progress"
	"github.com/easyonboard/easyonboard/internal/queue"
	"github.com/easyonboard/easyonboard/internal/scheduler"
	"github.com/easyonboard/easyonboard/internal/voice"
	"github.com/easyonboard/easyonboard/internal/vr"
	"github.com/easyonboard/easyonboard/pkg/config"
	"github.com/easyonboard/easyonboard/pkg/metrics"
	"github.com/easyonboard/easyonboard/pkg/resilience"
	"github.com/easyonboard/easyonboard/pkg/tracing"
)

// Dependencies carries everything the router wires into handlers.
// Optional services may be nil; their routes are simply not registered.
type Dependencies struct {
	Handles map[string]*resilience.Handle
	Redis   *queue.RedisClient
	Jobs    *queue.Queue
	Metrics *metrics.Metrics
	Tracing *tracing.TracingService

	Orchestrator *agent.Orchestrator
	Personalizer *agent.Personalizer
	Tracker      *progress.Tracker
	Curator      *content.Curator
	Assessments  *assessment.Service
	Scheduler    *scheduler.Scheduler
	VR           *vr.Engine
	Voice        *voice.Service
	Notifier     *email.Notifier
	Documents    *docs.Processor
}

// NewRouter creates the HTTP router with all middleware and routes
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(ErrorHandlingMiddleware())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(SecurityHeadersMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.PrometheusMiddleware())
	}
	if deps.Tracing != nil {
		router.Use(deps.Tracing.TracingMiddleware())
	}

	health := NewHealthHandler(deps.Handles, deps.Redis, deps.Metrics)
	router.GET("/health", health.Handle)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.GET("", func(c *gin.Context) {
		SuccessResponse(c, gin.H{
			"name":    cfg.Company.AppTitle,
			"version": "1.0.0",
		})
	})

	protected := v1.Group("")
	protected.Use(AuthMiddleware(cfg))
	protected.Use(RateLimitMiddleware(deps.Redis))

	if deps.Orchestrator != nil {
		chat := NewChatHandler(deps.Orchestrator, deps.Personalizer, deps.Metrics)
		protected.POST("/chat", chat.Ask)
		protected.POST("/chat/personalized", chat.AskPersonalized)
		protected.POST("/chat/route", chat.Route)
		protected.POST("/learning-path", chat.LearningPath)
		protected.GET("/recommendations", chat.Recommendations)
	}

	if deps.Tracker != nil {
		prog := NewProgressHandler(deps.Tracker)
		protected.POST("/progress", prog.Initialize)
		protected.GET("/progress/:employee_id", prog.Get)
		protected.POST("/progress/:employee_id/modules", prog.CompleteModule)
		protected.GET("/progress/:employee_id/analytics", prog.Analytics)
		protected.GET("/progress/:employee_id/weekly-chart", prog.WeeklyChart)
	}

	if deps.Curator != nil {
		cont := NewContentHandler(deps.Curator)
		protected.GET("/content/categories", cont.Categories)
		protected.GET("/content/categories/:category", cont.Category)
		protected.GET("/content/search", cont.Search)
		protected.GET("/content/recommended", cont.Recommended)
		protected.GET("/content/stored", cont.Stored)
		protected.GET("/content/stats", cont.Stats)
	}

	if deps.Assessments != nil {
		assess := NewAssessmentsHandler(deps.Assessments, deps.Metrics)
		protected.GET("/assessments", assess.List)
		protected.GET("/assessments/:assessment_id/questions", assess.Questions)
		protected.POST("/assessments/:assessment_id/submit", assess.Submit)
		protected.GET("/assessments/history/:employee_id", assess.History)
	}

	if deps.Scheduler != nil && cfg.Features.Scheduler {
		meetings := NewMeetingsHandler(deps.Scheduler)
		protected.GET("/meetings/slots", meetings.Slots)
		protected.POST("/meetings/suggest", meetings.Suggest)
		protected.GET("/meetings/:employee_id", meetings.Upcoming)
		protected.POST("/meetings", meetings.Schedule)
		protected.PUT("/meetings/:employee_id/:meeting_id", meetings.Reschedule)
		protected.DELETE("/meetings/:employee_id/:meeting_id", meetings.Cancel)
	}

	if deps.VR != nil && cfg.Features.VRTraining {
		vrh := NewVRHandler(deps.VR)
		protected.GET("/vr/experiences", vrh.Experiences)
		protected.GET("/vr/experiences/:experience_id", vrh.Experience)
		protected.POST("/vr/sessions", vrh.Launch)
		protected.PUT("/vr/sessions/:session_id/progress", vrh.Track)
		protected.POST("/vr/sessions/:session_id/complete", vrh.Complete)
		protected.GET("/vr/statistics/:employee_id", vrh.Statistics)
	}

	if deps.Voice != nil && cfg.Features.Voice {
		vh := NewVoiceHandler(deps.Voice)
		protected.POST("/voice/transcribe", vh.Transcribe)
		protected.POST("/voice/synthesize", vh.Synthesize)
	}

	if deps.Notifier != nil && cfg.Features.EmailAutomation {
		notif := NewNotificationsHandler(deps.Notifier, deps.Tracker, deps.Assessments, deps.Scheduler, deps.Metrics)
		protected.POST("/notifications/welcome", notif.Welcome)
		protected.POST("/notifications/progress", notif.Progress)
		protected.POST("/notifications/assessment", notif.Assessment)
		protected.POST("/notifications/meeting", notif.Meeting)
	}

	if deps.Documents != nil && cfg.Features.Documents {
		documents := NewDocumentsHandler(deps.Documents, deps.Jobs, deps.Metrics)
		protected.POST("/documents", documents.Ingest)
		protected.GET("/documents", documents.List)
		protected.GET("/documents/jobs/:job_id", documents.Job)
		protected.GET("/documents/:document_id", documents.Get)
	}

	router.NoRoute(func(c *gin.Context) {
		NotFoundResponse(c, "The requested resource was not found")
	})

	return router
}
