package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	AWS       AWSConfig       `json:"aws"`
	Assistant AssistantConfig `json:"assistant"`
	Redis     RedisConfig     `json:"redis"`
	Auth      AuthConfig      `json:"auth"`
	Email     EmailConfig     `json:"email"`
	Retry     RetryConfig     `json:"retry"`
	Features  FeatureFlags    `json:"features"`
	Logging   LoggingConfig   `json:"logging"`
	Company   CompanyConfig   `json:"company"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// AWSConfig contains AWS service configuration
type AWSConfig struct {
	Region          string        `json:"region"`
	ContentBucket   string        `json:"content_bucket"`
	ProgressTable   string        `json:"progress_table"`
	KnowledgeTable  string        `json:"knowledge_table"`
	AssessmentTable string        `json:"assessment_table"`
	MeetingsTable   string        `json:"meetings_table"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	RequestTimeout  time.Duration `json:"request_timeout"`
}

// AssistantConfig contains conversational assistant configuration
type AssistantConfig struct {
	AgentID      string        `json:"agent_id"`
	AgentAliasID string        `json:"agent_alias_id"`
	ReadTimeout  time.Duration `json:"read_timeout"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret     string        `json:"jwt_secret"`
	JWTExpiration time.Duration `json:"jwt_expiration"`
}

// EmailConfig contains notification email configuration
type EmailConfig struct {
	SenderAddress string `json:"sender_address"`
	PortalURL     string `json:"portal_url"`
}

// RetryConfig contains defaults for guarded remote calls
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	Delay       time.Duration `json:"delay"`
}

// FeatureFlags control whether each remote dependency is used at all.
// A disabled dependency is served entirely from the degradation path.
type FeatureFlags struct {
	Assistant        bool `json:"assistant"`
	ProgressTracking bool `json:"progress_tracking"`
	EmailAutomation  bool `json:"email_automation"`
	Scheduler        bool `json:"scheduler"`
	VRTraining       bool `json:"vr_training"`
	Voice            bool `json:"voice"`
	Documents        bool `json:"documents"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// CompanyConfig contains branding used in notifications and the UI
type CompanyConfig struct {
	Name     string `json:"name"`
	AppTitle string `json:"app_title"`
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		AWS: AWSConfig{
			Region:          getEnvString("AWS_REGION", "us-east-1"),
			ContentBucket:   getEnvString("AWS_CONTENT_BUCKET", "easyonboard-content"),
			ProgressTable:   getEnvString("AWS_PROGRESS_TABLE", "onboarding-progress"),
			KnowledgeTable:  getEnvString("AWS_KNOWLEDGE_TABLE", "knowledge-base"),
			AssessmentTable: getEnvString("AWS_ASSESSMENT_TABLE", "onboarding-assessments"),
			MeetingsTable:   getEnvString("AWS_MEETINGS_TABLE", "onboarding-meetings"),
			ConnectTimeout:  getEnvDuration("AWS_CONNECT_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvDuration("AWS_REQUEST_TIMEOUT", 30*time.Second),
		},
		Assistant: AssistantConfig{
			AgentID:      getEnvString("ASSISTANT_AGENT_ID", ""),
			AgentAliasID: getEnvString("ASSISTANT_AGENT_ALIAS_ID", ""),
			ReadTimeout:  getEnvDuration("ASSISTANT_READ_TIMEOUT", 180*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnvString("JWT_SECRET", ""),
			JWTExpiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Email: EmailConfig{
			SenderAddress: getEnvString("EMAIL_SENDER_ADDRESS", "noreply@company.com"),
			PortalURL:     getEnvString("EMAIL_PORTAL_URL", "https://onboarding.company.com"),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvInt("API_RETRY_COUNT", 3),
			Delay:       getEnvDuration("API_RETRY_DELAY", 5*time.Second),
		},
		Features: FeatureFlags{
			Assistant:        getEnvBool("ENABLE_ASSISTANT", true),
			ProgressTracking: getEnvBool("ENABLE_PROGRESS_TRACKING", true),
			EmailAutomation:  getEnvBool("ENABLE_EMAIL_AUTOMATION", true),
			Scheduler:        getEnvBool("ENABLE_SCHEDULER", true),
			VRTraining:       getEnvBool("ENABLE_VR_TRAINING", true),
			Voice:            getEnvBool("ENABLE_VOICE", true),
			Documents:        getEnvBool("ENABLE_DOCUMENTS", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
		Company: CompanyConfig{
			Name:     getEnvString("COMPANY_NAME", "Company"),
			AppTitle: getEnvString("APP_TITLE", "Easy Onboard"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("API_RETRY_COUNT must be at least 1")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Features.Assistant && c.Assistant.AgentID == "" {
		return fmt.Errorf("assistant agent ID is required when the assistant is enabled")
	}

	return nil
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
