package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading/llm"
)

// Mode selects the grading path. ModeOffline never calls the external grader,
// even when one is configured.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `envconfig:"MODE" default:"online"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogMode  string `envconfig:"LOG_MODE" default:"dev"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres|memory
	DBDSN    string `envconfig:"DB_DSN"`

	AuthHMACSecret string        `envconfig:"AUTH_HMAC_SECRET" default:"dev-secret-change-me"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"8h"`

	AdminUser     string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPassHash string `envconfig:"ADMIN_PASS_HASH" default:"$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"` // bcrypt

	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	GradingChunkThreshold int           `envconfig:"GRADING_CHUNK_THRESHOLD" default:"3000"`
	GradingConcurrency    int           `envconfig:"GRADING_CONCURRENCY" default:"1"`
	GradingTimeout        time.Duration `envconfig:"GRADING_TIMEOUT" default:"60s"`

	// External grader; URL or key left empty means heuristic-only grading.
	ExternalGraderURL        string        `envconfig:"EXTERNAL_GRADER_URL"`
	ExternalGraderAPIKey     string        `envconfig:"EXTERNAL_GRADER_API_KEY"`
	ExternalGraderModel      string        `envconfig:"EXTERNAL_GRADER_MODEL" default:"gpt-4o-mini"`
	ExternalGraderTimeout    time.Duration `envconfig:"EXTERNAL_GRADER_TIMEOUT" default:"45s"`
	ExternalGraderMaxRetries int           `envconfig:"EXTERNAL_GRADER_MAX_RETRIES" default:"2"`

	StaleGradingAfter time.Duration `envconfig:"STALE_GRADING_AFTER" default:"10m"`
	SweepSchedule     string        `envconfig:"SWEEP_SCHEDULE" default:"@every 1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	if c.Mode != ModeOffline && c.Mode != ModeOnline {
		return nil, fmt.Errorf("MODE must be %q or %q, got %q", ModeOffline, ModeOnline, c.Mode)
	}
	return &c, nil
}

// CORSOriginList splits CORS_ORIGINS on commas.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExternalGraderEnabled reports whether grading may call the external grader:
// online mode with both a URL and an API key set.
func (c *Config) ExternalGraderEnabled() bool {
	return c.Mode == ModeOnline &&
		strings.TrimSpace(c.ExternalGraderURL) != "" && strings.TrimSpace(c.ExternalGraderAPIKey) != ""
}

func (c *Config) LLM() llm.Config {
	return llm.Config{
		BaseURL:    c.ExternalGraderURL,
		APIKey:     c.ExternalGraderAPIKey,
		Model:      c.ExternalGraderModel,
		Timeout:    c.ExternalGraderTimeout,
		MaxRetries: c.ExternalGraderMaxRetries,
	}
}

// GradingOptions converts the grading settings into engine options. The
// external grader is wired separately since building it can fail.
func (c *Config) GradingOptions() []grading.Option {
	return []grading.Option{
		grading.WithChunkThreshold(c.GradingChunkThreshold),
		grading.WithConcurrency(c.GradingConcurrency),
	}
}
