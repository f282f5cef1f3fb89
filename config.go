package coldmail

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sensiq/coldmail/internal/assets"
	"github.com/sensiq/coldmail/internal/llm"
	"github.com/sensiq/coldmail/internal/vector"
	"github.com/sensiq/coldmail/pkg/db"
	"github.com/sensiq/coldmail/pkg/logger"
	"github.com/sensiq/coldmail/pkg/mailer"
	"github.com/sensiq/coldmail/pkg/mailer/resend"
	"github.com/sensiq/coldmail/pkg/mailer/smtp"
	"github.com/sensiq/coldmail/pkg/redis"
	"github.com/sensiq/coldmail/pkg/storage"
)

// Mail transports selectable with MAIL_TRANSPORT.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
)

var ErrConfig = errors.New("coldmail: invalid configuration")

// Config is the process configuration, read once from the environment at
// startup and handed to constructors.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":3000"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,https://automation.sensiq.ae"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"25s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MailTransport   string        `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	UploadDir       string        `env:"UPLOAD_DIR" envDefault:"uploads"`

	Logger    logger.Config
	LLM       llm.Config
	Vector    vector.Config
	Retrieval RetrievalConfig
	Mailer    mailer.Config
	SMTP      smtp.Config
	Resend    resend.Config
	S3        storage.S3Config
	Redis     redis.Config
	DB        db.Config
	Assets    assets.Config
	Jobs      JobsConfig
}

// JobsConfig controls bulk sending.
type JobsConfig struct {
	Workers         int           `env:"JOB_WORKERS" envDefault:"2"`
	QueueSize       int           `env:"JOB_QUEUE_SIZE" envDefault:"16"`
	RowDelay        time.Duration `env:"JOB_ROW_DELAY" envDefault:"1s"`
	Retention       time.Duration `env:"JOB_RETENTION" envDefault:"5m"`
	UploadRetention time.Duration `env:"JOB_UPLOAD_RETENTION" envDefault:"24h"`
	SweepSchedule   string        `env:"JOB_SWEEP_SCHEDULE" envDefault:"@every 5m"`
}

// RetrievalConfig controls the knowledge lookup cache.
type RetrievalConfig struct {
	CacheTTL      time.Duration `env:"RETRIEVAL_CACHE_TTL" envDefault:"10m"`
	CachePrefix   string        `env:"RETRIEVAL_CACHE_PREFIX" envDefault:"coldmail:retrieval"`
	CacheMax      int           `env:"RETRIEVAL_CACHE_MAX_ENTRIES" envDefault:"512"`
	PurgeSchedule string        `env:"RETRIEVAL_CACHE_PURGE_SCHEDULE" envDefault:"@every 15m"`
}

// IndexConfig is what the knowledge-base commands need. It is loaded on its
// own so indexing works without mail or LLM credentials.
type IndexConfig struct {
	KnowledgeFile string `env:"KNOWLEDGE_FILE" envDefault:"components.txt"`

	Logger logger.Config
	Vector vector.Config
}

// LoadIndex reads the indexing configuration from the process environment.
func LoadIndex() (IndexConfig, error) {
	cfg, err := env.ParseAs[IndexConfig]()
	if err != nil {
		return IndexConfig{}, errors.Join(ErrConfig, err)
	}
	return cfg, nil
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errors.Join(ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	switch c.MailTransport {
	case TransportSMTP:
		if c.SMTP.Password == "" {
			return fmt.Errorf("%w: EMAIL_PASSWORD is required for the smtp transport", ErrConfig)
		}
	case TransportResend:
		if c.Resend.APIKey == "" {
			return fmt.Errorf("%w: RESEND_API_KEY is required for the resend transport", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown MAIL_TRANSPORT %q", ErrConfig, c.MailTransport)
	}

	if c.Jobs.Workers < 1 {
		return fmt.Errorf("%w: JOB_WORKERS must be positive", ErrConfig)
	}
	if c.Jobs.QueueSize < 0 {
		return fmt.Errorf("%w: JOB_QUEUE_SIZE must not be negative", ErrConfig)
	}
	if c.Jobs.SweepSchedule == "" {
		return fmt.Errorf("%w: JOB_SWEEP_SCHEDULE is empty", ErrConfig)
	}
	return nil
}
