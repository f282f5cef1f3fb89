package coldmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sensiq/coldmail/internal"
	"github.com/sensiq/coldmail/internal/api"
	"github.com/sensiq/coldmail/internal/assets"
	"github.com/sensiq/coldmail/internal/campaign"
	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/internal/journal"
	"github.com/sensiq/coldmail/internal/llm"
	"github.com/sensiq/coldmail/internal/tracker"
	"github.com/sensiq/coldmail/internal/vector"
	"github.com/sensiq/coldmail/middlewares"
	"github.com/sensiq/coldmail/pkg/cache"
	"github.com/sensiq/coldmail/pkg/db"
	"github.com/sensiq/coldmail/pkg/job"
	"github.com/sensiq/coldmail/pkg/mailer"
	"github.com/sensiq/coldmail/pkg/mailer/resend"
	"github.com/sensiq/coldmail/pkg/mailer/smtp"
	"github.com/sensiq/coldmail/pkg/redis"
	"github.com/sensiq/coldmail/pkg/storage"
)

// Service is the assembled application: single sends, bulk jobs, the HTTP
// API and the background scheduler.
type Service struct {
	cfg Config
	log *slog.Logger

	campaign  *campaign.Service
	images    *assets.Store
	tracker   *tracker.Tracker
	journal   *journal.Journal
	pool      *job.Pool
	scheduler *job.Scheduler

	rdb *goredis.Client
	db  *pgxpool.Pool
}

// New connects the optional backing services and wires every component.
// Redis and Postgres are used only when their URLs are configured.
func New(ctx context.Context, cfg Config, log *slog.Logger) (_ *Service, err error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Service{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = s.Close(context.WithoutCancel(ctx))
		}
	}()

	if cfg.Redis.Enabled() {
		if s.rdb, err = redis.Open(ctx, cfg.Redis); err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
	}

	if cfg.DB.Enabled() {
		if s.db, err = db.Connect(ctx, cfg.DB); err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.journal = journal.New(s.db, log.With(slog.String("component", "journal")))
		if err = s.journal.Migrate(ctx, cfg.DB.MigrationsTable); err != nil {
			return nil, err
		}
	}

	composer, purge, err := NewComposer(cfg, log, s.rdb)
	if err != nil {
		return nil, err
	}
	s.images = assets.NewDir(cfg.Assets.Dir)
	if s.campaign, err = NewCampaign(cfg, composer, s.images, log); err != nil {
		return nil, err
	}

	store, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}

	s.pool = job.NewPool(
		job.WithWorkers(cfg.Jobs.Workers),
		job.WithQueueSize(cfg.Jobs.QueueSize),
		job.WithLogger(log.With(slog.String("component", "jobs"))),
	)

	opts := []tracker.Option{
		tracker.WithLogger(log.With(slog.String("component", "tracker"))),
		tracker.WithRowDelay(cfg.Jobs.RowDelay),
		tracker.WithRetention(cfg.Jobs.Retention),
		tracker.WithUploadRetention(cfg.Jobs.UploadRetention),
	}
	if s.journal != nil {
		opts = append(opts, tracker.WithRowHook(s.journal.Hook()))
	}
	s.tracker = tracker.New(store, s.campaign, s.pool, opts...)

	tasks := []job.Option{
		job.WithLogger(log.With(slog.String("component", "scheduler"))),
		job.WithScheduledTask(s.tracker.Janitor(cfg.Jobs.SweepSchedule)),
	}
	if purge != nil {
		tasks = append(tasks, job.WithScheduledTask(&cachePurge{
			cache:    purge,
			schedule: cfg.Retrieval.PurgeSchedule,
			log:      log,
		}))
	}
	if s.scheduler, err = job.NewScheduler(tasks...); err != nil {
		return nil, err
	}

	return s, nil
}

// NewComposer builds the content composer with the LLM-backed regular
// provider. Retrieval results are cached in Redis when rdb is set and in
// process memory otherwise; in the latter case the memory cache is returned
// so it can be purged on a schedule.
func NewComposer(cfg Config, log *slog.Logger, rdb *goredis.Client) (*content.Composer, *cache.Memory[[]string], error) {
	catalog, err := content.LoadCatalog()
	if err != nil {
		return nil, nil, err
	}

	var (
		store cache.Cache[[]string]
		mem   *cache.Memory[[]string]
	)
	if rdb != nil {
		store = cache.NewRedis[[]string](rdb, cfg.Retrieval.CachePrefix, cfg.Retrieval.CacheTTL)
	} else {
		mem = cache.NewMemory[[]string](
			cache.WithTTL(cfg.Retrieval.CacheTTL),
			cache.WithMaxEntries(cfg.Retrieval.CacheMax),
		)
		store = mem
	}

	vc := vector.NewClient(cfg.Vector, vector.WithLogger(log))
	retriever := vector.NewRetriever(vc.Index(cfg.Vector.Index),
		vector.WithCache(store, cfg.Retrieval.CacheTTL),
		vector.WithRetrieverLogger(log),
	)

	regular := content.NewRegularProvider(catalog, llm.New(cfg.LLM, llm.WithLogger(log)),
		content.WithRetriever(retriever),
		content.WithLogger(log),
	)
	composer := content.NewComposer(catalog, regular,
		content.WithProvider(content.TypeFollowup, content.NewFollowupProvider(catalog, log)),
	)
	return composer, mem, nil
}

// NewCampaign wires composer and images to the configured mail transport.
func NewCampaign(cfg Config, composer campaign.Composer, images campaign.Images, log *slog.Logger) (*campaign.Service, error) {
	m, err := NewMailer(cfg)
	if err != nil {
		return nil, err
	}
	return campaign.New(composer, images, m, log.With(slog.String("component", "campaign"))), nil
}

// NewMailer returns a mailer using the configured transport.
func NewMailer(cfg Config) (*mailer.Mailer, error) {
	var sender mailer.Sender
	switch cfg.MailTransport {
	case TransportSMTP:
		sender = smtp.New(cfg.SMTP)
	case TransportResend:
		sender = resend.New(cfg.Resend)
	default:
		return nil, fmt.Errorf("%w: unknown MAIL_TRANSPORT %q", ErrConfig, cfg.MailTransport)
	}
	return mailer.New(sender, cfg.Mailer), nil
}

// NewStorage returns the upload store: S3 when a bucket is configured,
// the local upload directory otherwise.
func NewStorage(cfg Config) (storage.Storage, error) {
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}

// Handler builds the HTTP application.
func (s *Service) Handler() *internal.App {
	var deliveries api.Deliveries
	if s.journal != nil {
		deliveries = s.journal
	}

	checks := []internal.HealthOption{
		internal.WithReadinessCheck("jobs", job.Healthcheck(s.pool)),
	}
	if s.rdb != nil {
		checks = append(checks, internal.WithReadinessCheck("redis", redis.Healthcheck(s.rdb)))
	}
	if s.db != nil {
		checks = append(checks, internal.WithReadinessCheck("database", db.Healthcheck(s.db)))
	}

	return internal.New(
		internal.WithLogger(s.log),
		internal.WithErrorHandler(api.ErrorHandler),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.CORS(middlewares.WithAllowOrigins(s.cfg.CORSOrigins...)),
			middlewares.Timeout(s.cfg.RequestTimeout),
		),
		internal.WithHandlers(
			api.NewEmailHandler(s.campaign),
			api.NewJobHandler(s.tracker, s.campaign, deliveries),
			api.NewAssetHandler(s.images),
		),
		internal.WithHealthChecks(checks...),
	)
}

// Run starts the scheduler and serves HTTP until ctx is canceled or the
// process is signaled. On shutdown running jobs are canceled and drained
// before the scheduler stops and the connections close.
func (s *Service) Run(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	return s.Handler().Run(s.cfg.Addr,
		internal.WithContext(ctx),
		internal.Logger(s.log),
		internal.ShutdownTimeout(s.cfg.ShutdownTimeout),
		internal.ShutdownHook(s.tracker.Shutdown),
		internal.ShutdownHook(s.scheduler.Shutdown()),
		internal.ShutdownHook(s.Close),
	)
}

// Close releases the Redis and Postgres connections. It is safe to call on a
// partially built Service.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.pool != nil && !s.pool.Closed() {
		errs = append(errs, s.pool.Shutdown(ctx))
	}
	if s.rdb != nil {
		errs = append(errs, redis.Shutdown(s.rdb)(ctx))
	}
	if s.db != nil {
		errs = append(errs, db.Shutdown(s.db)(ctx))
	}
	return errors.Join(errs...)
}

// cachePurge drops expired retrieval results from the in-memory cache.
type cachePurge struct {
	cache    *cache.Memory[[]string]
	schedule string
	log      *slog.Logger
}

func (p *cachePurge) Name() string     { return "purge_retrieval_cache" }
func (p *cachePurge) Schedule() string { return p.schedule }

func (p *cachePurge) Handle(ctx context.Context) error {
	if n := p.cache.Purge(); n > 0 {
		p.log.DebugContext(ctx, "retrieval cache purged", slog.Int("removed", n))
	}
	return nil
}
