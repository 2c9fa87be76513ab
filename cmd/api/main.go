package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/fsrviagens/leads-api/internal/infra/database"
	"github.com/fsrviagens/leads-api/internal/infra/http/handlers"
	"github.com/fsrviagens/leads-api/internal/infra/http/middleware"
	"github.com/fsrviagens/leads-api/internal/infra/integration/whatsapp"
	"github.com/fsrviagens/leads-api/internal/infra/logger"
	"github.com/fsrviagens/leads-api/internal/infra/mail"
	"github.com/fsrviagens/leads-api/internal/infra/notify"
	"github.com/fsrviagens/leads-api/internal/infra/queue"
	"github.com/fsrviagens/leads-api/internal/infra/ratelimit"
	"github.com/fsrviagens/leads-api/internal/infra/tracing"
	"github.com/fsrviagens/leads-api/internal/usecase"
)

var build = "develop"

const serviceName = "leads-api"

func main() {
	log, err := logger.New(serviceName)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// .env é opcional; em produção as variáveis vêm do ambiente.
	_ = godotenv.Load()

	cfg := struct {
		conf.Version
		Web struct {
			Host            string        `conf:"default:0.0.0.0:8080"`
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			CORSOrigins     []string      `conf:"default:*"`
			RateLimit       int           `conf:"default:10"`
			RateWindow      time.Duration `conf:"default:1m"`
			TrustProxy      bool          `conf:"default:false"`
		}
		DB struct {
			Driver       string        `conf:"default:postgres"`
			URL          string        `conf:"mask"`
			User         string        `conf:"default:postgres"`
			Password     string        `conf:"default:postgres,mask"`
			Host         string        `conf:"default:localhost:5432"`
			Name         string        `conf:"default:fsr_viagens"`
			DisableTLS   bool          `conf:"default:true"`
			MaxIdleConns int           `conf:"default:2"`
			MaxOpenConns int           `conf:"default:10"`
			QueryTimeout time.Duration `conf:"default:5s"`
			Migrate      bool          `conf:"default:true"`
		}
		Notify struct {
			Wait            time.Duration `conf:"default:3s"`
			Timeout         time.Duration `conf:"default:30s"`
			AgencyWhatsApp  string        `conf:"default:5561983163710"`
			WhatsAppBaseURL string        `conf:"default:https://graph.facebook.com/v18.0"`
			WhatsAppToken   string        `conf:"mask"`
			WhatsAppPhoneID string
			SMTPHost        string
			SMTPPort        int `conf:"default:587"`
			SMTPUser        string
			SMTPPassword    string `conf:"mask"`
			MailFrom        string `conf:"default:nao-responda@fsrviagens.com.br"`
		}
		Queue struct {
			URL       string `conf:"mask"`
			RunWorker bool   `conf:"default:true"`
		}
		Redis struct {
			URL string `conf:"mask"`
		}
		Admin struct {
			User     string
			Password string `conf:"mask"`
		}
		Tracing struct {
			ReporterURI string
			ServiceName string  `conf:"default:leads-api"`
			Probability float64 `conf:"default:0.5"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "FSR Viagens lead capture API",
		},
	}

	const prefix = "LEADS"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// Render, Heroku e afins exportam DATABASE_URL sem prefixo.
	if cfg.DB.URL == "" {
		cfg.DB.URL = os.Getenv("DATABASE_URL")
	}

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Database Support

	log.Infow("startup", "status", "initializing database support", "driver", cfg.DB.Driver, "host", cfg.DB.Host)

	db, err := database.Open(database.Config{
		Driver:       cfg.DB.Driver,
		URL:          cfg.DB.URL,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		DisableTLS:   cfg.DB.DisableTLS,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "stopping database support")
		db.Close()
	}()

	if cfg.DB.Migrate {
		log.Infow("startup", "status", "updating database schema", "database", cfg.DB.Name)
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("updating database schema: %w", err)
		}
	}

	checks := map[string]handlers.CheckFunc{
		"database": func(ctx context.Context) error { return database.StatusCheck(ctx, db) },
	}

	// =========================================================================
	// Start Tracing Support

	if cfg.Tracing.ReporterURI != "" {
		log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

		tp, err := tracing.Start(cfg.Tracing.ServiceName, cfg.Tracing.ReporterURI, cfg.Tracing.Probability)
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer tp.Shutdown(context.Background())
	}

	// =========================================================================
	// Notification Support

	var waSender, mailSender notify.Sender

	waClient := whatsapp.NewClient(cfg.Notify.WhatsAppBaseURL, cfg.Notify.WhatsAppToken, cfg.Notify.WhatsAppPhoneID)
	if waClient.Configured() {
		waSender = waClient
	} else {
		log.Warnw("startup", "status", "whatsapp alert disabled: token or phone id missing")
	}

	emailSender := mail.NewEmailSender(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.SMTPUser, cfg.Notify.SMTPPassword, cfg.Notify.MailFrom)
	if emailSender.Configured() {
		mailSender = emailSender
	} else {
		log.Warnw("startup", "status", "confirmation email disabled: smtp host missing")
	}

	metrics := middleware.PrometheusRecorder{}
	dispatcher := notify.NewDispatcher(waSender, mailSender, cfg.Notify.AgencyWhatsApp)

	var notifier usecase.Notifier = dispatcher

	if cfg.Queue.URL != "" {
		log.Infow("startup", "status", "initializing rabbitmq support")

		rabbit, err := queue.NewRabbitMQ(cfg.Queue.URL)
		if err != nil {
			return err
		}
		defer rabbit.Close()

		notifier = queue.NewProducer(rabbit.Ch, dispatcher)
		checks["rabbitmq"] = func(context.Context) error { return rabbit.StatusCheck() }

		if cfg.Queue.RunWorker {
			worker := queue.NewWorker(rabbit.Ch, dispatcher, metrics, log)
			worker.Timeout = cfg.Notify.Timeout
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					log.Errorw("worker", "error", err)
				}
			}()
		}
	}

	// =========================================================================
	// Rate Limiting

	var limiter ratelimit.Limiter
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		rl := ratelimit.NewRedis(rdb, cfg.Web.RateLimit, cfg.Web.RateWindow)
		checks["redis"] = rl.StatusCheck
		limiter = rl
	} else {
		rl := ratelimit.NewMemory(cfg.Web.RateLimit, cfg.Web.RateWindow)
		defer rl.Close()
		limiter = rl
	}

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true))

	repo := database.NewLeadRepository(db)
	submitLead := usecase.NewSubmitLeadUseCase(database.NewLeadStoreTx(db), notifier, metrics, log)
	submitLead.QueryTimeout = cfg.DB.QueryTimeout
	submitLead.NotifyWait = cfg.Notify.Wait
	submitLead.NotifyTimeout = cfg.Notify.Timeout

	if cfg.Admin.User == "" || cfg.Admin.Password == "" {
		log.Warnw("startup", "status", "admin listing disabled: no credentials")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:   cfg.Tracing.ServiceName,
		CORSOrigins:   cfg.Web.CORSOrigins,
		AdminUser:     cfg.Admin.User,
		AdminPassword: cfg.Admin.Password,
		Limiter:       limiter,
		TrustProxy:    cfg.Web.TrustProxy,
		Log:           log,
		Lead:          handlers.NewLeadHandler(submitLead, otelLog),
		Admin:         handlers.NewAdminHandler(usecase.NewListLeadsUseCase(repo), otelLog),
		Health:        handlers.NewHealthHandler(build, checks, otelLog),
	})

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server", "host", cfg.Web.Host)

	server := &http.Server{
		Addr:         cfg.Web.Host,
		Handler:      router,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		log.Infow("shutdown", "status", "shutdown started")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
