package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/pipeline-crm/internal/config"
	"github.com/xavierca1/pipeline-crm/internal/infra/database"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/handlers"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/infra/integration/authadmin"
	"github.com/xavierca1/pipeline-crm/internal/infra/mail"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ database: %v", err)
	}
	defer db.Close()

	if err := database.RequireSchema(ctx, db); err != nil {
		log.Fatalf("❌ %v (run `crmctl migrate`)", err)
	}

	// 1. Repositories
	profileRepo := database.NewProfileRepository(db)
	pipelineRepo := database.NewPipelineRepository(db)
	memberRepo := database.NewMemberRepository(db)
	stageRepo := database.NewStageRepository(db)
	leadRepo := database.NewLeadRepository(db)
	activityRepo := database.NewActivityRepository(db)
	taskRepo := database.NewTaskRepository(db)

	// 2. Gateways and adapters
	authClient := authadmin.NewClient(cfg.SupabaseURL, cfg.ServiceRoleKey)

	var producer usecase.QueueProducerInterface = queue.NoopProducer{}
	var broker handlers.BrokerConn
	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("❌ rabbitmq: %v", err)
		}
		defer rabbitMQ.Close()
		producer = queue.NewProducer(rabbitMQ.Ch)
		broker = rabbitMQ.Conn

		startWorker(ctx, rabbitMQ, cfg)
	} else {
		log.Println("⚠️ AMQP_URL not set, lead events are dropped")
	}

	var limiter middleware.Limiter
	if cfg.IngestRateLimit > 0 {
		limiter = newIngestLimiter(ctx, cfg)
	}

	// 3. Use cases
	access := usecase.NewAccessPolicy(profileRepo, memberRepo)
	ingestUC := usecase.NewIngestLeadUseCase(cfg.IngestToken, cfg.DedupeField,
		pipelineRepo, stageRepo, leadRepo, activityRepo, producer)
	kanbanUC := usecase.NewKanbanUseCase(pipelineRepo, stageRepo, leadRepo, memberRepo, activityRepo, access, producer)
	leadUC := usecase.NewLeadUseCase(leadRepo, stageRepo, pipelineRepo, profileRepo, activityRepo, taskRepo, access, producer)
	pipelineUC := usecase.NewPipelineUseCase(pipelineRepo, stageRepo, memberRepo, access)
	adminUC := usecase.NewAdminUseCase(profileRepo, memberRepo, pipelineRepo, authClient, access)
	taskUC := usecase.NewTaskUseCase(taskRepo, leadRepo, access)
	profileUC := usecase.NewProfileUseCase(profileRepo, authClient, cfg.SiteURL)

	if cfg.IngestToken == "" {
		log.Println("⚠️ N8N_INGEST_TOKEN not set, the ingest endpoint rejects every call")
	}

	// 4. Handlers and router
	router := newRouter(routerDeps{
		CORSOrigins: cfg.CORSOrigins,
		Session:     middleware.NewSessionAuth(cfg.JWTSecret, access),
		Admin:       access,
		Health:      handlers.NewHealthHandler(db, broker, config.Version),
		Ingest:      handlers.NewIngestHandler(ingestUC, limiter),
		Profile:     handlers.NewProfileHandler(profileUC),
		Pipeline:    handlers.NewPipelineHandler(pipelineUC),
		Kanban:      handlers.NewKanbanHandler(kanbanUC),
		Lead:        handlers.NewLeadHandler(leadUC),
		Task:        handlers.NewTaskHandler(taskUC),
		AdminH:      handlers.NewAdminHandler(adminUC),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️ shutdown: %v", err)
		}
	}()

	log.Printf("🔥 Pipeline CRM %s listening on %s", config.Version, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("❌ server: %v", err)
	}
}

// startWorker consumes lead events on its own channel so the durable queue
// never piles up, even when assignment emails are disabled.
func startWorker(ctx context.Context, rabbitMQ *queue.RabbitMQ, cfg *config.Config) {
	ch, err := rabbitMQ.Conn.Channel()
	if err != nil {
		log.Fatalf("❌ worker channel: %v", err)
	}
	worker := queue.NewWorker(ch, assignmentNotifier(cfg), cfg.SiteURL)
	go func() {
		defer ch.Close()
		if err := worker.Start(ctx, queue.QueueName); err != nil {
			log.Printf("❌ worker stopped: %v", err)
		}
	}()
}

// assignmentNotifier is nil without SMTP settings.
func assignmentNotifier(cfg *config.Config) queue.AssignmentNotifier {
	if !cfg.Mail.Enabled() {
		log.Println("⚠️ MAIL_HOST not set, assignment emails are disabled")
		return nil
	}
	return mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From)
}

// newIngestLimiter shares the window through Redis when REDIS_URL is set and
// reachable, else keeps it in memory.
func newIngestLimiter(ctx context.Context, cfg *config.Config) middleware.Limiter {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err = client.Ping(pingCtx).Err()
		if err == nil {
			go func() {
				<-ctx.Done()
				client.Close()
			}()
			return middleware.NewRedisLimiter(client, "crm:ratelimit", cfg.IngestRateLimit, time.Minute)
		}
		log.Printf("⚠️ redis unreachable, using in-memory rate limit: %v", err)
		client.Close()
	}
	limiter := middleware.NewMemoryLimiter(cfg.IngestRateLimit, time.Minute)
	go limiter.Cleanup(ctx, 10*time.Minute)
	return limiter
}
