package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/auth"
	"edu-quiz-service/internal/config"
	"edu-quiz-service/internal/infra/memory"
	pgloader "edu-quiz-service/internal/infra/postgres"
	rediscache "edu-quiz-service/internal/infra/redis"
	"edu-quiz-service/internal/infra/sqlstore"
	"edu-quiz-service/internal/infra/sqlstore/migrations"
	transport "edu-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()
	isPostgres := cfg.Database.Driver == "" || cfg.Database.Driver == sqlstore.DriverPostgres
	if cfg.Database.Migrate || isPostgres {
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
	}
	store := sqlstore.New(db)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var loader memory.AnswerKeyLoader = store
	if isPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewAnswerKeyLoader(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var keys app.AnswerKeyRepository
	if redisClient != nil {
		keys = rediscache.NewAnswerKeyRepository(redisClient, loader, quizTTL)
	} else {
		keys = memory.NewAnswerKeyRepository(loader, quizTTL)
	}

	// With Redis, awards go through pub/sub so sockets on every instance see them.
	hub := app.NewAwardHub()
	var publisher app.AwardPublisher = hub
	if redisClient != nil {
		relay := rediscache.NewAwardRelay(redisClient, hub)
		publisher = relay
		go func() {
			if err := relay.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("award relay stopped: %v", err)
			}
		}()
	}

	policy, err := app.NewPointsPolicy(cfg.Points.Policy, cfg.Points.PerCorrectAnswer)
	if err != nil {
		return err
	}
	log.Printf("points policy: %s", policy.Name())

	achievements := app.NewAchievementService(store, publisher)
	submissions := app.NewSubmissionService(store, keys, policy, achievements,
		app.WithTxTimeout(config.TTLDuration(cfg.Submission.TxTimeout, 10*time.Second)),
		app.WithEvaluationTimeout(config.TTLDuration(cfg.Submission.EvalTimeout, 5*time.Second)))

	router := transport.NewRouter(transport.Services{
		Submissions:  submissions,
		Reviews:      app.NewReviewService(store),
		Achievements: achievements,
		Awards:       hub,
		Tokens:       auth.NewTokens(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)),
		CORSOrigins:  cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
