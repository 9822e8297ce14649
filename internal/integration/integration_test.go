package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	pgloader "edu-quiz-service/internal/infra/postgres"
	infraredis "edu-quiz-service/internal/infra/redis"
	"edu-quiz-service/internal/infra/sqlstore"
	"edu-quiz-service/internal/infra/sqlstore/migrations"
	"edu-quiz-service/internal/infra/sqlstore/sqlstoretest"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type stack struct {
	store       *sqlstore.Store
	submissions *app.SubmissionService
	reviews     *app.ReviewService
	hub         *app.AwardHub
}

func newStack(t *testing.T, ctx context.Context, policyName string) *stack {
	t.Helper()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	db, err := sqlstore.Open(sqlstore.DriverPostgres, pgURL, 10)
	if err != nil {
		t.Fatalf("open pg: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.New(db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	hub := app.NewAwardHub()
	relay := infraredis.NewAwardRelay(redisClient, hub)
	relayCtx, stopRelay := context.WithCancel(ctx)
	t.Cleanup(stopRelay)
	ready := make(chan struct{})
	go func() { _ = relay.Run(relayCtx, ready) }()
	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		t.Fatalf("award relay did not subscribe")
	}

	keys := infraredis.NewAnswerKeyRepository(redisClient, pgloader.NewAnswerKeyLoader(pool), 5*time.Minute)
	policy, err := app.NewPointsPolicy(policyName, app.DefaultPointsPerCorrectAnswer)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	achievements := app.NewAchievementService(store, relay)
	return &stack{
		store:       store,
		submissions: app.NewSubmissionService(store, keys, policy, achievements),
		reviews:     app.NewReviewService(store),
		hub:         hub,
	}
}

func TestSubmitAndReviewOnPostgres(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx, app.PolicyPerSubmission)
	sqlstoretest.SeedUser(t, s.store, 1)
	sqlstoretest.SeedQuiz(t, s.store, 1, 0, 1, 0)

	awards, cancel := s.hub.Subscribe(1)
	defer cancel()

	res, err := s.submissions.Submit(ctx, domain.Submission{UserID: 1, QuizID: 1, Answers: sqlstoretest.Sheet(0, 1, 0)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 3 || res.TotalQuestions != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	// 15 points: Point Collector Bronze, delivered through Redis pub/sub.
	select {
	case award := <-awards:
		if award.Badge.ID != 4 {
			t.Fatalf("expected Point Collector Bronze, got %+v", award)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no award relayed")
	}

	res, err = s.submissions.Submit(ctx, domain.Submission{UserID: 1, QuizID: 1, Answers: sqlstoretest.Sheet(2, 1, -1)})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("expected score 1, got %d", res.Score)
	}

	review, err := s.reviews.GetResult(ctx, 1, 1)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if !review.ResultFound || review.Score != 1 || review.BestScore != 3 {
		t.Fatalf("unexpected review %+v", review)
	}
	if review.Questions[2].SubmittedOption != nil {
		t.Fatalf("expected third answer cleared, got %v", *review.Questions[2].SubmittedOption)
	}

	points, err := s.store.UserPoints(ctx, 1)
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	if points != 20 {
		t.Fatalf("expected 20 points, got %d", points)
	}
}

func TestConcurrentSubmissionsSerializeOnPostgres(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx, app.PolicyBestScore)
	sqlstoretest.SeedUser(t, s.store, 1)
	sqlstoretest.SeedQuiz(t, s.store, 1, 0, 1, 2, 3)

	sheets := []domain.AnswerSheet{
		sqlstoretest.Sheet(0, 1, 2, 3),
		sqlstoretest.Sheet(0, 1, 2, 0),
		sqlstoretest.Sheet(0, 0, 0, 0),
		sqlstoretest.Sheet(3, 3, 3, 3),
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(sheets)*2)
	for round := 0; round < 2; round++ {
		for _, sheet := range sheets {
			wg.Add(1)
			go func(sheet domain.AnswerSheet) {
				defer wg.Done()
				if _, err := s.submissions.Submit(ctx, domain.Submission{UserID: 1, QuizID: 1, Answers: sheet}); err != nil {
					errs <- err
				}
			}(sheet)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("submit: %v", err)
	}

	answers, err := s.store.DB().NewSelect().TableExpr("submitted_answers").Where("user_id = ? AND quiz_id = ?", 1, 1).Count(ctx)
	if err != nil {
		t.Fatalf("count answers: %v", err)
	}
	results, err := s.store.CountResults(ctx, 1)
	if err != nil {
		t.Fatalf("count results: %v", err)
	}
	if answers != 4 || results != 1 {
		t.Fatalf("expected 4 answer rows and 1 result, got %d and %d", answers, results)
	}

	// Under best_score the serialized improvements always sum to the best score.
	points, err := s.store.UserPoints(ctx, 1)
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	if points != 4*app.DefaultPointsPerCorrectAnswer {
		t.Fatalf("expected %d points, got %d", 4*app.DefaultPointsPerCorrectAnswer, points)
	}

	review, err := s.reviews.GetResult(ctx, 1, 1)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.BestScore != 4 {
		t.Fatalf("expected best score 4, got %d", review.BestScore)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
