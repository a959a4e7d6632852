package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	pgloader "quiz-room-service/internal/infra/postgres"
	pgmigrations "quiz-room-service/internal/infra/postgres/migrations"
	infraredis "quiz-room-service/internal/infra/redis"
)

func TestQuestionSetFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, sampleSet())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewSetLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	bank := infraredis.NewQuestionBank(redisClient, loader, 5*time.Minute)
	tracker := infraredis.NewRoomTracker(redisClient, 5*time.Minute)

	emit := &recordingEmitter{}
	router := app.NewRouter(emit, bank, tracker, nil)

	router.CreateRoom("host", "R1")
	router.JoinRoom("alice", "R1", "Alice")
	router.LoadQuestionSet(ctx, "host", "R1", "geo-1")

	ack, ok := emit.lastTo("host", app.EventQuestionSetLoaded)
	if !ok {
		t.Fatalf("expected questionSetLoaded, events: %+v", emit.events)
	}
	if got := ack.(app.QuestionSetLoaded); got.QuestionCount != 2 {
		t.Fatalf("expected 2 questions staged, got %+v", got)
	}

	router.StartQuiz("host", "R1")
	router.SubmitAnswer("alice", "R1", 0)

	res, ok := emit.lastTo("alice", app.EventAnswerResult)
	if !ok {
		t.Fatalf("expected answerResult")
	}
	if got := res.(domain.AnswerResult); !got.Correct || got.CurrentScore != 1 {
		t.Fatalf("expected correct first answer, got %+v", got)
	}

	router.EndQuiz("host", "R1")
	end, ok := emit.lastBroadcast("R1", app.EventQuizEnded)
	if !ok {
		t.Fatalf("expected quizEnded broadcast")
	}
	if got := end.(domain.QuizEnded); got.EndedBy != "host" || got.TotalQuestions != 1 {
		t.Fatalf("unexpected quizEnded: %+v", got)
	}

	// Liveness marker made it to redis.
	if n, err := redisClient.Exists(ctx, "room:live:R1").Result(); err != nil || n != 1 {
		t.Fatalf("expected room liveness marker, exists=%d err=%v", n, err)
	}
}

type recordedEvent struct {
	target    string
	broadcast bool
	event     string
	payload   any
}

type recordingEmitter struct {
	events []recordedEvent
}

func (f *recordingEmitter) SendTo(connID, event string, payload any) {
	f.events = append(f.events, recordedEvent{target: connID, event: event, payload: payload})
}

func (f *recordingEmitter) Broadcast(roomID, event string, payload any) {
	f.events = append(f.events, recordedEvent{target: roomID, broadcast: true, event: event, payload: payload})
}

func (f *recordingEmitter) Subscribe(string, string) {}

func (f *recordingEmitter) lastTo(connID, event string) (any, bool) {
	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if !e.broadcast && e.target == connID && e.event == event {
			return e.payload, true
		}
	}
	return nil, false
}

func (f *recordingEmitter) lastBroadcast(roomID, event string) (any, bool) {
	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if e.broadcast && e.target == roomID && e.event == event {
			return e.payload, true
		}
	}
	return nil, false
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, set domain.QuestionSet) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal set: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, set.ID, string(data)); err != nil {
		t.Fatalf("insert set: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "geo-1",
		Questions: []domain.Question{
			{
				Text:         "What is the capital of France?",
				Options:      []string{"Paris", "Rome", "Oslo", "Bern"},
				CorrectIndex: 0,
			},
			{
				Text:         "Which river runs through Cairo?",
				Options:      []string{"Danube", "Nile", "Seine", "Volga"},
				CorrectIndex: 1,
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
