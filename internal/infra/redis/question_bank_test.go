package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
)

func TestQuestionBankCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		SetLoader: memory.NewStaticSetLoader(map[string]domain.QuestionSet{
			"geo-1": sampleSet(),
		}),
	}
	bank := NewQuestionBank(client, loader, time.Minute)

	set, err := bank.GetQuestionSet(context.Background(), "geo-1")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].CorrectIndex != 0 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("qbank:set:geo-1") {
		t.Fatalf("expected set cached in redis")
	}

	// Second call should hit the redis cache, loader not incremented.
	_, _ = bank.GetQuestionSet(context.Background(), "geo-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuestionBankPropagatesLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := NewQuestionBank(newClient(mr), memory.NewStaticSetLoader(nil), time.Minute)
	if _, err := bank.GetQuestionSet(context.Background(), "missing"); err != domain.ErrQuestionSetNotFound {
		t.Fatalf("expected set-not-found, got %v", err)
	}
}

type countingLoader struct {
	memory.SetLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.SetLoader.LoadQuestionSet(ctx, setID)
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
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
