package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-room-service/internal/domain"
)

// SetLoader fetches question sets from a backing store (e.g. Postgres).
type SetLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionBank caches whole question sets as JSON in Redis and falls back to
// a loader on cache miss. Key shape: qbank:set:{setID}.
type QuestionBank struct {
	client *redis.Client
	loader SetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader SetLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	key := b.key(setID)

	if set, ok := b.fromCache(ctx, key); ok {
		return set, nil
	}

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := b.fromCache(ctx, key); ok {
			return set, nil
		}

		set, err := b.loader.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		data, err := json.Marshal(set)
		if err != nil {
			return domain.QuestionSet{}, fmt.Errorf("marshal question set: %w", err)
		}
		_ = b.client.Set(ctx, key, data, b.ttlWithJitter()).Err()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (b *QuestionBank) fromCache(ctx context.Context, key string) (domain.QuestionSet, bool) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.QuestionSet{}, false
	}
	return set, true
}

func (b *QuestionBank) key(setID string) string {
	return "qbank:set:" + setID
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
