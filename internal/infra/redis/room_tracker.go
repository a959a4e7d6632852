package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomTracker marks live rooms in Redis so operators can see which rooms a
// process is serving. Room state itself stays in-process; the marker is a
// best-effort liveness signal with a TTL and nothing reads it back on the
// hot path.
type RoomTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomTracker(client *redis.Client, ttl time.Duration) *RoomTracker {
	return &RoomTracker{client: client, ttl: ttl}
}

func (t *RoomTracker) MarkLive(roomID string) {
	_ = t.client.Set(context.Background(), t.key(roomID), "1", t.ttl).Err()
}

func (t *RoomTracker) key(roomID string) string {
	return "room:live:" + roomID
}
