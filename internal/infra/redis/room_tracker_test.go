package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRoomTrackerMarksLiveness(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := NewRoomTracker(client, time.Minute)

	tracker.MarkLive("R1")
	if !mr.Exists("room:live:R1") {
		t.Fatalf("expected liveness key to be set")
	}

	// Marker expires on its own.
	mr.FastForward(2 * time.Minute)
	if mr.Exists("room:live:R1") {
		t.Fatalf("expected liveness key to expire")
	}
}
