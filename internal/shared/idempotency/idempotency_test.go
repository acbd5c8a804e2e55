package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheMissThenReplay(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fingerprint := Fingerprint([]byte(`{"title":"screen"}`))

	replay, err := cache.Check(context.Background(), "org-1", "key-1", fingerprint, now)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if replay != nil {
		t.Fatal("expected miss on first check")
	}

	if err := cache.Save(context.Background(), "org-1", "key-1", fingerprint, 201, []byte(`{"id":"m-1"}`), now); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	replay, err = cache.Check(context.Background(), "org-1", "key-1", fingerprint, now)
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if replay == nil {
		t.Fatal("expected replay hit")
	}
	if replay.StatusCode != 201 || string(replay.Body) != `{"id":"m-1"}` {
		t.Fatalf("unexpected replay %d %s", replay.StatusCode, replay.Body)
	}
}

func TestCacheFingerprintMismatchIsConflict(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := cache.Save(context.Background(), "org-1", "key-1", Fingerprint([]byte(`a`)), 200, []byte(`ok`), now); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	_, err := cache.Check(context.Background(), "org-1", "key-1", Fingerprint([]byte(`b`)), now)
	if err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

// The conditional insert in Check is the execution decision point: of N
// concurrent identical requests, exactly one may run the underlying
// operation, and the losers must not slip through on a plain read.
func TestCacheConcurrentIdenticalRequestsExecuteOnce(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fingerprint := Fingerprint([]byte(`{"title":"screen"}`))

	var executed int32
	var inProgress int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			replay, err := cache.Check(context.Background(), "org-1", "key-race", fingerprint, now)
			if errors.Is(err, ErrInProgress) {
				atomic.AddInt32(&inProgress, 1)
				return
			}
			if err != nil {
				t.Errorf("check failed: %v", err)
				return
			}
			if replay == nil {
				// Reservation won; the underlying operation runs here.
				atomic.AddInt32(&executed, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if executed != 1 {
		t.Fatalf("underlying operation would execute %d times, want exactly 1", executed)
	}
	if inProgress != 7 {
		t.Fatalf("expected 7 losers to observe the in-flight reservation, got %d", inProgress)
	}
}

// A failed execution must release its reservation, or every retry of the same
// request would bounce off a claim that can never complete.
func TestCacheReleaseAllowsRetry(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fingerprint := Fingerprint([]byte(`body`))

	replay, err := cache.Check(context.Background(), "org-1", "key-1", fingerprint, now)
	if err != nil || replay != nil {
		t.Fatalf("first check: replay=%v err=%v, want reservation", replay, err)
	}

	_, err = cache.Check(context.Background(), "org-1", "key-1", fingerprint, now)
	if !errors.Is(err, ErrInProgress) {
		t.Fatalf("duplicate of in-flight request: got %v, want ErrInProgress", err)
	}

	if err := cache.Release(context.Background(), "org-1", "key-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	replay, err = cache.Check(context.Background(), "org-1", "key-1", fingerprint, now)
	if err != nil || replay != nil {
		t.Fatalf("check after release: replay=%v err=%v, want fresh reservation", replay, err)
	}
}

func TestCacheKeysAreTenantScoped(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fingerprint := Fingerprint([]byte(`body`))

	if err := cache.Save(context.Background(), "org-a", "key-1", fingerprint, 200, []byte(`a`), now); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	replay, err := cache.Check(context.Background(), "org-b", "key-1", fingerprint, now)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if replay != nil {
		t.Fatal("expected miss for same key under a different tenant")
	}
}

func TestCacheRecordExpires(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fingerprint := Fingerprint([]byte(`body`))

	if err := cache.Save(context.Background(), "org-1", "key-1", fingerprint, 200, []byte(`ok`), now); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	replay, err := cache.Check(context.Background(), "org-1", "key-1", fingerprint, now.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if replay != nil {
		t.Fatal("expected miss after retention window")
	}
}

func TestCacheRequiresKey(t *testing.T) {
	cache := Cache{Backend: NewMemoryStore(), TTL: 24 * time.Hour}
	_, err := cache.Check(context.Background(), "org-1", "", "fp", time.Now())
	if err != ErrKeyRequired {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestReserveClaimsOnce(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 7 * 24 * time.Hour

	already, err := Reserve(context.Background(), store, "video_webhook:evt-1", "hash-1", now, ttl)
	if err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if already {
		t.Fatal("first reserve should claim the key")
	}

	already, err = Reserve(context.Background(), store, "video_webhook:evt-1", "hash-1", now, ttl)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if !already {
		t.Fatal("second reserve should report already processed")
	}

	_, err = Reserve(context.Background(), store, "video_webhook:evt-1", "hash-2", now, ttl)
	if err != ErrConflict {
		t.Fatalf("expected ErrConflict on mismatched fingerprint, got %v", err)
	}
}

func TestMemoryPutIfAbsentReclaimsExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stored, _, err := store.PutIfAbsent(context.Background(), Record{
		Key:         "key-1",
		Fingerprint: "fp-old",
		ExpiresAt:   now.Add(time.Hour),
	}, now)
	if err != nil || !stored {
		t.Fatalf("initial put: stored=%v err=%v", stored, err)
	}

	later := now.Add(2 * time.Hour)
	stored, _, err = store.PutIfAbsent(context.Background(), Record{
		Key:         "key-1",
		Fingerprint: "fp-new",
		ExpiresAt:   later.Add(time.Hour),
	}, later)
	if err != nil {
		t.Fatalf("put after expiry failed: %v", err)
	}
	if !stored {
		t.Fatal("expired record should not block a fresh claim")
	}

	record, found, err := store.Get(context.Background(), "key-1", later)
	if err != nil || !found {
		t.Fatalf("get after reclaim: found=%v err=%v", found, err)
	}
	if record.Fingerprint != "fp-new" {
		t.Fatalf("fingerprint = %q, want the reclaiming writer's", record.Fingerprint)
	}
}

func TestConcurrentPutIfAbsentSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		go func() {
			stored, _, err := store.PutIfAbsent(context.Background(), Record{
				Key:         "race-key",
				Fingerprint: "fp",
				ExpiresAt:   now.Add(time.Hour),
			}, now)
			if err != nil {
				t.Errorf("put failed: %v", err)
			}
			wins <- stored
		}()
	}

	winners := 0
	for i := 0; i < 16; i++ {
		if <-wins {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
