package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Package idempotency is the single "exactly-once under retry" primitive.
// The volatile request cache (redis) and the durable webhook ledger
// (postgres) are both Store implementations; only retention differs.

var (
	// ErrConflict means the key exists with a different request fingerprint.
	ErrConflict = errors.New("idempotency key conflict")
	// ErrInProgress means the key is reserved by a concurrent identical
	// request whose outcome has not been recorded yet.
	ErrInProgress = errors.New("idempotency key is already being processed")
	// ErrKeyRequired means the caller sent a mutating request without a key.
	ErrKeyRequired = errors.New("idempotency key is required")
)

// Record is the stored claim and, once completed, the outcome of the first
// execution of a mutating request. A record with StatusCode zero is an
// in-flight reservation; Save completes it, Release removes it.
type Record struct {
	Key          string    `json:"key"`
	TenantID     string    `json:"tenant_id"`
	Fingerprint  string    `json:"fingerprint"`
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Completed reports whether the record carries a recorded outcome rather than
// a bare reservation.
func (r Record) Completed() bool {
	return r.StatusCode != 0
}

// Store is the conditional-write boundary. PutIfAbsent is the only decision
// point: implementations must make it atomic under concurrent identical keys
// (SET NX, INSERT ... ON CONFLICT DO NOTHING), never a read followed by a
// write. An existing record that expired before now is reclaimed as absent.
// Delete releases a claim whose processing failed so a retry can execute.
type Store interface {
	PutIfAbsent(ctx context.Context, record Record, now time.Time) (stored bool, existing Record, err error)
	Get(ctx context.Context, key string, now time.Time) (Record, bool, error)
	Delete(ctx context.Context, key string) error
}

// CacheStore extends Store with the unconditional overwrite the request cache
// uses to complete a reservation it already won.
type CacheStore interface {
	Store
	Put(ctx context.Context, record Record) error
}

// Fingerprint hashes a request body for replay comparison.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Reserve claims key for one-shot processing. It reports true when the key was
// already claimed with the same fingerprint, and ErrConflict when the claimed
// fingerprint differs. Used by the durable webhook ledger.
func Reserve(ctx context.Context, store Store, key string, fingerprint string, now time.Time, ttl time.Duration) (bool, error) {
	stored, existing, err := store.PutIfAbsent(ctx, Record{
		Key:         key,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(ttl).UTC(),
	}, now)
	if err != nil {
		return false, err
	}
	if stored {
		return false, nil
	}
	if existing.Fingerprint != fingerprint {
		return false, ErrConflict
	}
	return true, nil
}

// Replay is a previously recorded response returned to a retried request.
type Replay struct {
	StatusCode int
	Body       []byte
}

// Cache guards mutating endpoints against duplicate execution.
// Contract: Check before running the operation; a nil replay and nil error
// means the caller won the reservation and must follow up with Save once the
// effects are durably committed, or Release when execution fails.
type Cache struct {
	Backend CacheStore
	TTL     time.Duration
}

func (c Cache) key(tenantID string, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", tenantID, key)
}

// Check reserves tenant+key via conditional insert, so two concurrent
// identical requests can never both execute: the loser sees the winner's
// reservation. A completed record with a matching fingerprint replays; a
// mismatched fingerprint is a hard conflict, distinct from a miss; a bare
// reservation means the first execution is still in flight.
func (c Cache) Check(ctx context.Context, tenantID string, key string, fingerprint string, now time.Time) (*Replay, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	stored, existing, err := c.Backend.PutIfAbsent(ctx, Record{
		Key:         c.key(tenantID, key),
		TenantID:    tenantID,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(c.TTL).UTC(),
	}, now)
	if err != nil {
		return nil, err
	}
	if stored {
		return nil, nil
	}
	if existing.Fingerprint != fingerprint {
		return nil, ErrConflict
	}
	if !existing.Completed() {
		return nil, ErrInProgress
	}
	return &Replay{
		StatusCode: existing.StatusCode,
		Body:       append([]byte(nil), existing.ResponseBody...),
	}, nil
}

// Save completes the reservation won in Check with the recorded outcome.
func (c Cache) Save(ctx context.Context, tenantID string, key string, fingerprint string, statusCode int, body []byte, now time.Time) error {
	if key == "" {
		return ErrKeyRequired
	}
	return c.Backend.Put(ctx, Record{
		Key:          c.key(tenantID, key),
		TenantID:     tenantID,
		Fingerprint:  fingerprint,
		StatusCode:   statusCode,
		ResponseBody: append([]byte(nil), body...),
		ExpiresAt:    now.Add(c.TTL).UTC(),
	})
}

// Release drops the reservation after a failed execution so the caller's
// retry is not poisoned by a claim that will never complete.
func (c Cache) Release(ctx context.Context, tenantID string, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return c.Backend.Delete(ctx, c.key(tenantID, key))
}
