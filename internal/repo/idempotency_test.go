package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	rec, err := GetIdempotency(context.Background(), db, domain.ScopeAPI, "   ", time.Now().UTC())
	if rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound), got (%v, %v)", rec, err)
	}
}

func TestIdempotency_CreateGetDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, domain.ScopeWebhook, "SM1", "m1", time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := GetIdempotency(ctx, db, domain.ScopeWebhook, "SM1", time.Now().UTC())
	if err != nil || rec.MessageID != "m1" {
		t.Fatalf("get: rec=%+v err=%v", rec, err)
	}

	if _, err := CreateIdempotency(ctx, db, domain.ScopeWebhook, "SM1", "m2", time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// same key in another scope is independent
	if _, err := CreateIdempotency(ctx, db, domain.ScopeAPI, "SM1", "m3", time.Hour); err != nil {
		t.Fatalf("create other scope: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, domain.ScopeAPI, "SM2", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
}

func TestIdempotency_ExpiredIsReplaced(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID: "old", Scope: domain.ScopeAPI, Key: "k1", MessageID: "m0",
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, domain.ScopeAPI, "k1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record must not be returned, got %v", err)
	}

	if _, err := CreateIdempotency(ctx, db, domain.ScopeAPI, "k1", "m1", time.Hour); err != nil {
		t.Fatalf("create over expired: %v", err)
	}
	rec, err := GetIdempotency(ctx, db, domain.ScopeAPI, "k1", time.Now().UTC())
	if err != nil || rec.MessageID != "m1" {
		t.Fatalf("expected fresh record, got rec=%+v err=%v", rec, err)
	}
}

func TestClaimMessage_ConflictRollsBackMessage(t *testing.T) {
	db := newTestDB(t, &domain.Message{}, &domain.Idempotency{})
	ctx := context.Background()

	first, replayed, err := ClaimMessage(ctx, db, domain.ScopeWebhook, "SM1", time.Hour, "hola", "whatsapp:+1", "SM1", time.Now())
	if err != nil || replayed || first == "" {
		t.Fatalf("first claim: id=%q replayed=%v err=%v", first, replayed, err)
	}

	second, replayed, err := ClaimMessage(ctx, db, domain.ScopeWebhook, "SM1", time.Hour, "hola", "whatsapp:+1", "SM1", time.Now())
	if err != nil || !replayed || second != first {
		t.Fatalf("second claim: id=%q replayed=%v err=%v", second, replayed, err)
	}
	if n, err := CountMessages(ctx, db); err != nil || n != 1 {
		t.Fatalf("expected one stored message, got n=%d err=%v", n, err)
	}

	// another scope is a separate claim
	other, replayed, err := ClaimMessage(ctx, db, domain.ScopeAPI, "SM1", time.Hour, "hola", "s", "", time.Now())
	if err != nil || replayed || other == first {
		t.Fatalf("other scope: id=%q replayed=%v err=%v", other, replayed, err)
	}
}
