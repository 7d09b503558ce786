package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/cardledger/internal/adapter/repository/postgres"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/config"
	"github.com/iho/cardledger/internal/infrastructure/eventpublisher"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

func TestServerAddr(t *testing.T) {
	if got := serverAddr("8080"); got != ":8080" {
		t.Fatalf("expected :8080, got %s", got)
	}
}

func captureUser(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (*domain.User, int) {
	t.Helper()

	var user *domain.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ = domain.UserFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return user, rec.Code
}

func TestAuthMiddlewareDisabledUsesDefaultUser(t *testing.T) {
	cfg := &config.Config{AuthEnabled: false, DefaultUserID: "local"}

	mw, err := authMiddleware(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, _ := captureUser(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	if user == nil || user.ID != "local" {
		t.Fatalf("expected static user local, got %+v", user)
	}
}

func TestAuthMiddlewareDisabledRequiresUserID(t *testing.T) {
	if _, err := authMiddleware(&config.Config{}, nil); err == nil {
		t.Fatal("expected error without DEFAULT_USER_ID")
	}
}

func TestAuthMiddlewareEnabledVerifiesTokens(t *testing.T) {
	cfg := &config.Config{AuthEnabled: true, JWTSecret: "secret", JWTExpiration: time.Hour}
	m := metrics.New(prometheus.NewRegistry())

	mw, err := authMiddleware(cfg, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, code := captureUser(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}

	token, err := auth.NewJWTManager("secret", time.Hour).Generate(&domain.User{ID: "user-7"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	user, code := captureUser(t, mw, req)
	if code != http.StatusOK || user == nil || user.ID != "user-7" {
		t.Fatalf("expected user-7, got code=%d user=%+v", code, user)
	}
}

func TestAuthMiddlewareEnabledWithoutSecret(t *testing.T) {
	_, err := authMiddleware(&config.Config{AuthEnabled: true}, nil)
	if !errors.Is(err, config.ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestNewOutboxRepositoryDisabled(t *testing.T) {
	repo := newOutboxRepository(&config.Config{OutboxEnabled: false}, nil)
	if _, ok := repo.(*postgresRepo.NullOutboxRepository); !ok {
		t.Fatalf("expected null outbox repository, got %T", repo)
	}
}

func TestNewEventPublisherFallsBackToLog(t *testing.T) {
	p, closeFn, err := newEventPublisher(&config.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if _, ok := p.(*eventpublisher.LogPublisher); !ok {
		t.Fatalf("expected log publisher, got %T", p)
	}
}

func TestNewEventPublisherBadBrokerURL(t *testing.T) {
	if _, _, err := newEventPublisher(&config.Config{AMQPURL: "amqp://127.0.0.1:1/", AMQPExchange: "x"}, zerolog.Nop()); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestSweepRateLimiterStopsOnCancel(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweepRateLimiter(ctx, rl, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
