package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token, err := manager.Generate(&domain.User{ID: "user-1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantReason string
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantReason: "missing"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantReason: "format"},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantReason: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if user, ok := domain.UserFromContext(r.Context()); ok {
					gotUser = user.ID
				}
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(manager, m)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantReason == "" {
				if gotUser != "user-1" {
					t.Fatalf("expected user-1 in context, got %q", gotUser)
				}
				return
			}
			if got := testutil.ToFloat64(m.AuthFailures.WithLabelValues(tt.wantReason)); got != 1 {
				t.Fatalf("expected auth failure %q to be counted, got %v", tt.wantReason, got)
			}
		})
	}
}

func TestStaticUser(t *testing.T) {
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := domain.UserFromContext(r.Context())
		gotUser = user.ID
	})

	StaticUser("local")(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if gotUser != "local" {
		t.Fatalf("expected static user, got %q", gotUser)
	}
}
