package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atlasbank/core-banking/internal/auth"
	"github.com/atlasbank/core-banking/internal/domain"
)

type stubClientRepo struct {
	client domain.Client
	err    error
}

func (s stubClientRepo) Create(_ context.Context, _ domain.Client) (domain.Client, error) {
	return domain.Client{}, nil
}

func (s stubClientRepo) GetByCPF(_ context.Context, _ string) (domain.Client, error) {
	return s.client, s.err
}

func (s stubClientRepo) GetByID(_ context.Context, _ string) (domain.Client, error) {
	return s.client, s.err
}

func TestBearerAuth_AllowsValidToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.NewAccessToken(secret, "12345678901", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}

	repo := stubClientRepo{client: domain.Client{ID: "client-1", CPF: "12345678901", Active: true}}
	mw := BearerAuth(secret, repo)

	var resolved domain.Client
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, ok := ClientFrom(r.Context())
		if !ok {
			t.Fatal("expected client in request context")
		}
		resolved = client
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if resolved.ID != "client-1" {
		t.Fatalf("expected client-1 resolved, got %q", resolved.ID)
	}
}

func TestBearerAuth_RejectsMissingHeader(t *testing.T) {
	mw := BearerAuth("test-secret", stubClientRepo{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestBearerAuth_RejectsExpiredToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.NewAccessToken(secret, "12345678901", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}

	mw := BearerAuth(secret, stubClientRepo{client: domain.Client{CPF: "12345678901", Active: true}})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestBearerAuth_RejectsInactiveClient(t *testing.T) {
	secret := "test-secret"
	token, err := auth.NewAccessToken(secret, "12345678901", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating token: %v", err)
	}

	mw := BearerAuth(secret, stubClientRepo{client: domain.Client{CPF: "12345678901", Active: false}})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
