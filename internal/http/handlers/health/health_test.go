package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all up",
			checks:     []Check{{Name: "postgres", Pinger: ok}, {Name: "redis", Pinger: ok}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "redis down",
			checks:     []Check{{Name: "postgres", Pinger: ok}, {Name: "redis", Pinger: down}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable","dependency":"redis"}`,
		},
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)

			New(sl.Discard(), tt.checks...).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
