package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	up := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("unreachable") })

	tests := []struct {
		name       string
		db, cache  Pinger
		wantStatus int
		wantBody   string
	}{
		{"all up", up, up, http.StatusOK, `{"status":"ok","database":"ok","cache":"ok"}`},
		{"cache down is still healthy", up, down, http.StatusOK, `{"status":"ok","database":"ok","cache":"down"}`},
		{"database down", down, nil, http.StatusServiceUnavailable, `{"status":"unavailable","database":"down"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/healthz", NewHealthHandler(tt.db, tt.cache).Health)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
