package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/services"
)

func setupPipelineRouter(handler *PipelineHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/backfill", handler.Backfill)
	return r
}

func TestPipelineHandler_Backfill(t *testing.T) {
	t.Run("scans every user without a body", func(t *testing.T) {
		gotUser := "unset"
		svc := &mockTransactionService{
			backfillFn: func(userID string) (*services.BackfillResult, error) {
				gotUser = userID
				return &services.BackfillResult{Scanned: 10, Updated: 7}, nil
			},
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/backfill", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUser != "" {
			t.Errorf("expected empty user scope, got %q", gotUser)
		}
		if parseJSON(t, rec)["updated"].(float64) != 7 {
			t.Error("expected 7 updated")
		}
	})

	t.Run("limits to one user", func(t *testing.T) {
		var gotUser string
		svc := &mockTransactionService{
			backfillFn: func(userID string) (*services.BackfillResult, error) {
				gotUser = userID
				return &services.BackfillResult{}, nil
			},
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/backfill", `{"user_id":"`+testUserID+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUser != testUserID {
			t.Errorf("expected %s, got %q", testUserID, gotUser)
		}
	})

	t.Run("returns 400 on invalid user ID", func(t *testing.T) {
		r := setupPipelineRouter(NewPipelineHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/pipeline/backfill", `{"user_id":"42"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 503 when rates are unavailable", func(t *testing.T) {
		svc := &mockTransactionService{
			backfillFn: func(string) (*services.BackfillResult, error) { return nil, apperrors.ErrRatesUnavailable },
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/backfill", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
