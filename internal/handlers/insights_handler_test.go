package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/recurring"
	"github.com/BudHamud/safe/internal/services"
)

func setupInsightsRouter(handler *InsightsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/dashboard", handler.GetDashboard)
	auth.GET("/stats", handler.GetStats)
	auth.GET("/checklist", handler.GetChecklist)
	return r
}

func TestInsightsHandler_GetDashboard(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		var gotOpts services.ViewOptions
		svc := &mockInsightsService{
			dashboardFn: func(_ string, opts services.ViewOptions) (*insights.Dashboard, error) {
				gotOpts = opts
				return &insights.Dashboard{Month: "2024-04", TravelMode: true}, nil
			},
		}
		r := setupInsightsRouter(NewInsightsHandler(svc))

		rec := doRequest(r, "GET", "/dashboard?date_fallback=today", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["month"] != "2024-04" || result["travel_mode"] != true {
			t.Errorf("unexpected dashboard %v", result)
		}
		if gotOpts.Fallback != dates.FallbackToday {
			t.Error("expected today fallback")
		}
	})

	t.Run("returns 400 on lowercase currency", func(t *testing.T) {
		r := setupInsightsRouter(NewInsightsHandler(&mockInsightsService{}))

		rec := doRequest(r, "GET", "/dashboard?currency=usd", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestInsightsHandler_GetStats(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     insights.Window
		category string
	}{
		{"month window", "?year=2024&month=4", insights.Window{Year: 2024, Month: time.April}, ""},
		{"year window", "?year=2023", insights.YearWindow(2023), ""},
		{"category drill-down", "?year=2024&month=1&category=Comida", insights.Window{Year: 2024, Month: time.January}, "Comida"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got insights.Window
			var gotCategory string
			svc := &mockInsightsService{
				statsFn: func(_ string, w insights.Window, category string, _ services.ViewOptions) (*insights.Stats, error) {
					got, gotCategory = w, category
					return &insights.Stats{Year: w.Year, Month: int(w.Month)}, nil
				},
			}
			r := setupInsightsRouter(NewInsightsHandler(svc))

			rec := doRequest(r, "GET", "/stats"+tt.query, "")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got != tt.want {
				t.Errorf("expected window %+v, got %+v", tt.want, got)
			}
			if gotCategory != tt.category {
				t.Errorf("expected category %q, got %q", tt.category, gotCategory)
			}
		})
	}

	t.Run("defaults to the current year", func(t *testing.T) {
		var got insights.Window
		svc := &mockInsightsService{
			statsFn: func(_ string, w insights.Window, _ string, _ services.ViewOptions) (*insights.Stats, error) {
				got = w
				return &insights.Stats{}, nil
			},
		}
		r := setupInsightsRouter(NewInsightsHandler(svc))

		rec := doRequest(r, "GET", "/stats", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.IsMonth() || got.Year != time.Now().Year() {
			t.Errorf("expected current year window, got %+v", got)
		}
	})
}

func TestInsightsHandler_GetChecklist(t *testing.T) {
	svc := &mockInsightsService{
		checklistFn: func(string, services.ViewOptions) ([]recurring.Entry, error) {
			return []recurring.Entry{{Key: "netflix|suscripciones", Label: "Netflix", IsPaid: true, DueDay: 5}}, nil
		},
	}
	r := setupInsightsRouter(NewInsightsHandler(svc))

	rec := doRequest(r, "GET", "/checklist", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	entries := parseJSON(t, rec)["checklist"].([]interface{})
	if len(entries) != 1 || entries[0].(map[string]interface{})["is_paid"] != true {
		t.Errorf("unexpected checklist %v", entries)
	}
}
