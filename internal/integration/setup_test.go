package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/handlers"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/middleware"
	"github.com/BudHamud/safe/internal/rates"
	"github.com/BudHamud/safe/internal/services"
	"github.com/BudHamud/safe/internal/testutil"
	"github.com/BudHamud/safe/internal/validator"
)

const pipelineKey = "pipeline-test-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// testRates: 1 USD = 4 ILS = 0.5 EUR = 1000 ARS.
func testRates() rates.Source {
	return rates.Static{Table: &currency.Table{
		Base: currency.USD,
		Rates: map[currency.Code]decimal.Decimal{
			currency.ILS: decimal.NewFromInt(4),
			currency.EUR: decimal.RequireFromString("0.5"),
			currency.ARS: decimal.NewFromInt(1000),
		},
	}}
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database. A nil source stands for a rate provider that is down.
func setupApp(t *testing.T, source rates.Source) *testApp {
	t.Helper()
	return newApp(testutil.SetupTestDB(t), source)
}

// newApp routes a full application over db. Two apps sharing a db stand in
// for the same deployment with different rate feeds.
func newApp(db *gorm.DB, source rates.Source) *testApp {
	if source == nil {
		source = rates.Static{}
	}
	cat := catalog.Default()

	// Services
	userService := services.NewUserService(db, decimal.NewFromInt(3000))
	transactionService := services.NewTransactionService(db, source, cat)
	categoryService := services.NewCategoryService(db, cat)
	insightsService := services.NewInsightsService(db, decimal.NewFromInt(200))
	importService := services.NewImportService(db, source, cat)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	profileHandler := handlers.NewProfileHandler(userService, categoryService, insightsService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, insightsService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	insightsHandler := handlers.NewInsightsHandler(insightsService)
	importHandler := handlers.NewImportHandler(importService, auditService)
	pipelineHandler := handlers.NewPipelineHandler(transactionService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(pipelineKey))
	pipeline.POST("/backfill", pipelineHandler.Backfill)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.GET("/goal", profileHandler.GetGoal)
	profile.PUT("/goal", profileHandler.UpdateGoal)
	profile.PUT("/preferences", profileHandler.UpdatePreferences)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/summary", transactionHandler.GetMonthSummary)
	transactions.POST("/import", importHandler.Import)
	transactions.GET("/export", importHandler.Export)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/cancel-recurrence", transactionHandler.CancelRecurrence)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/rename", categoryHandler.RenameCategory)
	categories.PUT("/merge", categoryHandler.MergeCategory)
	categories.DELETE("", categoryHandler.DeleteCategory)

	protected.GET("/dashboard", insightsHandler.GetDashboard)
	protected.GET("/stats", insightsHandler.GetStats)
	protected.GET("/checklist", insightsHandler.GetChecklist)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// upload posts content as the multipart "file" field.
func (app *testApp) upload(path, name string, content []byte, token string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", name)
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, username, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, username, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createTransaction posts a movement and returns its JSON.
func (app *testApp) createTransaction(t *testing.T, token, body string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["transaction"].(map[string]interface{})
}
