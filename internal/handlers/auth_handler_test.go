package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/middleware"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/services"
	"github.com/BudHamud/safe/internal/validator"
)

const testUserID = "0190a6e2-7c4b-7d2e-9f3a-1b2c3d4e5f60"

// --- mock services ---

type mockUserService struct {
	createUserFn            func(username, password string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	attemptLoginFn          func(username, password string) (*models.User, error)
	updateMonthlyGoalFn     func(userID string, goal decimal.Decimal) (*models.User, error)
	updatePreferencesFn     func(userID string, update services.PreferencesUpdate) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
}

func (m *mockUserService) CreateUser(username, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) AttemptLogin(username, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(username, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) UpdateMonthlyGoal(userID string, goal decimal.Decimal) (*models.User, error) {
	if m.updateMonthlyGoalFn != nil {
		return m.updateMonthlyGoalFn(userID, goal)
	}
	return &models.User{Base: models.Base{ID: userID}, MonthlyGoal: goal}, nil
}

func (m *mockUserService) UpdatePreferences(userID string, update services.PreferencesUpdate) (*models.User, error) {
	if m.updatePreferencesFn != nil {
		return m.updatePreferencesFn(userID, update)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type auditEntry struct {
	action     string
	resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(_, action, _, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{action: action, resourceID: resourceID})
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(username, _ string) (*models.User, error) {
				return &models.User{
					Base:            models.Base{ID: testUserID},
					Username:        username,
					MonthlyGoal:     decimal.NewFromInt(3000),
					DisplayCurrency: "ILS",
				}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"maria","password":"secret"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["access_token"] == "" {
			t.Error("expected non-empty access_token")
		}
		if result["refresh_token"] == nil || result["refresh_token"] == "" {
			t.Error("expected non-empty refresh_token")
		}
		user := result["user"].(map[string]interface{})
		if user["username"] != "maria" {
			t.Errorf("expected username maria, got %v", user["username"])
		}
		if user["monthly_goal"].(float64) != 3000 {
			t.Errorf("expected monthly_goal 3000, got %v", user["monthly_goal"])
		}
		if user["display_currency"] != "ILS" {
			t.Errorf("expected ILS, got %v", user["display_currency"])
		}
	})

	t.Run("returns 400 on missing username", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"password":"secret"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short username", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"ab","password":"secret"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate username", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"maria","password":"secret"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})

	t.Run("stores refresh token hash", func(t *testing.T) {
		var storedHash string
		userSvc := &mockUserService{
			createUserFn: func(username, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Username: username}, nil
			},
			storeRefreshTokenHashFn: func(_ string, hash string) error {
				storedHash = hash
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"maria","password":"secret"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if len(storedHash) != 64 {
			t.Errorf("expected SHA-256 hex digest (64 chars), got %d chars", len(storedHash))
		}
		result := parseJSON(t, rec)
		if middleware.HashToken(result["refresh_token"].(string)) != storedHash {
			t.Error("stored hash does not match the issued refresh token")
		}
	})

	t.Run("returns 500 when token storage fails", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(username, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Username: username}, nil
			},
			storeRefreshTokenHashFn: func(_, _ string) error {
				return fmt.Errorf("db connection lost")
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/register", `{"username":"maria","password":"secret"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(username, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Username: username}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/login", `{"username":"maria","password":"secret"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["access_token"] == "" {
			t.Error("expected non-empty access_token")
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/login", `{"username":"maria","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, "POST", "/auth/login", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	user := &models.User{Base: models.Base{ID: testUserID}, Username: "maria"}

	t.Run("rotates a valid refresh token", func(t *testing.T) {
		token, err := middleware.GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		stored := middleware.HashToken(token)
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(string) (string, error) { return stored, nil },
			getUserByIDFn:         func(string) (*models.User, error) { return user, nil },
			storeRefreshTokenHashFn: func(_ string, hash string) error {
				stored = hash
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if middleware.HashToken(result["refresh_token"].(string)) != stored {
			t.Error("new refresh token hash was not stored")
		}
	})

	t.Run("returns 401 when the stored hash differs", func(t *testing.T) {
		token, err := middleware.GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(string) (string, error) { return "other", nil },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})

	t.Run("rejects an access token", func(t *testing.T) {
		token, err := middleware.GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 400 without a token", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, "POST", "/auth/refresh", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
