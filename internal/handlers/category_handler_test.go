package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/BudHamud/safe/internal/catalog"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/services"
)

// --- mock category service ---

type mockCategoryService struct {
	listCategoriesFn   func(userID string) ([]catalog.Category, error)
	getCategoryUsageFn func(userID string) ([]catalog.Usage, error)
	createCategoryFn   func(userID, label, icon string) (*catalog.Category, error)
	renameCategoryFn   func(userID, oldTag, newTag, newIcon string) (int64, error)
	mergeCategoryFn    func(userID, fromTag, intoTag string) (int64, error)
	deleteCategoryFn   func(userID, tag string) (int64, error)
}

func (m *mockCategoryService) ListCategories(userID string) ([]catalog.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(userID)
	}
	return []catalog.Category{}, nil
}

func (m *mockCategoryService) GetCategoryUsage(userID string) ([]catalog.Usage, error) {
	if m.getCategoryUsageFn != nil {
		return m.getCategoryUsageFn(userID)
	}
	return []catalog.Usage{}, nil
}

func (m *mockCategoryService) CreateCategory(userID, label, icon string) (*catalog.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, label, icon)
	}
	return &catalog.Category{ID: catalog.ID(label), Label: label, Icon: icon, Custom: true}, nil
}

func (m *mockCategoryService) RenameCategory(userID, oldTag, newTag, newIcon string) (int64, error) {
	if m.renameCategoryFn != nil {
		return m.renameCategoryFn(userID, oldTag, newTag, newIcon)
	}
	return 0, nil
}

func (m *mockCategoryService) MergeCategory(userID, fromTag, intoTag string) (int64, error) {
	if m.mergeCategoryFn != nil {
		return m.mergeCategoryFn(userID, fromTag, intoTag)
	}
	return 0, nil
}

func (m *mockCategoryService) DeleteCategory(userID, tag string) (int64, error) {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, tag)
	}
	return 0, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/categories", handler.ListCategories)
	auth.POST("/categories", handler.CreateCategory)
	auth.PUT("/categories/rename", handler.RenameCategory)
	auth.PUT("/categories/merge", handler.MergeCategory)
	auth.DELETE("/categories", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_ListCategories(t *testing.T) {
	catSvc := &mockCategoryService{
		listCategoriesFn: func(string) ([]catalog.Category, error) {
			return []catalog.Category{
				{ID: "comida", Label: "Comida", Icon: "🍔"},
				{ID: "gym", Label: "Gym", Icon: "🏋️", Custom: true},
			}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/categories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cats := parseJSON(t, rec)["categories"].([]interface{})
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	if cats[1].(map[string]interface{})["custom"] != true {
		t.Error("expected second category to be custom")
	}
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, audit))

		rec := doRequest(r, "POST", "/categories", `{"label":"Gym","icon":"🏋️"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["label"] != "Gym" {
			t.Errorf("expected label Gym, got %v", cat["label"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditCreateCategory {
			t.Errorf("expected create audit entry, got %v", audit.entries)
		}
	})

	t.Run("returns 409 on duplicate", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(_, _, _ string) (*catalog.Category, error) {
				return nil, apperrors.ErrCategoryExists
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"label":"Comida"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_EXISTS")
	})

	t.Run("returns 400 on missing label", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"icon":"🏋️"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_RenameCategory(t *testing.T) {
	t.Run("returns affected rows", func(t *testing.T) {
		var gotOld, gotNew, gotIcon string
		catSvc := &mockCategoryService{
			renameCategoryFn: func(_, oldTag, newTag, newIcon string) (int64, error) {
				gotOld, gotNew, gotIcon = oldTag, newTag, newIcon
				return 4, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/rename", `{"old_tag":"Super","new_tag":"Mercado","new_icon":"🛒"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotOld != "Super" || gotNew != "Mercado" || gotIcon != "🛒" {
			t.Errorf("unexpected arguments %q %q %q", gotOld, gotNew, gotIcon)
		}
		if parseJSON(t, rec)["affected"].(float64) != 4 {
			t.Error("expected 4 affected movements")
		}
	})

	t.Run("returns 400 when a field is missing", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/rename", `{"old_tag":"Super","new_tag":"Mercado"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for an unknown category", func(t *testing.T) {
		catSvc := &mockCategoryService{
			renameCategoryFn: func(_, _, _, _ string) (int64, error) { return 0, apperrors.ErrCategoryNotFound },
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/rename", `{"old_tag":"Nada","new_tag":"Algo","new_icon":"✨"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_MergeCategory(t *testing.T) {
	var gotFrom, gotInto string
	catSvc := &mockCategoryService{
		mergeCategoryFn: func(_, from, into string) (int64, error) {
			gotFrom, gotInto = from, into
			return 2, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

	rec := doRequest(r, "PUT", "/categories/merge", `{"from_tag":"Cafe","into_tag":"Comida"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotFrom != "Cafe" || gotInto != "Comida" {
		t.Errorf("unexpected arguments %q %q", gotFrom, gotInto)
	}
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("reads the tag from the query", func(t *testing.T) {
		var gotTag string
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, tag string) (int64, error) {
				gotTag = tag
				return 5, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/categories?tag=Salidas%20nocturnas", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotTag != "Salidas nocturnas" {
			t.Errorf("expected decoded tag, got %q", gotTag)
		}
	})

	t.Run("returns 400 without tag", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/categories", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
