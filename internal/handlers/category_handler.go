package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Label string `json:"label" binding:"required,max=100"`
	Icon  string `json:"icon" binding:"max=16"`
}

// RenameCategoryRequest represents the request payload for renaming a category.
type RenameCategoryRequest struct {
	OldTag  string `json:"old_tag" binding:"required,max=100"`
	NewTag  string `json:"new_tag" binding:"required,max=100"`
	NewIcon string `json:"new_icon" binding:"required,max=16"`
}

// MergeCategoryRequest represents the request payload for merging two categories.
type MergeCategoryRequest struct {
	FromTag string `json:"from_tag" binding:"required,max=100"`
	IntoTag string `json:"into_tag" binding:"required,max=100"`
}

// ListCategories returns the user's category catalog
// @Summary     List categories
// @Description Built-in categories plus those discovered in the user's movements and custom overrides
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  catalog.Category "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.ListCategories(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory handles the creation of a custom category
// @Summary     Create category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} catalog.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Category exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, req.Label, req.Icon)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateCategory, models.AuditResourceCategory, category.ID, c.ClientIP(),
		map[string]interface{}{"label": category.Label, "icon": category.Icon})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// RenameCategory moves every movement of a category to a new label and icon
// @Summary     Rename category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RenameCategoryRequest true "Old and new label"
// @Success     200 {object} AffectedResponse "Number of retagged movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/rename [put]
func (h *CategoryHandler) RenameCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenameCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	n, err := h.categoryService.RenameCategory(userID, req.OldTag, req.NewTag, req.NewIcon)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditRenameCategory, models.AuditResourceCategory, req.OldTag, c.ClientIP(),
		map[string]interface{}{"new_tag": req.NewTag, "new_icon": req.NewIcon, "affected": n})

	c.JSON(http.StatusOK, AffectedResponse{Affected: n})
}

// MergeCategory moves every movement of one category into another
// @Summary     Merge categories
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MergeCategoryRequest true "Source and target label"
// @Success     200 {object} AffectedResponse "Number of retagged movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/merge [put]
func (h *CategoryHandler) MergeCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MergeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	n, err := h.categoryService.MergeCategory(userID, req.FromTag, req.IntoTag)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditMergeCategory, models.AuditResourceCategory, req.FromTag, c.ClientIP(),
		map[string]interface{}{"into_tag": req.IntoTag, "affected": n})

	c.JSON(http.StatusOK, AffectedResponse{Affected: n})
}

// DeleteCategory hides a category and moves its movements to the catch-all
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       tag query string true "Category label"
// @Success     200 {object} AffectedResponse "Number of reassigned movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tag := c.Query("tag")
	if tag == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "tag is required"))
		return
	}

	n, err := h.categoryService.DeleteCategory(userID, tag)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteCategory, models.AuditResourceCategory, tag, c.ClientIP(),
		map[string]interface{}{"affected": n})

	c.JSON(http.StatusOK, AffectedResponse{Affected: n})
}
