package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/catalog"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/models"
)

// categoryService handles category-related business logic. Categories are
// not stored as rows of their own: the index is derived from movement tags
// and the user's overrides on every read.
type categoryService struct {
	db      *gorm.DB
	catalog *catalog.Catalog
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, cat *catalog.Catalog) CategoryServicer {
	if cat == nil {
		cat = catalog.Default()
	}
	return &categoryService{db: db, catalog: cat}
}

func (s *categoryService) load(userID string) ([]models.Transaction, []models.CustomCategory, error) {
	txs, err := loadTransactions(s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	var overrides []models.CustomCategory
	if err := s.db.Where("user_id = ?", userID).Order("created_at").Find(&overrides).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, overrides, nil
}

// ListCategories returns the derived category index, A-Z.
func (s *categoryService) ListCategories(userID string) ([]catalog.Category, error) {
	txs, overrides, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.Discover(txs, overrides), nil
}

// GetCategoryUsage counts movements per category, most used first.
func (s *categoryService) GetCategoryUsage(userID string) ([]catalog.Usage, error) {
	txs, overrides, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	return catalog.CountUsage(s.catalog.Discover(txs, overrides), txs), nil
}

// CreateCategory adds a custom category. A previously hidden label is
// brought back instead of duplicated.
func (s *categoryService) CreateCategory(userID, label, icon string) (*catalog.Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category label is required")
	}
	if icon == "" {
		icon = s.catalog.IconFor(&models.Transaction{Tag: label})
	}

	txs, overrides, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	if _, ok := find(s.catalog.Discover(txs, overrides), label); ok {
		return nil, apperrors.ErrCategoryExists
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteOverrides(tx, overrides, label); err != nil {
			return err
		}
		return tx.Create(&models.CustomCategory{UserID: userID, Label: label, Icon: icon}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &catalog.Category{ID: catalog.ID(label), Label: label, Icon: icon, Custom: true}, nil
}

// RenameCategory moves every movement tagged oldTag to newTag and newIcon.
// The new label becomes a custom category and the old one is hidden. It
// returns the number of movements rewritten.
func (s *categoryService) RenameCategory(userID, oldTag, newTag, newIcon string) (int64, error) {
	oldTag, newTag = strings.TrimSpace(oldTag), strings.TrimSpace(newTag)
	if oldTag == "" || newTag == "" || newIcon == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "old tag, new tag and new icon are required")
	}

	txs, overrides, err := s.load(userID)
	if err != nil {
		return 0, err
	}
	if _, ok := find(s.catalog.Discover(txs, overrides), oldTag); !ok {
		return 0, apperrors.ErrCategoryNotFound
	}
	return s.retag(userID, txs, overrides, oldTag, newTag, newIcon)
}

// MergeCategory files everything under fromTag into the existing category
// intoTag, taking over its label and icon.
func (s *categoryService) MergeCategory(userID, fromTag, intoTag string) (int64, error) {
	if strings.TrimSpace(fromTag) == "" || strings.TrimSpace(intoTag) == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "both categories are required")
	}
	if catalog.Matches(fromTag, intoTag) {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot merge a category into itself")
	}

	txs, overrides, err := s.load(userID)
	if err != nil {
		return 0, err
	}
	cats := s.catalog.Discover(txs, overrides)
	if _, ok := find(cats, fromTag); !ok {
		return 0, apperrors.ErrCategoryNotFound
	}
	into, ok := find(cats, intoTag)
	if !ok {
		return 0, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "target category not found")
	}
	return s.retag(userID, txs, overrides, fromTag, into.Label, into.Icon)
}

// DeleteCategory moves the category's movements to the catch-all category
// and hides the label.
func (s *categoryService) DeleteCategory(userID, tag string) (int64, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "tag is required")
	}
	label, icon := s.catalog.Reassign()
	if catalog.Matches(tag, label) {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "the catch-all category cannot be deleted")
	}

	txs, overrides, err := s.load(userID)
	if err != nil {
		return 0, err
	}
	if _, ok := find(s.catalog.Discover(txs, overrides), tag); !ok {
		return 0, apperrors.ErrCategoryNotFound
	}

	var moved int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if moved, err = updateTags(tx, userID, txs, tag, label, icon); err != nil {
			return err
		}
		if err := deleteOverrides(tx, overrides, tag); err != nil {
			return err
		}
		return tx.Create(&models.CustomCategory{UserID: userID, Label: tag, Hidden: true}).Error
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return moved, nil
}

func (s *categoryService) retag(userID string, txs []models.Transaction, overrides []models.CustomCategory, oldTag, newTag, newIcon string) (int64, error) {
	var moved int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if moved, err = updateTags(tx, userID, txs, oldTag, newTag, newIcon); err != nil {
			return err
		}
		if err := deleteOverrides(tx, overrides, oldTag); err != nil {
			return err
		}
		if !catalog.Matches(oldTag, newTag) {
			if err := deleteOverrides(tx, overrides, newTag); err != nil {
				return err
			}
			if err := tx.Create(&models.CustomCategory{UserID: userID, Label: oldTag, Hidden: true}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.CustomCategory{UserID: userID, Label: newTag, Icon: newIcon}).Error
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return moved, nil
}

// updateTags rewrites the tag and icon of every movement whose tag matches
// from, ignoring case and accents.
func updateTags(db *gorm.DB, userID string, txs []models.Transaction, from, tag, icon string) (int64, error) {
	var ids []string
	for i := range txs {
		if catalog.Matches(txs[i].Tag, from) {
			ids = append(ids, txs[i].ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.Model(&models.Transaction{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Updates(map[string]interface{}{"tag": tag, "icon": icon})
	return result.RowsAffected, result.Error
}

// deleteOverrides removes every override for label.
func deleteOverrides(db *gorm.DB, overrides []models.CustomCategory, label string) error {
	var ids []string
	for _, o := range overrides {
		if catalog.Matches(o.Label, label) {
			ids = append(ids, o.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return db.Unscoped().Where("id IN ?", ids).Delete(&models.CustomCategory{}).Error
}

func find(cats []catalog.Category, label string) (catalog.Category, bool) {
	for _, c := range cats {
		if catalog.Matches(c.Label, label) {
			return c, true
		}
	}
	return catalog.Category{}, false
}
