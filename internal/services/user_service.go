package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db          *gorm.DB
	defaultGoal decimal.Decimal
}

// NewUserService creates a new UserServicer. New users start with
// defaultGoal as their monthly goal.
func NewUserService(db *gorm.DB, defaultGoal decimal.Decimal) UserServicer {
	return &userService{db: db, defaultGoal: defaultGoal}
}

// CreateUser registers a new user
func (s *userService) CreateUser(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("LOWER(username) = ?", strings.ToLower(username)).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:        username,
		Password:        string(hashedPassword),
		MonthlyGoal:     s.defaultGoal,
		DisplayCurrency: string(currency.Stored),
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	return findUser(s.db, id)
}

func findUser(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// AttemptLogin checks the credentials. Unknown users and wrong passwords
// fail the same way.
func (s *userService) AttemptLogin(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// UpdateMonthlyGoal sets the spending goal. Zero disables the goal ring.
func (s *userService) UpdateMonthlyGoal(userID string, goal decimal.Decimal) (*models.User, error) {
	if goal.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly goal cannot be negative")
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("monthly_goal", goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.MonthlyGoal = goal
	return user, nil
}

// UpdatePreferences changes the display currency and travel mode.
func (s *userService) UpdatePreferences(userID string, update PreferencesUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.DisplayCurrency != nil {
		code, err := currency.ParseCode(string(*update.DisplayCurrency))
		if err != nil {
			return nil, apperrors.ErrInvalidCurrency
		}
		updates["display_currency"] = string(code)
		user.DisplayCurrency = string(code)
	}
	if update.TravelModeStart != nil {
		raw := strings.TrimSpace(*update.TravelModeStart)
		if raw == "" {
			updates["travel_mode_start"] = nil
			user.TravelModeStart = nil
		} else {
			d, ok := dates.Parse(raw, timeNow())
			if !ok {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "travel mode start is not a valid date")
			}
			iso := d.ISO()
			updates["travel_mode_start"] = iso
			user.TravelModeStart = &iso
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// StoreRefreshTokenHash saves the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}
