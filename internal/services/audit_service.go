package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/models"
)

// Audit actions.
const (
	AuditCreateTransaction = "CREATE_TRANSACTION"
	AuditUpdateTransaction = "UPDATE_TRANSACTION"
	AuditDeleteTransaction = "DELETE_TRANSACTION"
	AuditCancelRecurrence  = "CANCEL_RECURRENCE"
	AuditCreateCategory    = "CREATE_CATEGORY"
	AuditRenameCategory    = "RENAME_CATEGORY"
	AuditMergeCategory     = "MERGE_CATEGORY"
	AuditDeleteCategory    = "DELETE_CATEGORY"
	AuditImport            = "IMPORT_TRANSACTIONS"
	AuditUpdateProfile     = "UPDATE_PROFILE"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and swallowed.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.Named("audit")

	var changesJSON string
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Warnw("unencodable audit changes", "error", err, "action", action)
			data = []byte("{}")
		}
		changesJSON = string(data)
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to write audit entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
