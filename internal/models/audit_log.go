package models

// Resource types recorded in the audit trail.
const (
	AuditResourceTransaction = "transaction"
	AuditResourceCategory    = "category"
	AuditResourceUser        = "user"
)

// AuditLog is one mutating call made by a user: what changed, on which
// movement, category or profile, and from where. Category entries use the
// category label as ResourceID since categories are derived from tags.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string `gorm:"not null;index" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty"`
	IPAddress    string `gorm:"size:45" json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
