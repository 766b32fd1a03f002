package models

// CustomCategory is a per-user category override. Visible entries add a
// label to the discovered catalog, hidden entries remove one from it.
type CustomCategory struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Label  string `gorm:"not null" json:"label"`
	Icon   string `json:"icon"`
	Hidden bool   `gorm:"not null;default:false" json:"hidden"`
}
