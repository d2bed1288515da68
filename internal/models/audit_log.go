package models

// AuditLog is one entry of the back-office trail. UserID is empty for writes
// made by the grants pipeline. Changes holds the JSON-encoded request fields.
type AuditLog struct {
	Base
	UserID       string `gorm:"size:128;index" json:"user_id,omitempty"`
	Action       string `gorm:"size:64;not null;index" json:"action"`
	ResourceType string `gorm:"size:64;not null;index:idx_audit_resource" json:"resource_type"`
	ResourceID   string `gorm:"size:128;index:idx_audit_resource" json:"resource_id,omitempty"`
	IPAddress    string `gorm:"size:64" json:"ip_address,omitempty"`
	Changes      string `gorm:"type:text" json:"changes,omitempty"`
}
