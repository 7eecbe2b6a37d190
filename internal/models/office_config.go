package models

import (
	"time"

	"gorm.io/datatypes"
)

// OfficeConfig is a single-row table with office wide settings.
type OfficeConfig struct {
	ID          uint                        `gorm:"primarykey" json:"id"`
	AllowedIPs  datatypes.JSONSlice[string] `json:"allowedIPs"`
	UpdatedByID *uint                       `json:"updatedById"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (OfficeConfig) TableName() string {
	return "office_configs"
}

// AllowsIP reports whether attendance may be marked from ip.
// An empty allow list admits every address.
func (c *OfficeConfig) AllowsIP(ip string) bool {
	if c == nil || len(c.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range c.AllowedIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}
