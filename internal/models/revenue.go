package models

import "time"

const (
	RevenueTypeSalary    = "salary"
	RevenueTypeBonus     = "bonus"
	RevenueTypeDeduction = "deduction"
	RevenueTypeStipend   = "stipend"
	RevenueTypeOther     = "other"
)

func IsValidRevenueType(revenueType string) bool {
	switch revenueType {
	case RevenueTypeSalary, RevenueTypeBonus, RevenueTypeDeduction, RevenueTypeStipend, RevenueTypeOther:
		return true
	}
	return false
}

type RevenueEntry struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	ManagerID   *uint     `gorm:"index" json:"managerId"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Type        string    `gorm:"type:varchar(20);not null;default:'salary'" json:"type"`
	Description string    `json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (RevenueEntry) TableName() string {
	return "revenue_entries"
}
