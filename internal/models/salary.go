package models

import (
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsValidMonth reports whether month is a YYYY-MM key.
func IsValidMonth(month string) bool {
	return monthPattern.MatchString(month)
}

type SalaryRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_salary_user_month" json:"userId"`
	Month       string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_salary_user_month" json:"month"`
	BaseSalary  float64   `gorm:"not null" json:"baseSalary"`
	Bonus       float64   `gorm:"not null;default:0" json:"bonus"`
	Deductions  float64   `gorm:"not null;default:0" json:"deductions"`
	TotalSalary float64   `gorm:"not null" json:"totalSalary"`
	Type        string    `gorm:"type:varchar(20);not null;default:'salary'" json:"type"`
	UpdatedByID *uint     `json:"updatedById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (SalaryRecord) TableName() string {
	return "salary_records"
}

func (s *SalaryRecord) CalculateTotal() float64 {
	return s.BaseSalary + s.Bonus - s.Deductions
}

func (s *SalaryRecord) BeforeSave(tx *gorm.DB) error {
	if !IsValidMonth(s.Month) {
		return fmt.Errorf("invalid salary month %q", s.Month)
	}
	s.TotalSalary = s.CalculateTotal()
	return nil
}

// RevenueDescription is the key the salary sync upserts the revenue entry by.
func (s *SalaryRecord) RevenueDescription() string {
	return fmt.Sprintf("%s for %s", s.Type, s.Month)
}
