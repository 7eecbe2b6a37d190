package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	LeaveTypeSick   = "sick"
	LeaveTypeCasual = "casual"
)

// LeaveTypes is the fixed set of leave types, in the order summaries list them.
var LeaveTypes = []string{LeaveTypeCasual, LeaveTypeSick}

const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

func IsValidLeaveType(leaveType string) bool {
	return leaveType == LeaveTypeSick || leaveType == LeaveTypeCasual
}

type LeaveRequest struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"not null;index:idx_leave_user_status_year" json:"userId"`
	Type   string `gorm:"type:varchar(20);not null" json:"type"`

	// FromDate and ToDate are YYYY-MM-DD keys, so range checks compare them as strings.
	FromDate string `gorm:"type:varchar(10);not null" json:"fromDate"`
	ToDate   string `gorm:"type:varchar(10);not null" json:"toDate"`
	Reason   string `gorm:"type:text;not null" json:"reason"`

	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index;index:idx_leave_user_status_year" json:"status"`
	ApprovedByID   *uint      `json:"approvedById"`
	ApprovedByRole *string    `gorm:"type:varchar(20)" json:"approvedByRole"`
	DecidedAt      *time.Time `json:"decidedAt"`

	TotalDays int `gorm:"not null;default:1" json:"totalDays"`
	LeaveYear int `gorm:"not null;index:idx_leave_user_status_year" json:"leaveYear"`

	User       *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ApprovedBy *User `gorm:"foreignKey:ApprovedByID" json:"approvedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// CalculateTotalDays returns the inclusive day count of the request.
func (l *LeaveRequest) CalculateTotalDays() (int, error) {
	from, err := ParseDate(l.FromDate)
	if err != nil {
		return 0, fmt.Errorf("from date: %w", err)
	}
	to, err := ParseDate(l.ToDate)
	if err != nil {
		return 0, fmt.Errorf("to date: %w", err)
	}
	days := DaysInclusive(from, to)
	if days < 1 {
		return 0, fmt.Errorf("to date %s is before from date %s", l.ToDate, l.FromDate)
	}
	return days, nil
}

// BeforeSave keeps TotalDays in sync with the date range.
func (l *LeaveRequest) BeforeSave(tx *gorm.DB) error {
	days, err := l.CalculateTotalDays()
	if err != nil {
		return err
	}
	l.TotalDays = days
	return nil
}

func (l *LeaveRequest) IsPending() bool {
	return l.Status == LeaveStatusPending
}
