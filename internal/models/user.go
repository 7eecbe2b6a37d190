package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
	RoleIntern   = "intern"
)

var roles = map[string]bool{
	RoleAdmin:    true,
	RoleManager:  true,
	RoleEmployee: true,
	RoleIntern:   true,
}

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;default:'intern';index" json:"role"`
	Phone        string     `json:"phone"`
	Avatar       string     `json:"avatar"`
	TeamName     string     `json:"teamName"`
	Position     string     `json:"position"`
	JoiningDate  time.Time  `json:"joiningDate"`
	Birthday     *time.Time `json:"birthday"`

	// ManagerID is set for employees and interns only; managers and admins never report to anyone.
	ManagerID *uint `gorm:"index" json:"managerId"`
	Manager   *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`

	SickLeaveTotal   int `gorm:"not null;default:0" json:"sickLeaveTotal"`
	CasualLeaveTotal int `gorm:"not null;default:0" json:"casualLeaveTotal"`

	TelegramChatID *int64 `gorm:"uniqueIndex" json:"telegramChatId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func IsValidRole(role string) bool {
	return roles[role]
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsManager() bool { return u.Role == RoleManager }
func (u *User) IsIntern() bool  { return u.Role == RoleIntern }

// CanHaveManager reports whether the role sits below a manager.
func (u *User) CanHaveManager() bool {
	return u.Role == RoleEmployee || u.Role == RoleIntern
}

// ReportsTo reports whether managerID is the user's direct manager.
func (u *User) ReportsTo(managerID uint) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}

// ApplyLeaveDefaults sets the yearly allotment for the user's role.
func (u *User) ApplyLeaveDefaults(sickTotal, casualTotal int) {
	if u.IsIntern() {
		u.SickLeaveTotal = 0
		u.CasualLeaveTotal = 0
		return
	}
	u.SickLeaveTotal = sickTotal
	u.CasualLeaveTotal = casualTotal
}

// LeaveAllotment returns the yearly allotment for a leave type.
func (u *User) LeaveAllotment(leaveType string) int {
	if u.IsIntern() {
		return 0
	}
	switch leaveType {
	case LeaveTypeSick:
		return u.SickLeaveTotal
	case LeaveTypeCasual:
		return u.CasualLeaveTotal
	}
	return 0
}
