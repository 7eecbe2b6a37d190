package models

import (
	"math"
	"time"
)

const (
	EventCheckIn  = "checkIn"
	EventLunchOut = "lunchOut"
	EventLunchIn  = "lunchIn"
	EventBreakOut = "breakOut"
	EventBreakIn  = "breakIn"
	EventCheckOut = "checkOut"
)

// EventTypes lists the attendance event types in their natural order within a day.
var EventTypes = []string{
	EventCheckIn,
	EventLunchOut,
	EventLunchIn,
	EventBreakOut,
	EventBreakIn,
	EventCheckOut,
}

func IsValidEventType(eventType string) bool {
	for _, t := range EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// AttendanceRecord is the ledger of one user's events on one calendar day.
type AttendanceRecord struct {
	ID         uint              `gorm:"primarykey" json:"id"`
	UserID     uint              `gorm:"not null;uniqueIndex:idx_attendance_user_date" json:"userId"`
	Role       string            `gorm:"type:varchar(20);not null;index" json:"role"`
	Date       string            `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_user_date;index" json:"date"`
	TotalHours float64           `gorm:"not null;default:0" json:"totalHours"`
	Events     []AttendanceEvent `gorm:"foreignKey:RecordID" json:"events"`
	User       *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

type AttendanceEvent struct {
	ID       uint      `gorm:"primarykey" json:"-"`
	RecordID uint      `gorm:"not null;uniqueIndex:idx_attendance_event_type" json:"-"`
	Type     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_attendance_event_type" json:"type"`
	Time     time.Time `gorm:"not null" json:"time"`
}

func (AttendanceEvent) TableName() string {
	return "attendance_events"
}

func (r *AttendanceRecord) FindEvent(eventType string) *AttendanceEvent {
	for i := range r.Events {
		if r.Events[i].Type == eventType {
			return &r.Events[i]
		}
	}
	return nil
}

func (r *AttendanceRecord) HasEvent(eventType string) bool {
	return r.FindEvent(eventType) != nil
}

// CalculateHours returns checkOut - checkIn in hours rounded to one decimal,
// or 0 when either end is missing.
func (r *AttendanceRecord) CalculateHours() float64 {
	in := r.FindEvent(EventCheckIn)
	out := r.FindEvent(EventCheckOut)
	if in == nil || out == nil {
		return 0
	}
	return RoundHours(out.Time.Sub(in.Time))
}

func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*10) / 10
}

// IsOpen reports whether the user checked in and has not checked out yet.
func (r *AttendanceRecord) IsOpen() bool {
	return r.HasEvent(EventCheckIn) && !r.HasEvent(EventCheckOut)
}
