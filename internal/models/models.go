package models

import "time"

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Password       string    `json:"-"`
	Role           string    `json:"role"`
	BalanceMinutes int       `json:"balanceMinutes"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleRenter     = "renter"
)

type Pc struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	MACAddress string     `json:"macAddress,omitempty"`
	Status     string     `json:"status"`
	LastPing   *time.Time `json:"lastPing,omitempty"`
}

const (
	PcStatusOnline    = "online"
	PcStatusOffline   = "offline"
	PcStatusInSession = "in_session"
)

// RentalSession is a time-bounded assignment of one PC to one user.
type RentalSession struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	PcID            int64      `json:"pcId"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	AssignedMinutes int        `json:"assignedMinutes"`
	Status          string     `json:"status"`
}

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// SessionDetail is a RentalSession joined with its user and PC for display.
// Either joined field may be nil when the referenced row no longer exists.
type SessionDetail struct {
	RentalSession
	User *User `json:"user,omitempty"`
	Pc   *Pc   `json:"pc,omitempty"`
}

type AdminLog struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"adminId"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalPcs       int `json:"totalPcs"`
	ActiveSessions int `json:"activeSessions"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleRenter:
		return true
	}
	return false
}

func ValidPcStatus(status string) bool {
	switch status {
	case PcStatusOnline, PcStatusOffline, PcStatusInSession:
		return true
	}
	return false
}
