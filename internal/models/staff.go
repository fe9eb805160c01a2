package models

import "time"

type StaffRole string

const (
	StaffRoleStaff StaffRole = "staff"
	StaffRoleAdmin StaffRole = "admin"
)

type Staff struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	// AllowedIPs holds exact addresses, wildcard patterns, or CIDR blocks.
	// Empty means the account may log in from anywhere.
	AllowedIPs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s Staff) IsAdmin() bool { return s.Role == StaffRoleAdmin }
