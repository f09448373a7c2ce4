package domain

import "time"

// UserStatus represents lifecycle states for a citizen account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for citizens who report and vote on issues.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	AadhaarNumber   *string
	PhoneNumber     *string
	Address         *string
	WardNumber      string
	District        string
	State           string
	IsVerified      bool
	Status          UserStatus
	ProfileImageURL *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
