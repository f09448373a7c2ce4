package domain

import "time"

// OfficialRole scopes what part of the hierarchy an official administers.
type OfficialRole string

const (
	RoleWardOfficer   OfficialRole = "WARD_OFFICER"
	RoleDistrictAdmin OfficialRole = "DISTRICT_ADMIN"
	RoleStateAdmin    OfficialRole = "STATE_ADMIN"
)

// Official is a government staff account that tracks issue resolution.
type Official struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         OfficialRole
	WardNumber   *string
	District     *string
	State        *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
