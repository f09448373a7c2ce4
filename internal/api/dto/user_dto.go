package dto

import "time"

// UserRegisterRequest payload for new citizens.
type UserRegisterRequest struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	AadhaarNumber *string `json:"aadhaar_number,omitempty"`
	PhoneNumber   *string `json:"phone_number,omitempty"`
	Address       *string `json:"address,omitempty"`
	WardNumber    string  `json:"ward_number"`
	District      string  `json:"district"`
	State         string  `json:"state"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetRequest asks for a reset token by email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest changes the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserProfileResponse is the citizen profile view.
type UserProfileResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PhoneNumber     *string   `json:"phone_number,omitempty"`
	Address         *string   `json:"address,omitempty"`
	WardNumber      string    `json:"ward_number"`
	District        string    `json:"district"`
	State           string    `json:"state"`
	IsVerified      bool      `json:"is_verified"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// BadgeResponse is one earned badge.
type BadgeResponse struct {
	BadgeType   string    `json:"badge_type"`
	BadgeName   string    `json:"badge_name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}
