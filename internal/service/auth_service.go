package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civicpulse/internal/auth"
	"github.com/spec-kit/civicpulse/internal/config"
	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/repository"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// UserRegistration carries the citizen signup payload.
type UserRegistration struct {
	Name          string
	Email         string
	Password      string
	AadhaarNumber *string
	PhoneNumber   *string
	Address       *string
	WardNumber    string
	District      string
	State         string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	officials  repository.OfficialRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	OfficialRepo      repository.OfficialRepository
	PasswordResetRepo repository.PasswordResetRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		officials:  deps.OfficialRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterUser creates a new citizen account.
func (s *AuthService) RegisterUser(ctx context.Context, input UserRegistration) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, errors.New("email already registered")
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:          input.Name,
		Email:         input.Email,
		PasswordHash:  hash,
		AadhaarNumber: input.AadhaarNumber,
		PhoneNumber:   input.PhoneNumber,
		Address:       input.Address,
		WardNumber:    input.WardNumber,
		District:      input.District,
		State:         input.State,
		Status:        domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// LoginUser authenticates a citizen.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, errors.New("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// LoginOfficial authenticates an official and returns a role-bearing token.
func (s *AuthService) LoginOfficial(ctx context.Context, email, password string) (*domain.Official, string, time.Time, error) {
	official, err := s.officials.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !official.Active {
		return nil, "", time.Time{}, errors.New("official inactive")
	}
	if err := auth.ComparePassword(official.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(official.ID, domain.SubjectTypeOfficial, &official.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return official, token, exp, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset persists a reset token for either citizen or official email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	subjectType := domain.SubjectTypeUser
	subjectID := ""

	if user, err := s.users.GetByEmail(ctx, email); err == nil {
		subjectID = user.ID
	} else if err == pgx.ErrNoRows {
		official, officialErr := s.officials.GetByEmail(ctx, email)
		if officialErr != nil {
			return nil, officialErr
		}
		subjectType = domain.SubjectTypeOfficial
		subjectID = official.ID
	} else {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return errors.New("token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
	case domain.SubjectTypeOfficial:
		official, err := s.officials.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		official.PasswordHash = hash
		if err := s.officials.Update(ctx, official); err != nil {
			return err
		}
	default:
		return errors.New("unknown subject type")
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch subject.Type {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
			return errors.New("invalid credentials")
		}
		user.PasswordHash = hash
		return s.users.Update(ctx, user)
	case domain.SubjectTypeOfficial:
		official, err := s.officials.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(official.PasswordHash, currentPassword); err != nil {
			return errors.New("invalid credentials")
		}
		official.PasswordHash = hash
		return s.officials.Update(ctx, official)
	default:
		return errors.New("unknown subject")
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
