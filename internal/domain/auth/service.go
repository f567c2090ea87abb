package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/core/tx"
	"taller/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service provides authentication and authorization logic.
type Service struct {
	userRepo   UserRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(userRepo UserRepository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		userRepo:   userRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// CreateUser provisions a user with roles. Used by the seed command and by
// admins; there is no self-registration.
func (s *Service) CreateUser(ctx context.Context, email, password, name string, roles []string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	for _, r := range roles {
		if _, ok := rolePermissions[r]; !ok && r != RoleAdmin {
			return nil, apperror.NewValidation("unknown role").WithDetail("role", r)
		}
	}

	exists, err := s.userRepo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(email, string(passwordHash))
	user.Name = name
	user.Roles = roles
	for _, r := range roles {
		if r == RoleAdmin {
			user.IsAdmin = true
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info(ctx, "user created",
		"user_id", user.ID,
		"email", user.Email,
		"roles", strings.Join(roles, ","))

	return user, nil
}

// Login authenticates a user and returns an access token. Failed attempts
// count toward a temporary lockout; the response never reveals whether the
// email or the password was wrong.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Equalize timing between unknown email and bad password.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
			[]byte(creds.Password))
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if updateErr := s.saveLoginState(ctx, user); updateErr != nil {
			logger.Warn(ctx, "failed to record failed login", "error", updateErr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin()
	if err := s.saveLoginState(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record successful login", "error", err)
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	logger.Info(ctx, "user logged in",
		"user_id", user.ID,
		"email", user.Email)

	return &TokenPair{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, user, nil
}

// GetUser retrieves a user by id.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers retrieves users with filtering.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.userRepo.List(ctx, filter)
}

// SetActive enables or disables a user account.
func (s *Service) SetActive(ctx context.Context, userID id.ID, active bool) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsActive = active
	user.UpdatedAt = time.Now().UTC()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Update(ctx, user)
	})
}

func (s *Service) saveLoginState(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Update(ctx, user)
	})
}
