package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/grocery-tracker/internal/apperror"
	"github.com/sakif/grocery-tracker/internal/auth"
	"github.com/sakif/grocery-tracker/internal/model"
	"github.com/sakif/grocery-tracker/internal/repository"
)

const (
	MaxUsernameLength = 64
	MinPasswordLength = 1
)

// phonePattern accepts E.164-style numbers: optional +, 7 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// invalidCredentials is deliberately the same for "no such user" and
// "wrong password" so login can't be used to enumerate usernames.
const invalidCredentials = "invalid username or password"

// PasswordHasher is implemented by *auth.PasswordService.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// AuthService handles registration, login and token checks.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords PasswordHasher
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a user with a bcrypt-hashed password.
// Returns apperror.ErrDuplicate if the username is taken.
func (s *AuthService) Register(ctx context.Context, username, password, phone string) (*model.User, error) {
	username = strings.TrimSpace(username)
	phone = strings.TrimSpace(phone)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if !phonePattern.MatchString(phone) {
		return nil, apperror.ValidationFailed("phone_number", "phone_number must be 7 to 15 digits, optionally starting with +")
	}

	// Friendly early check. The UNIQUE index still catches the race between
	// two registrations of the same name.
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, apperror.Duplicate("user", "username", username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		PhoneNumber:  phone,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized(invalidCredentials)
		}
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("username", user.Username))
			return "", apperror.Unauthorized(invalidCredentials)
		}
		return "", fmt.Errorf("service/auth: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return token, nil
}

// Authorize validates a bearer token and returns the user id it carries.
// Every failure (empty, malformed, expired, bad signature) is ErrUnauthorized.
func (s *AuthService) Authorize(token string) (int64, error) {
	if token == "" {
		return 0, apperror.Unauthorized("missing token")
	}
	userID, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return 0, apperror.Unauthorized("token expired")
		}
		return 0, apperror.Unauthorized("invalid token")
	}
	return userID, nil
}

// CheckOwner is the ownership rule for every per-user operation: the
// authenticated caller may only act on resources whose owner is themselves.
func CheckOwner(callerID, ownerID int64) error {
	if callerID <= 0 || callerID != ownerID {
		return apperror.Forbidden("you do not have access to this resource")
	}
	return nil
}
