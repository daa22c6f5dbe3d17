package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/moodify/internal/logger"
	"github.com/terraincognita07/moodify/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAuthRegisterInvalid   = errors.New("auth register invalid input")
	ErrAuthPasswordMismatch  = errors.New("auth password mismatch")
	ErrAuthEmailExists       = errors.New("auth email already exists")
	ErrAuthDisplayNameNeeded = errors.New("auth display name required")
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, userID uint, at time.Time) error
}

type RegistrationInput struct {
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type AuthService struct {
	users AuthUserRepository
	log   *logger.Logger
	now   func() time.Time
}

func NewAuthService(users AuthUserRepository, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{users: users, log: log.With("service", "auth"), now: time.Now}
}

func (service *AuthService) Register(ctx context.Context, input RegistrationInput) (models.User, error) {
	email := NormalizeAuthEmail(input.Email)
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return models.User{}, ErrAuthRegisterInvalid
	}
	displayName, err := NormalizeDisplayName(input.DisplayName)
	if err != nil {
		return models.User{}, err
	}
	if displayName == "" {
		return models.User{}, ErrAuthDisplayNameNeeded
	}
	if password != strings.TrimSpace(input.ConfirmPassword) {
		return models.User{}, ErrAuthPasswordMismatch
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return models.User{}, ErrAuthEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    service.now().UTC(),
	}
	if err := service.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate checks the credentials and stamps the login time. A failed
// stamp is logged, not returned.
func (service *AuthService) Authenticate(ctx context.Context, emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}

	loginAt := service.now().UTC()
	if err := service.users.TouchLastLogin(ctx, user.ID, loginAt); err != nil {
		service.log.Warn("record last login failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &loginAt
	}
	return user, nil
}

func (service *AuthService) FindByID(ctx context.Context, userID uint) (models.User, error) {
	return service.users.FindByID(ctx, userID)
}
