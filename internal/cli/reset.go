package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/security"
	"github.com/terraincognita07/moodify/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const temporaryPasswordLength = 12

var (
	ErrResetEmailRequired    = errors.New("email is required")
	ErrResetUserNotFound     = errors.New("user not found")
	ErrResetPasswordMismatch = errors.New("passwords do not match")
)

type ResetUserRepository interface {
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID uint, passwordHash string, mustChangePassword bool) error
}

// ResetOptions controls reset-password. With Prompt set the operator types
// the new password twice; otherwise a temporary one is generated and the
// user must change it at next login.
type ResetOptions struct {
	Email      string
	Prompt     bool
	Out        io.Writer
	ReadSecret func(label string) (string, error)
}

func ResetPassword(ctx context.Context, users ResetUserRepository, opts ResetOptions) error {
	email := services.NormalizeAuthEmail(opts.Email)
	if email == "" {
		return ErrResetEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	user, err := users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrResetUserNotFound, email)
		}
		return fmt.Errorf("load user: %w", err)
	}

	password, mustChange, err := chooseResetPassword(opts)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := users.UpdatePassword(ctx, user.ID, string(hash), mustChange); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	fmt.Fprintf(out, "Password reset for %s\n", email)
	if mustChange {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
		fmt.Fprintln(out, "User must change password on next login.")
	}
	return nil
}

func chooseResetPassword(opts ResetOptions) (string, bool, error) {
	if !opts.Prompt {
		password, err := security.TemporaryPassword(temporaryPasswordLength)
		if err != nil {
			return "", false, fmt.Errorf("generate temporary password: %w", err)
		}
		return password, true, nil
	}

	readSecret := opts.ReadSecret
	if readSecret == nil {
		readSecret = terminalSecretReader(os.Stdin, os.Stderr)
	}
	password, err := readSecret("New password: ")
	if err != nil {
		return "", false, fmt.Errorf("read password: %w", err)
	}
	confirm, err := readSecret("Confirm password: ")
	if err != nil {
		return "", false, fmt.Errorf("read password: %w", err)
	}
	if password != confirm {
		return "", false, ErrResetPasswordMismatch
	}
	if err := services.ValidatePasswordStrength(password); err != nil {
		return "", false, err
	}
	return password, false, nil
}

func terminalSecretReader(stdin *os.File, prompt io.Writer) func(string) (string, error) {
	return func(label string) (string, error) {
		fmt.Fprint(prompt, label)
		secret, err := readSecretLine(stdin)
		fmt.Fprintln(prompt)
		return secret, err
	}
}

func readLine(reader io.Reader) (string, error) {
	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
