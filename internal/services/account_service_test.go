package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/terraincognita07/moodify/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func seedAccount(t *testing.T, repo *stubUserRepo, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Email: "owner@example.com", DisplayName: "Owner", PasswordHash: string(hash)}
	if err := repo.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestValidatePasswordChange(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("StrongPass1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	cases := []struct {
		name                   string
		current, next, confirm string
		want                   error
	}{
		{name: "blank", current: " ", next: "NewPass1", confirm: "NewPass1", want: ErrPasswordChangeInvalidInput},
		{name: "mismatch", current: "StrongPass1", next: "NewPass1", confirm: "OtherPass1", want: ErrPasswordChangeMismatch},
		{name: "wrong current", current: "WrongPass1", next: "NewPass1", confirm: "NewPass1", want: ErrPasswordChangeInvalidCurrent},
		{name: "unchanged", current: "StrongPass1", next: "StrongPass1", confirm: "StrongPass1", want: ErrPasswordChangeMustDiffer},
		{name: "weak", current: "StrongPass1", next: "weakpass", confirm: "weakpass", want: ErrPasswordChangeWeak},
		{name: "ok", current: "StrongPass1", next: "NewPass12", confirm: "NewPass12", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordChange(string(hash), tc.current, tc.next, tc.confirm)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := newStubUserRepo()
	user := seedAccount(t, repo, "StrongPass1")
	service := NewAccountService(repo)

	if err := service.ChangePassword(context.Background(), user.ID, "StrongPass1", "NewPass12", "NewPass12"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	stored := repo.users[user.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("NewPass12")) != nil {
		t.Fatal("expected stored hash to match the new password")
	}
}

func TestUpdateDisplayName(t *testing.T) {
	repo := newStubUserRepo()
	user := seedAccount(t, repo, "StrongPass1")
	service := NewAccountService(repo)

	name, err := service.UpdateDisplayName(context.Background(), user.ID, "  Sky  ")
	if err != nil || name != "Sky" || repo.users[user.ID].DisplayName != "Sky" {
		t.Fatalf("unexpected update result name=%q err=%v", name, err)
	}

	if _, err := service.UpdateDisplayName(context.Background(), user.ID, strings.Repeat("a", 65)); !errors.Is(err, ErrDisplayNameTooLong) {
		t.Fatalf("expected ErrDisplayNameTooLong, got %v", err)
	}
}

func TestUpdateReminderSettings(t *testing.T) {
	repo := newStubUserRepo()
	user := seedAccount(t, repo, "StrongPass1")
	service := NewAccountService(repo)

	tests := []struct {
		name     string
		chatID   string
		timezone string
		want     ReminderSettings
		wantErr  error
	}{
		{name: "numeric chat", chatID: " 42 ", timezone: "UTC", want: ReminderSettings{TelegramChatID: "42", Timezone: "UTC"}},
		{name: "group chat", chatID: "-1001234567890", want: ReminderSettings{TelegramChatID: "-1001234567890"}},
		{name: "channel name", chatID: "@night_owls", timezone: "America/New_York", want: ReminderSettings{TelegramChatID: "@night_owls", Timezone: "America/New_York"}},
		{name: "cleared", want: ReminderSettings{}},
		{name: "bad chat", chatID: "42; drop", wantErr: ErrTelegramChatIDInvalid},
		{name: "short channel", chatID: "@abc", wantErr: ErrTelegramChatIDInvalid},
		{name: "unknown zone", chatID: "42", timezone: "Mars/Olympus", wantErr: ErrTimezoneInvalid},
		{name: "local zone", chatID: "42", timezone: "Local", wantErr: ErrTimezoneInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.UpdateReminderSettings(context.Background(), user.ID, tt.chatID, tt.timezone)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %#v, got %#v err=%v", tt.want, got, err)
			}
			stored := repo.users[user.ID]
			if stored.TelegramChatID != tt.want.TelegramChatID || stored.Timezone != tt.want.Timezone {
				t.Fatalf("expected stored settings %#v, got %#v", tt.want, stored)
			}
		})
	}
}

func TestDeleteAccountRequiresPassword(t *testing.T) {
	repo := newStubUserRepo()
	user := seedAccount(t, repo, "StrongPass1")
	service := NewAccountService(repo)

	if err := service.DeleteAccount(context.Background(), user.ID, ""); !errors.Is(err, ErrAccountPasswordMissing) {
		t.Fatalf("expected ErrAccountPasswordMissing, got %v", err)
	}
	if err := service.DeleteAccount(context.Background(), user.ID, "WrongPass1"); !errors.Is(err, ErrAccountPasswordInvalid) {
		t.Fatalf("expected ErrAccountPasswordInvalid, got %v", err)
	}
	if len(repo.deletedUsers) != 0 {
		t.Fatal("expected nothing deleted after failed re-authentication")
	}

	if err := service.DeleteAccount(context.Background(), user.ID, "StrongPass1"); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if len(repo.deletedUsers) != 1 || repo.deletedUsers[0] != user.ID {
		t.Fatalf("expected user %d deleted, got %v", user.ID, repo.deletedUsers)
	}
}
