package database

import (
	"context"
	"errors"
	"testing"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	createTestUser(t, service, "Alice", "alice@example.com")

	_, err := service.CreateUser(context.Background(), &models.User{
		Name:         "Alice Again",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	created := createTestUser(t, service, "Alice", "alice@example.com")

	user, err := service.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Id != created.Id {
		t.Errorf("Expected user %s, got %s", created.Id, user.Id)
	}

	if _, err := service.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}
