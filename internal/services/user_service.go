package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
)

type UserService struct {
	store        database.Store
	adminPattern *regexp.Regexp
}

func NewUserService(store database.Store, adminPattern string) (*UserService, error) {
	re, err := regexp.Compile(adminPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid admin email pattern: %w", err)
	}
	return &UserService{store: store, adminPattern: re}, nil
}

// DeriveRole maps an email address to the role a new account receives.
func (s *UserService) DeriveRole(email string) models.Role {
	if s.adminPattern.MatchString(normalizeEmail(email)) {
		return models.RoleAdmin
	}
	return models.RoleVoter
}

// EnsureUser returns the user for a verified identity, provisioning it on first sight.
func (s *UserService) EnsureUser(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if id == uuid.Nil || email == "" {
		return nil, fmt.Errorf("%w: user id and email are required", models.ErrValidation)
	}
	return s.store.EnsureUser(ctx, id, email, s.DeriveRole(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
