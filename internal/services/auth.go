package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdministratorRepository defines persistence operations for administrators.
type AdministratorRepository interface {
	GetByUsername(ctx context.Context, username string) (types.Administrator, error)
	Create(ctx context.Context, admin types.Administrator) (types.Administrator, error)
}

// AuthService checks administrator credentials.
type AuthService struct {
	repo AdministratorRepository
	cost int
}

func NewAuthService(repo AdministratorRepository) *AuthService {
	return &AuthService{repo: repo, cost: bcrypt.DefaultCost}
}

// Login returns the administrator whose password matches. It never issues a
// session; callers only learn the role.
func (s *AuthService) Login(ctx context.Context, username, password string) (types.Administrator, error) {
	admin, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Administrator{}, ErrUserNotFound
		}
		return types.Administrator{}, fmt.Errorf("load administrator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return types.Administrator{}, ErrInvalidCredentials
		}
		return types.Administrator{}, fmt.Errorf("compare password: %w", err)
	}

	if admin.Role == "" {
		admin.Role = types.DefaultAdminRole
	}
	return admin, nil
}

// Provision hashes password and stores a new administrator. An empty role
// means types.DefaultAdminRole.
func (s *AuthService) Provision(ctx context.Context, username, password, role string) (types.Administrator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.Administrator{}, fmt.Errorf("%w: username, password", ErrMissingFields)
	}
	if strings.TrimSpace(role) == "" {
		role = types.DefaultAdminRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return types.Administrator{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, types.Administrator{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
	})
}
