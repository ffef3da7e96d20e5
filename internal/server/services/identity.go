// Package services contains the server-side business logic: identity
// (register, login, profile) and per-user transaction management.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/dmitrijs2005/expensetracker/internal/logging"
	"github.com/dmitrijs2005/expensetracker/internal/server/auth"
	"github.com/dmitrijs2005/expensetracker/internal/server/config"
	"github.com/dmitrijs2005/expensetracker/internal/server/models"
	"github.com/dmitrijs2005/expensetracker/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

// IdentityService registers users, checks credentials and issues tokens.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	logger      logging.Logger

	// dummyHash is compared against when the email is unknown so that both
	// login failure paths do the same bcrypt work.
	dummyHash string
}

// NewIdentityService constructs an IdentityService using repositories and server config.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *IdentityService {
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	dummy, err := hasher.HashPassword(uuid.NewString())
	if err != nil {
		logger.Error(context.Background(), "failed to prepare dummy password hash", "error", err)
	}

	return &IdentityService{
		db:          db,
		repomanager: m,
		tokens:      auth.NewTokenService([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.TokenAudience, cfg.AccessTokenValidityDuration),
		hasher:      hasher,
		logger:      logger,
		dummyHash:   dummy,
	}
}

// Tokens exposes the token service so the transport can verify bearer tokens
// with the same issuer, audience and secret.
func (s *IdentityService) Tokens() *auth.TokenService {
	return s.tokens
}

// NormalizeEmail trims and lower-cases an address; emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a token for it. A taken email
// yields common.ErrDuplicateEmail, bad input a *common.ValidationError.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var extra []common.FieldError
	if len(in.Password) > maxPasswordBytes {
		extra = append(extra, common.FieldError{Field: "password", Message: "Value is too long", Type: "max"})
	}
	if err := common.ValidateStruct(in, extra...); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         models.DefaultRole,
	}

	// The unique constraint still decides if another registration raced us.
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)

	return s.authResult(u)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable: both return common.ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.CheckPassword(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.hasher.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.authResult(user)
}

// GetProfile returns the public view of the authenticated user.
func (s *IdentityService) GetProfile(ctx context.Context, userID string) (*models.UserSummary, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	summary := user.Summary()
	return &summary, nil
}

func (s *IdentityService) authResult(u *models.User) (*models.AuthResult, error) {
	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{Token: token, User: u.Summary()}, nil
}
