package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// SocialProvider resolves an OAuth code or access token into the account holder's identity.
type SocialProvider interface {
	Identify(ctx context.Context, code, accessToken string) (*auth.SocialIdentity, error)
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	Password2 string
	FirstName string
	LastName  string
}

// ProfileInput holds optional changes; nil fields are left alone.
type ProfileInput struct {
	Username  *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *domain.Role
}

type AuthResult struct {
	User   *domain.User
	Tokens auth.TokenPair
}

type UserService struct {
	store  domain.Store
	tokens *auth.TokenManager
	social SocialProvider
	logger *zap.Logger
}

func NewUserService(store domain.Store, tokens *auth.TokenManager, social SocialProvider, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		social: social,
		logger: logger,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	u, err := s.createUser(ctx, in, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// RegisterAdmin creates an admin account. Callers must have been checked for ActionCreateAdmin.
func (s *UserService) RegisterAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, in, domain.RoleAdmin)
}

func (s *UserService) createUser(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := domain.NewUser(in.Email, in.Username, in.FirstName, in.LastName)
	u.Role = role
	u.PasswordHash = hash
	if err := s.store.Users().Insert(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("userId", u.ID.String()), zap.String("role", string(role)))
	return u, nil
}

func validateRegistration(in RegisterInput) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if in.Password != in.Password2 {
		return fmt.Errorf("%w: password fields didn't match", domain.ErrValidation)
	}
	return nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Refresh exchanges a refresh token for a new access token. The user is re-read so role
// changes apply from the next access token on.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	id, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	u, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", time.Time{}, domain.ErrUnauthorized
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.IssueAccess(u)
}

// SocialLogin finds or creates the account for the provider's email and signs it in.
func (s *UserService) SocialLogin(ctx context.Context, code, accessToken string) (*AuthResult, error) {
	if s.social == nil {
		return nil, fmt.Errorf("%w: social login is not configured", domain.ErrValidation)
	}
	id, err := s.social.Identify(ctx, code, accessToken)
	if err != nil {
		return nil, err
	}

	u, err := s.store.Users().GetByEmail(ctx, id.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u = domain.NewUser(id.Email, "", id.GivenName, id.FamilyName)
		if err := s.store.Users().Insert(ctx, u); err != nil {
			return nil, err
		}
		s.logger.Info("user created from social login", zap.String("userId", u.ID.String()))
	case err != nil:
		return nil, err
	}
	return s.issue(u)
}

func (s *UserService) issue(u *domain.User) (*AuthResult, error) {
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.Users().List(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in ProfileInput) (*domain.User, error) {
	var out *domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		u, err := repos.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Username != nil {
			name := strings.TrimSpace(*in.Username)
			if name == "" {
				return fmt.Errorf("%w: username cannot be blank", domain.ErrValidation)
			}
			u.Username = name
		}
		if in.FirstName != nil {
			u.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			u.LastName = *in.LastName
		}
		if in.Bio != nil {
			u.Bio = *in.Bio
		}
		if in.Role != nil {
			if *in.Role != domain.RoleAdmin && *in.Role != domain.RoleUser {
				return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, *in.Role)
			}
			u.Role = *in.Role
		}
		out = u
		return repos.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.store.Users().Delete(ctx, id)
}

// EnsureInitialAdmin creates the bootstrap superuser, or promotes and re-keys an existing
// account with the same email. It reports whether a new account was created.
func (s *UserService) EnsureInitialAdmin(ctx context.Context, in RegisterInput) (*domain.User, bool, error) {
	in.Password2 = in.Password
	if err := validateRegistration(in); err != nil {
		return nil, false, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, false, err
	}

	var (
		out     *domain.User
		created bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		u, err := repos.Users().GetByEmail(ctx, in.Email)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			u = domain.NewUser(in.Email, in.Username, in.FirstName, in.LastName)
			u.PasswordHash = hash
			u.PromoteToAdmin(true)
			created = true
			out = u
			return repos.Users().Insert(ctx, u)
		case err != nil:
			return err
		}
		u.PasswordHash = hash
		u.PromoteToAdmin(true)
		out = u
		return repos.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}
