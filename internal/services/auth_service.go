package services

import (
	"context"
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	errInvalidCredentials = apperr.E(apperr.ErrUnauthorized, "Invalid email or password")
	errBlocked            = apperr.E(apperr.ErrForbidden, "Account is blocked. Contact support.")
)

// AuthServiceImpl registers users, checks credentials and resolves tokens
type AuthServiceImpl struct {
	users  UserRepository
	tokens *auth.TokenManager
	log    *zap.Logger
}

func NewAuthService(users UserRepository, tokens *auth.TokenManager, log *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, log: log.Named("auth")}
}

// Register creates a customer account and returns a signed token.
func (s *AuthServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return s.respond(user)
}

// Login verifies the password. Blocked accounts are refused with 403 even
// when the password matches.
func (s *AuthServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	if user.IsBlocked {
		return nil, errBlocked
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return s.respond(user)
}

// Authenticate resolves a token to its user. The user is reloaded so that a
// block or role change takes effect before the token expires.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if errors.Is(err, auth.ErrMissingToken) {
		return nil, apperr.E(apperr.ErrUnauthorized, "No token provided, authorization denied")
	}
	if err != nil {
		return nil, apperr.E(apperr.ErrUnauthorized, "Token is invalid or expired")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.E(apperr.ErrUnauthorized, "User not found")
	}
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, errBlocked
	}
	return user, nil
}

func (s *AuthServiceImpl) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		Token:     token,
	}, nil
}
