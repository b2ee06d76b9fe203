// Package auth signs staff in and out and resolves session cookies against
// the hosted auth API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/pkg/clients/supabase"
)

// Login form field names.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

var (
	// ErrNoSession means the request carries no usable session.
	ErrNoSession = errors.New("no session")
	// ErrUnavailable means the auth API could not be reached.
	ErrUnavailable = errors.New("auth service unavailable")
)

// InvalidCredentialsError carries the provider message of a rejected sign-in.
type InvalidCredentialsError struct {
	Message string
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid credentials: " + e.Message
}

// Client is the subset of the auth API the service calls.
type Client interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.TokenResponse, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.TokenResponse, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.AuthUser, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Credentials is the login form.
type Credentials struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"min=6"`
}

var v = validator.New()

var loginMessages = map[string]string{
	"Email":    "请输入有效的公司邮箱",
	"Password": "密码至少 6 位",
}

// Validate returns field messages keyed by form field, or nil.
func (c Credentials) Validate() map[string]string {
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	errs := map[string]string{}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs[FieldEmail] = loginMessages["Email"]
		return errs
	}
	for _, fieldErr := range validationErrs {
		switch fieldErr.StructField() {
		case "Email":
			errs[FieldEmail] = loginMessages["Email"]
		case "Password":
			errs[FieldPassword] = loginMessages["Password"]
		}
	}
	return errs
}

// Resolution is the outcome of resolving a cookie pair. Refreshed is set
// when the token pair was rotated and the cookies must be rewritten.
type Resolution struct {
	Session   models.Session
	Refreshed bool
}

// Service resolves and manages sessions.
type Service struct {
	client Client
	now    func() time.Time
	logger *zap.Logger
}

// NewService wires a new auth service instance.
func NewService(client Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, now: time.Now, logger: logger}
}

// SignIn exchanges validated credentials for a session.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (models.Session, error) {
	tokens, err := s.client.SignInWithPassword(ctx, creds.Email, creds.Password)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return models.Session{}, &InvalidCredentialsError{Message: apiErr.Text()}
		}
		return models.Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.logger.Info("user signed in", zap.String("user_id", tokens.User.ID))
	return s.sessionFrom(tokens), nil
}

// Resolve validates accessToken. When it is rejected and a refresh token is
// present the pair is refreshed once.
func (s *Service) Resolve(ctx context.Context, accessToken, refreshToken string) (Resolution, error) {
	if accessToken == "" && refreshToken == "" {
		return Resolution{}, ErrNoSession
	}

	if accessToken != "" {
		user, err := s.client.GetUser(ctx, accessToken)
		if err == nil {
			return Resolution{Session: models.Session{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				User:         models.User{ID: user.ID, Email: user.Email},
			}}, nil
		}
		if !supabase.IsUnauthorized(err) {
			return Resolution{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if refreshToken == "" {
		return Resolution{}, ErrNoSession
	}
	tokens, err := s.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return Resolution{}, ErrNoSession
		}
		return Resolution{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.logger.Debug("session refreshed", zap.String("user_id", tokens.User.ID))
	return Resolution{Session: s.sessionFrom(tokens), Refreshed: true}, nil
}

// SignOut revokes the session. The caller clears cookies regardless.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.client.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *Service) sessionFrom(tokens *supabase.TokenResponse) models.Session {
	return models.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.Expiry(s.now()),
		User:         models.User{ID: tokens.User.ID, Email: tokens.User.Email},
	}
}
