package service

import (
	"context"
	"fmt"
	"log/slog"

	"dockeeper/internal/http/client"
	"dockeeper/internal/notify"
	"dockeeper/internal/router"
	"dockeeper/internal/session"
)

// Navigator switches the visible section.
type Navigator interface {
	Show(ctx context.Context, id string) bool
}

// RegisterInput is the signup form.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthService defines the account use cases. Every method reports its
// outcome through the notifier and also returns the error.
type AuthService interface {
	// Register creates an account and routes to login on success.
	Register(ctx context.Context, in RegisterInput) error
	// Login stores the issued token and routes to the dashboard on success.
	Login(ctx context.Context, email, password string) error
	// Logout forgets the token locally and routes to login. No request is sent.
	Logout(ctx context.Context) error
}

type authService struct {
	api      client.API
	store    session.Store
	nav      Navigator
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(api client.API, store session.Store, nav Navigator, n notify.Notifier, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{api: api, store: store, nav: nav, notifier: n, logger: logger}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) error {
	if in.Password != in.ConfirmPassword {
		notify.Failure(s.notifier, "Passwords do not match")
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	_, err := s.api.Register(ctx, client.RegisterRequest{
		Name:     in.FullName,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		ae := newAPIError("register", ErrRegistrationFailed, "Registration failed", err, true)
		s.logger.Info("register_failed", "status", ae.Status, "error", err.Error())
		notify.Failure(s.notifier, ae.Message)
		return ae
	}

	notify.Success(s.notifier, "Account created! Please log in.")
	s.nav.Show(ctx, string(router.SectionLogin))
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) error {
	res, err := s.api.Login(ctx, client.LoginRequest{Email: email, Password: password})
	if err != nil {
		ae := newAPIError("login", ErrLoginFailed, "Login failed", err, true)
		s.logger.Info("login_failed", "status", ae.Status, "error", err.Error())
		notify.Failure(s.notifier, ae.Message)
		return ae
	}
	if res == nil || res.Token == "" {
		notify.Failure(s.notifier, "Login failed")
		return &APIError{Op: "login", Message: "Login failed", Kind: ErrLoginFailed, Err: fmt.Errorf("response carried no token")}
	}

	if err := s.store.SetToken(res.Token); err != nil {
		s.logger.Error("session_save_failed", "error", err.Error())
		notify.Failure(s.notifier, "Could not save session")
		return fmt.Errorf("save session: %w", err)
	}

	notify.Success(s.notifier, "Login successful!")
	s.nav.Show(ctx, string(router.SectionDashboard))
	return nil
}

func (s *authService) Logout(ctx context.Context) error {
	if err := s.store.ClearToken(); err != nil {
		s.logger.Error("session_clear_failed", "error", err.Error())
		notify.Failure(s.notifier, "Could not clear session")
		return fmt.Errorf("clear session: %w", err)
	}
	notify.Success(s.notifier, "You have been logged out.")
	s.nav.Show(ctx, string(router.SectionLogin))
	return nil
}
