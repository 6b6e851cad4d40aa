package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"vendtrack/auth"
	"vendtrack/db"
	"vendtrack/models"
)

// LoginInput carries sign-in credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserInput describes a new account and its profile.
type CreateUserInput struct {
	Email             string             `json:"email" validate:"required,email"`
	Password          string             `json:"password" validate:"required"`
	Name              string             `json:"name" validate:"required"`
	Role              models.UserRole    `json:"role" validate:"required,oneof=admin routeman operator dealer viewer"`
	Permissions       models.Permissions `json:"permissions"`
	AssignedOperators []string           `json:"assignedOperators"`
}

// AuthService signs users in and out and creates accounts.
type AuthService struct {
	store    db.Store
	identity auth.IdentityProvider
	sessions *auth.SessionManager
	audit    *AuditLogger
	now      func() time.Time
}

func NewAuthService(store db.Store, identity auth.IdentityProvider, sessions *auth.SessionManager, audit *AuditLogger) *AuthService {
	return &AuthService{
		store:    store,
		identity: identity,
		sessions: sessions,
		audit:    audit,
		now:      time.Now,
	}
}

// Login checks credentials, loads the profile, stamps lastLogin and opens
// a session. Valid credentials without a profile still fail.
func (s *AuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if err := validateInput(LoginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}

	identity, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Printf("Login failed for %s: invalid credentials", email)
			return nil, newError(KindUnauthorized, "Invalid email or password", nil)
		}
		return nil, newError(KindInternal, "Sign-in failed", err)
	}

	var user models.User
	if err := s.store.Get(ctx, db.CollectionUsers, identity.UID, &user); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Printf("⚠️  Login for %s succeeded but no profile exists (uid %s)", email, identity.UID)
			return nil, newError(KindProfileNotFound, "User profile not found", nil)
		}
		return nil, newError(KindInternal, "Failed to load user profile", err)
	}
	user.ID = identity.UID

	now := s.now().UTC()
	if err := s.store.Update(ctx, db.CollectionUsers, user.ID, map[string]interface{}{
		"lastLogin": now,
		"updatedAt": now,
	}); err != nil {
		return nil, newError(KindInternal, "Failed to record login", err)
	}
	user.LastLogin = &now
	user.UpdatedAt = now

	session := s.sessions.Create(user)
	log.Printf("✅ User logged in: %s (role: %s)", user.Email, user.Role)
	return session, nil
}

// Logout signs the user out at the provider and ends the session. A
// provider failure is logged; the session ends regardless.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return newError(KindUnauthorized, "Session not found", err)
	}

	if err := s.identity.SignOut(ctx, session.User.ID); err != nil {
		log.Printf("⚠️  Provider sign-out failed for %s: %v", session.User.ID, err)
	}

	if err := s.sessions.End(sessionID); err != nil {
		return newError(KindUnauthorized, "Session not found", err)
	}
	log.Printf("👋 User logged out: %s", session.User.Email)
	return nil
}

// CreateUser creates the provider account, then the profile keyed by the
// new uid. The two steps are not atomic: if the profile write fails the
// account is left without a profile and cannot log in.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := auth.ValidatePasswordStrength(input.Password); err != nil {
		return nil, newError(KindValidation, err.Error(), nil)
	}

	identity, err := s.identity.CreateAccount(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			return nil, newError(KindConflict, "Email already in use", nil)
		}
		return nil, newError(KindInternal, "Failed to create account", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:                identity.UID,
		Email:             identity.Email,
		Name:              input.Name,
		Role:              input.Role,
		Permissions:       input.Permissions,
		AssignedOperators: input.AssignedOperators,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Set(ctx, db.CollectionUsers, user.ID, user); err != nil {
		log.Printf("❌ Account %s created but profile write failed; account is orphaned: %v", user.ID, err)
		return nil, newError(KindInternal, "Failed to create user profile", err)
	}

	s.audit.Record(ctx, "create_user", fmt.Sprintf("created user %s (%s, role: %s)", user.ID, user.Email, user.Role))
	log.Printf("✅ User created: %s (role: %s)", user.Email, user.Role)
	return &user, nil
}

// CurrentUser re-reads the session user's profile and refreshes the session.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*auth.Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, newError(KindUnauthorized, "Session expired or not found", err)
	}

	var user models.User
	if err := s.store.Get(ctx, db.CollectionUsers, session.User.ID, &user); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.sessions.End(sessionID)
			return nil, newError(KindProfileNotFound, "User profile not found", nil)
		}
		return nil, newError(KindInternal, "Failed to load user profile", err)
	}
	user.ID = session.User.ID

	refreshed, err := s.sessions.Refresh(sessionID, user)
	if err != nil {
		return nil, newError(KindUnauthorized, "Session expired or not found", err)
	}
	return refreshed, nil
}

// Subscribe registers fn for session changes. Call the returned function
// to unsubscribe.
func (s *AuthService) Subscribe(fn func(auth.SessionEvent)) func() {
	return s.sessions.Subscribe(fn)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := load(ctx, s.store, db.CollectionUsers, id, &user, "User not found"); err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPassword sets a new password for an existing user.
func (s *AuthService) ResetPassword(ctx context.Context, userID, password string) error {
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return newError(KindValidation, err.Error(), nil)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.identity.SetPassword(ctx, userID, password); err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			return newError(KindNotFound, "Account not found", nil)
		}
		return newError(KindInternal, "Failed to update password", err)
	}

	s.audit.Record(ctx, "reset_password", fmt.Sprintf("reset password for %s (%s)", user.ID, user.Email))
	return nil
}
