package auth

import (
	"context"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-resty/resty/v2"
)

// AdminClient is the subset of the Firebase Admin auth client used here.
// *auth.Client satisfies it.
type AdminClient interface {
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *fbauth.UserToUpdate) (*fbauth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseIdentity manages accounts through the Admin SDK and checks
// passwords through the Identity Toolkit REST API, which the Admin SDK
// does not expose.
type FirebaseIdentity struct {
	admin  AdminClient
	http   *resty.Client
	apiKey string
}

// NewFirebaseIdentity creates a provider. baseURL is normally
// https://identitytoolkit.googleapis.com.
func NewFirebaseIdentity(admin AdminClient, apiKey, baseURL string) *FirebaseIdentity {
	return &FirebaseIdentity{
		admin:  admin,
		http:   resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		apiKey: apiKey,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type identityToolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// credential failures reported by the sign-in endpoint
var rejectedSignIn = []string{
	"EMAIL_NOT_FOUND",
	"INVALID_PASSWORD",
	"INVALID_LOGIN_CREDENTIALS",
	"INVALID_EMAIL",
	"USER_DISABLED",
}

func (f *FirebaseIdentity) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(signInRequest{Email: email, Password: password, ReturnSecureToken: true}).
		SetResult(&signInResponse{}).
		SetError(&identityToolkitError{}).
		Post("/v1/accounts:signInWithPassword")
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}

	if resp.IsError() {
		message := resp.Status()
		if e, ok := resp.Error().(*identityToolkitError); ok && e.Error.Message != "" {
			message = e.Error.Message
		}
		for _, code := range rejectedSignIn {
			if strings.HasPrefix(message, code) {
				return nil, ErrInvalidCredentials
			}
		}
		return nil, fmt.Errorf("sign-in rejected: %s", message)
	}

	result := resp.Result().(*signInResponse)
	return &Identity{UID: result.LocalID, Email: result.Email}, nil
}

func (f *FirebaseIdentity) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)
	record, err := f.admin.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &Identity{UID: record.UID, Email: record.Email}, nil
}

// SignOut revokes the user's refresh tokens so client sessions end too.
func (f *FirebaseIdentity) SignOut(ctx context.Context, uid string) error {
	if err := f.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		if fbauth.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func (f *FirebaseIdentity) SetPassword(ctx context.Context, uid, password string) error {
	if _, err := f.admin.UpdateUser(ctx, uid, (&fbauth.UserToUpdate{}).Password(password)); err != nil {
		if fbauth.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

func (f *FirebaseIdentity) DeleteAccount(ctx context.Context, uid string) error {
	if err := f.admin.DeleteUser(ctx, uid); err != nil {
		if fbauth.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
