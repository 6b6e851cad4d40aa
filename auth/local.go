package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"vendtrack/db"
	"vendtrack/models"

	"github.com/google/uuid"
)

// LocalIdentity keeps bcrypt password hashes in the record store. It is
// meant for development and for deployments without Firebase Authentication.
type LocalIdentity struct {
	store db.Store
	now   func() time.Time
}

// NewLocalIdentity creates a provider backed by the passwords collection.
func NewLocalIdentity(store db.Store) *LocalIdentity {
	return &LocalIdentity{store: store, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *LocalIdentity) findByEmail(ctx context.Context, email string) (*models.PasswordRecord, error) {
	snaps, err := l.store.WhereEqual(ctx, db.CollectionPasswords, "email", normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	var rec models.PasswordRecord
	if err := snaps[0].DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}
	return &rec, nil
}

func (l *LocalIdentity) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	rec, err := l.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, rec.Hash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return &Identity{UID: rec.UID, Email: rec.Email}, nil
}

func (l *LocalIdentity) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	existing, err := l.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	rec := models.PasswordRecord{
		UID:       uuid.NewString(),
		Email:     normalizeEmail(email),
		Hash:      hash,
		UpdatedAt: l.now(),
	}
	if err := l.store.Set(ctx, db.CollectionPasswords, rec.UID, rec); err != nil {
		return nil, fmt.Errorf("failed to store account: %w", err)
	}

	return &Identity{UID: rec.UID, Email: rec.Email}, nil
}

// SignOut has nothing to revoke locally; sessions are ended by the caller.
func (l *LocalIdentity) SignOut(ctx context.Context, uid string) error {
	return nil
}

func (l *LocalIdentity) SetPassword(ctx context.Context, uid, password string) error {
	var rec models.PasswordRecord
	if err := l.store.Get(ctx, db.CollectionPasswords, uid, &rec); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	rec.Hash = hash
	rec.UpdatedAt = l.now()
	if err := l.store.Set(ctx, db.CollectionPasswords, uid, rec); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

func (l *LocalIdentity) DeleteAccount(ctx context.Context, uid string) error {
	var rec models.PasswordRecord
	if err := l.store.Get(ctx, db.CollectionPasswords, uid, &rec); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to load account: %w", err)
	}
	return l.store.Delete(ctx, db.CollectionPasswords, uid)
}
