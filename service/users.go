package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"
	"vendtrack/auth"
	"vendtrack/db"
	"vendtrack/models"
)

// UserService manages user profiles.
type UserService struct {
	store    db.Store
	identity auth.IdentityProvider
	audit    *AuditLogger
	now      func() time.Time
}

func NewUserService(store db.Store, identity auth.IdentityProvider, audit *AuditLogger) *UserService {
	return &UserService{
		store:    store,
		identity: identity,
		audit:    audit,
		now:      time.Now,
	}
}

// GetAllUsers returns every profile ordered by name.
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	snaps, err := s.store.All(ctx, db.CollectionUsers)
	if err != nil {
		return nil, newError(KindInternal, "Failed to retrieve users", err)
	}

	users := decodeAll[models.User](db.CollectionUsers, snaps)
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := load(ctx, s.store, db.CollectionUsers, id, &user, "User not found"); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser merges the patch into a profile. A role in the patch must be known.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch map[string]interface{}) (*models.User, error) {
	current, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := preparePatch(patch, s.now().UTC())
	merged, err := mergePatch(*current, fields)
	if err != nil {
		return nil, err
	}
	if _, ok := fields["role"]; ok && !merged.Role.Valid() {
		return nil, newError(KindValidation, fmt.Sprintf("Unknown role: %v", fields["role"]), nil)
	}

	if err := s.store.Update(ctx, db.CollectionUsers, id, fields); err != nil {
		return nil, newError(KindInternal, "Failed to update user", err)
	}
	s.audit.Record(ctx, "update_user", fmt.Sprintf("updated user %s", id))

	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the profile, then the provider account. The account
// deletion is best-effort: the profile is already gone, so the user can no
// longer sign in successfully either way.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, db.CollectionUsers, id); err != nil {
		return newError(KindInternal, "Failed to delete user", err)
	}

	if err := s.identity.DeleteAccount(ctx, id); err != nil && !errors.Is(err, auth.ErrAccountNotFound) {
		log.Printf("⚠️  Profile %s deleted but its account could not be removed: %v", id, err)
	}

	s.audit.Record(ctx, "delete_user", fmt.Sprintf("deleted user %s (%s)", id, user.Email))
	return nil
}
