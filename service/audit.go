package service

import (
	"context"
	"log"
	"sort"
	"time"
	"vendtrack/db"
	"vendtrack/models"

	"github.com/google/uuid"
)

// AuditLogger records administrative mutations in the auditLogs collection.
// Recording is best-effort and never fails the mutation.
type AuditLogger struct {
	store db.Store
	now   func() time.Time
}

func NewAuditLogger(store db.Store) *AuditLogger {
	return &AuditLogger{store: store, now: time.Now}
}

// Record stores an audit entry attributed to the actor in ctx.
func (a *AuditLogger) Record(ctx context.Context, action, details string) {
	entry := models.AuditLog{
		ID:        uuid.NewString(),
		Timestamp: a.now().UTC(),
		UserID:    ActorFrom(ctx),
		Action:    action,
		Details:   details,
	}

	if err := a.store.Set(ctx, db.CollectionAuditLogs, entry.ID, entry); err != nil {
		log.Printf("⚠️  Failed to store audit entry %s: %v", action, err)
	}
	log.Printf("📝 AUDIT: user '%s' performed '%s' - %s", entry.UserID, action, details)
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns all.
func (a *AuditLogger) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	snaps, err := a.store.All(ctx, db.CollectionAuditLogs)
	if err != nil {
		return nil, newError(KindInternal, "Failed to read audit log", err)
	}

	entries := decodeAll[models.AuditLog](db.CollectionAuditLogs, snaps)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
