// Package service holds the business rules layered over the record store
// and the identity provider. Every operation returns (value, error) where
// the error is a *Error carrying a kind.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"
	"vendtrack/db"
	"vendtrack/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report field names the way clients send them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput runs struct tag validation and turns the first failure
// into a validation error.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return newError(KindValidation, fmt.Sprintf("%s is required", fe.Field()), nil)
		case "email":
			return newError(KindValidation, fmt.Sprintf("%s must be a valid email address", fe.Field()), nil)
		case "oneof":
			return newError(KindValidation, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()), nil)
		default:
			return newError(KindValidation, fmt.Sprintf("%s is invalid", fe.Field()), nil)
		}
	}
	return newError(KindValidation, "Invalid input", err)
}

// immutable fields are never written by a patch
var immutableFields = map[string]bool{
	"id":        true,
	"createdAt": true,
}

// preparePatch copies the patch without immutable fields and stamps updatedAt.
func preparePatch(patch map[string]interface{}, now time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(patch)+1)
	for k, v := range patch {
		if immutableFields[k] {
			continue
		}
		out[k] = v
	}
	out["updatedAt"] = now
	return out
}

// load reads one record, mapping a missing key to a not-found error.
func load(ctx context.Context, store db.Store, collection, id string, v interface{}, notFound string) error {
	if id == "" {
		return newError(KindValidation, notFound+": id is required", nil)
	}
	if err := store.Get(ctx, collection, id, v); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return newError(KindNotFound, notFound, nil)
		}
		return newError(KindInternal, "Failed to read "+collection, err)
	}
	if k, ok := v.(models.Keyed); ok {
		k.SetKey(id)
	}
	return nil
}

// decodeAll parses every snapshot, skipping records that do not decode.
func decodeAll[T any](collection string, snaps []db.Snapshot) []T {
	result := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		var v T
		if err := snap.DataTo(&v); err != nil {
			log.Printf("⚠️  Skipping unreadable %s record %s: %v", collection, snap.Key(), err)
			continue
		}
		if k, ok := any(&v).(models.Keyed); ok {
			k.SetKey(snap.Key())
		}
		result = append(result, v)
	}
	return result
}

// mergePatch decodes the patch over a copy of the current record. A field of
// the wrong type or one the record does not have is rejected, so nothing
// that would leave the record unreadable reaches the store.
func mergePatch[T any](current T, patch map[string]interface{}) (T, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return current, newError(KindValidation, "Invalid update", err)
	}

	merged := current
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return current, newError(KindValidation, fmt.Sprintf("%s has the wrong type", typeErr.Field), nil)
		}
		return current, newError(KindValidation, "Invalid update: "+strings.TrimPrefix(err.Error(), "json: "), nil)
	}
	return merged, nil
}

type actorKey struct{}

// WithActor records who is performing the request, for audit entries.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user id, or "system".
func ActorFrom(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return "system"
}
