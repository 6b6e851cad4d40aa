// models.go
// Defines the records kept in the tracking database and exchanged with the API.

package models

import (
	"time"
)

// UserRole defines what a user may see and submit.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleRouteman UserRole = "routeman"
	RoleOperator UserRole = "operator"
	RoleDealer   UserRole = "dealer"
	RoleViewer   UserRole = "viewer"
)

// Roles lists every known role in display order.
var Roles = []UserRole{RoleAdmin, RoleRouteman, RoleOperator, RoleDealer, RoleViewer}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ReportType distinguishes the two report forms.
type ReportType string

const (
	ReportTypeIceCream ReportType = "iceCream" // ice-cream machine cleaning
	ReportTypeFridge   ReportType = "fridge"   // fresh fridge fill
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	return t == ReportTypeIceCream || t == ReportTypeFridge
}

// Permissions are the per-form flags granted to operators.
type Permissions struct {
	IceCream bool `firestore:"iceCream" json:"iceCream"`
	Fridge   bool `firestore:"fridge" json:"fridge"`
}

// Allows reports whether the flag for the given form is set.
func (p Permissions) Allows(t ReportType) bool {
	switch t {
	case ReportTypeIceCream:
		return p.IceCream
	case ReportTypeFridge:
		return p.Fridge
	}
	return false
}

// User is the profile record stored under users/<uid>.
// The id equals the identity-provider uid.
type User struct {
	ID                string      `firestore:"id" json:"id"`
	Email             string      `firestore:"email" json:"email"`
	Name              string      `firestore:"name" json:"name"`
	Role              UserRole    `firestore:"role" json:"role"`
	Permissions       Permissions `firestore:"permissions" json:"permissions"`
	AssignedOperators []string    `firestore:"assignedOperators" json:"assignedOperators,omitempty"` // dealer only
	LastLogin         *time.Time  `firestore:"lastLogin" json:"lastLogin,omitempty"`
	CreatedAt         time.Time   `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time   `firestore:"updatedAt" json:"updatedAt"`
}

// Report is a photo-backed inspection record stored under reports/<id>.
type Report struct {
	ID        string                 `firestore:"id" json:"id"`
	UserID    string                 `firestore:"userId" json:"userId"`
	Type      ReportType             `firestore:"type" json:"type"`
	Status    string                 `firestore:"status" json:"status,omitempty"`
	MachineID string                 `firestore:"machineId" json:"machineId,omitempty"`
	Location  string                 `firestore:"location" json:"location,omitempty"`
	Notes     string                 `firestore:"notes" json:"notes,omitempty"`
	Photos    map[string][]string    `firestore:"photos" json:"photos,omitempty"`
	Details   map[string]interface{} `firestore:"details" json:"details,omitempty"`
	CreatedAt time.Time              `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time              `firestore:"updatedAt" json:"updatedAt"`
}

// Commodity is a catalog entry keyed by a store-generated push key.
type Commodity struct {
	ID        string                 `firestore:"id" json:"id"`
	Name      string                 `firestore:"name" json:"name"`
	Code      string                 `firestore:"code" json:"code,omitempty"`
	Unit      string                 `firestore:"unit" json:"unit,omitempty"`
	Category  string                 `firestore:"category" json:"category,omitempty"`
	Details   map[string]interface{} `firestore:"details" json:"details,omitempty"`
	CreatedAt time.Time              `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time              `firestore:"updatedAt" json:"updatedAt"`
}

// AuditLog records an administrative mutation.
type AuditLog struct {
	ID        string    `firestore:"id" json:"id"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	UserID    string    `firestore:"userId" json:"userId"`
	Action    string    `firestore:"action" json:"action"`
	Details   string    `firestore:"details" json:"details"`
}

// PasswordRecord holds a bcrypt hash for the local identity provider.
type PasswordRecord struct {
	UID       string    `firestore:"uid" json:"uid"`
	Email     string    `firestore:"email" json:"email"`
	Hash      string    `firestore:"hash" json:"hash"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// Counter is an atomically incremented sequence value.
type Counter struct {
	Value int64 `firestore:"value" json:"value"`
}

// Keyed records take their id from the store key they live under, so a
// record written without an id child still reads back with one.
type Keyed interface {
	SetKey(id string)
}

func (u *User) SetKey(id string)      { u.ID = id }
func (r *Report) SetKey(id string)    { r.ID = id }
func (c *Commodity) SetKey(id string) { c.ID = id }
func (a *AuditLog) SetKey(id string)  { a.ID = id }
