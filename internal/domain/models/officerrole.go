// internal/domain/models/officerrole.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Officer role values.
const (
	RolePresident    = "president"
	RoleOfficer      = "officer"
	RoleManagingExec = "managing_exec"
)

// OfficerRole is the normalized source of truth for leadership assignment.
// Exactly one row per (club_id, student_id); at most one active president
// per club, enforced by a partial unique index.
type OfficerRole struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClubID     primitive.ObjectID `bson:"club_id" json:"club_id"`
	StudentID  primitive.ObjectID `bson:"student_id" json:"student_id"`
	Role       string             `bson:"role" json:"role"` // president | officer | managing_exec
	AssignedAt time.Time          `bson:"assigned_at" json:"assigned_at"`
}

// IsLeadershipRole reports whether role names a recognized officer role.
func IsLeadershipRole(role string) bool {
	switch role {
	case RolePresident, RoleOfficer, RoleManagingExec:
		return true
	}
	return false
}
