package account

import (
	"errors"
	"time"
)

var (
	ErrAlreadyStaff = errors.New("account already has the staff role")
	ErrNotStaff     = errors.New("account does not have the staff role")
)

type RoleKind string

const (
	RoleMember RoleKind = "member"
	RoleStaff  RoleKind = "staff"
)

func (k RoleKind) String() string {
	return string(k)
}

// Role is a tagged variant: plain member, or staff carrying a sequential
// staff number and employment date. Promotion and demotion are
// projections between the two shapes; everything else on the account is
// untouched.
type Role struct {
	kind        RoleKind
	staffNumber int
	employedAt  time.Time
}

func MemberRole() Role {
	return Role{kind: RoleMember}
}

func StaffRole(staffNumber int, employedAt time.Time) Role {
	return Role{kind: RoleStaff, staffNumber: staffNumber, employedAt: employedAt}
}

func (r Role) Kind() RoleKind {
	return r.kind
}

func (r Role) IsStaff() bool {
	return r.kind == RoleStaff
}

// Staff returns the staff payload; ok is false for members.
func (r Role) Staff() (staffNumber int, employedAt time.Time, ok bool) {
	if r.kind != RoleStaff {
		return 0, time.Time{}, false
	}
	return r.staffNumber, r.employedAt, true
}
