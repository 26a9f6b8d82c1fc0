package account

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bmukendi/kongamano/core"
)

// Roles. The stored label is free text so the set stays open; these are the
// values the capability checks know about.
type Role string

const (
	RoleOrganizer      Role = "organizer"
	RolePresenter      Role = "presenter"
	RoleAttendee       Role = "attendee"
	RoleAbstractGrader Role = "abstract-grader"
	RoleBanned         Role = "banned"
)

// DefaultRole is assigned on signup when no role is given.
const DefaultRole = RoleAttendee

// RoleSet is the parsed form of an Account's comma-joined role label.
type RoleSet []Role

// ParseRoles splits a raw role label on commas, trimming whitespace and
// lowercasing each entry. Empty entries are dropped.
func ParseRoles(label string) RoleSet {
	if label == "" {
		return nil
	}
	parts := strings.Split(label, ",")
	set := make(RoleSet, 0, len(parts))
	for _, p := range parts {
		if r := core.CleanString(p, true /* lower */); r != "" {
			set = append(set, Role(r))
		}
	}
	return set
}

func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Identity is the session identity established by the external OAuth flow.
// Only Email is ever used for account resolution; Name and Picture are
// display-only.
type Identity struct {
	Email   string
	Name    string
	Picture string
}

type Account struct {
	ID                string    `json:"id"`
	FirstName         string    `json:"firstname"`
	LastName          string    `json:"lastname"`
	Email             string    `json:"email"`
	Activity          string    `json:"activity"`
	Auth              string    `json:"auth"`
	PresentationID    *string   `json:"presentation_id"`
	PresentationTitle *string   `json:"presentation"`
	CreatedAt         time.Time `json:"-"` // UTC
	UpdatedAt         time.Time `json:"-"` // UTC
}

func (a Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// MarshalJSON adds the computed full name to the wire representation.
func (a Account) MarshalJSON() ([]byte, error) {
	type alias Account
	return json.Marshal(struct {
		alias
		Name string `json:"name"`
	}{alias(a), a.FullName()})
}

// Roles parses the stored role label. The set is derived on every call and
// never persisted.
func (a Account) Roles() RoleSet {
	return ParseRoles(a.Auth)
}

func (a Account) IsBanned() bool {
	return a.Roles().Has(RoleBanned)
}

// IsOrganizer matches the whole role label, not the parsed set: a multi-role
// label such as "organizer,abstract-grader" does NOT count as organizer here,
// while it does count for CanGradeAbstracts. The asymmetry is load-bearing —
// the organizer-gated routes have always behaved this way.
// TODO: decide whether organizer gating should move to the parsed set, and
// migrate the stored labels if so.
func (a Account) IsOrganizer() bool {
	return a.Auth == string(RoleOrganizer)
}

// CanGradeAbstracts reports whether the parsed role set grants access to
// abstract grading.
func (a Account) CanGradeAbstracts() bool {
	roles := a.Roles()
	return roles.Has(RoleOrganizer) || roles.Has(RoleAbstractGrader)
}

// CanPresent matches the whole role label, like IsOrganizer.
func (a Account) CanPresent() bool {
	return a.Auth == string(RolePresenter) || a.Auth == string(RoleOrganizer)
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	FirstName      string  `json:"firstname" validate:"required"`
	LastName       string  `json:"lastname" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Activity       string  `json:"activity"`
	Auth           string  `json:"auth"`
	PresentationID *string `json:"presentation_id"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.Email = core.CleanString(na.Email)
	return validate.Struct(na)
}

// UpdateAccount defines what information may be provided to modify an existing
// Account. Only provided fields change; PresentationID may be explicitly
// cleared by providing null.
type UpdateAccount struct {
	FirstName         *string
	LastName          *string
	Email             *string
	Activity          *string
	Auth              *string
	PresentationID    *string
	PresentationIDSet bool
}
