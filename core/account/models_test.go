package account_test

import (
	"reflect"
	"testing"

	"github.com/bmukendi/kongamano/core/account"
)

func TestParseRoles(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  account.RoleSet
	}{
		{name: "empty", label: "", want: nil},
		{name: "single", label: "organizer", want: account.RoleSet{account.RoleOrganizer}},
		{name: "multi", label: "organizer,abstract-grader", want: account.RoleSet{account.RoleOrganizer, account.RoleAbstractGrader}},
		{name: "whitespace and case", label: " Organizer , BANNED ", want: account.RoleSet{account.RoleOrganizer, account.RoleBanned}},
		{name: "empty entries dropped", label: "presenter,,", want: account.RoleSet{account.RolePresenter}},
		{name: "unknown labels kept", label: "keynote", want: account.RoleSet{"keynote"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := account.ParseRoles(tt.label); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRoles(%q) = %v; want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestAccountPredicates(t *testing.T) {
	tests := []struct {
		name              string
		auth              string
		isOrganizer       bool
		canGradeAbstracts bool
		canPresent        bool
		isBanned          bool
	}{
		{name: "organizer", auth: "organizer", isOrganizer: true, canGradeAbstracts: true, canPresent: true},
		{name: "presenter", auth: "presenter", canPresent: true},
		{name: "attendee", auth: "attendee"},
		{name: "abstract grader", auth: "abstract-grader", canGradeAbstracts: true},
		{name: "banned", auth: "banned", isBanned: true},
		{name: "banned among others", auth: "presenter,banned", isBanned: true},
		// multi-role labels count for set-based checks but not for the
		// whole-label ones
		{name: "organizer in multi-role label", auth: "organizer,abstract-grader", isOrganizer: false, canGradeAbstracts: true, canPresent: false},
		{name: "empty", auth: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := account.Account{Auth: tt.auth}
			if got := acct.IsOrganizer(); got != tt.isOrganizer {
				t.Errorf("IsOrganizer() = %v; want %v", got, tt.isOrganizer)
			}
			if got := acct.CanGradeAbstracts(); got != tt.canGradeAbstracts {
				t.Errorf("CanGradeAbstracts() = %v; want %v", got, tt.canGradeAbstracts)
			}
			if got := acct.CanPresent(); got != tt.canPresent {
				t.Errorf("CanPresent() = %v; want %v", got, tt.canPresent)
			}
			if got := acct.IsBanned(); got != tt.isBanned {
				t.Errorf("IsBanned() = %v; want %v", got, tt.isBanned)
			}
		})
	}
}

func TestAccountFullName(t *testing.T) {
	acct := account.Account{FirstName: "Ada", LastName: "Lovelace"}
	if got := acct.FullName(); got != "Ada Lovelace" {
		t.Errorf("FullName() = %q; want %q", got, "Ada Lovelace")
	}
}
