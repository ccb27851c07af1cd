package models

import "strings"

type Role uint8

const (
	Role_Requester Role = 1 << iota
	Role_Claimant
	Role_MediatorStaff
)

func (r Role) String() string {
	switch r {
	case Role_Requester:
		return "requester"
	case Role_Claimant:
		return "claimant"
	case Role_MediatorStaff:
		return "mediator_staff"
	}
	return "unknown"
}

// RoleSet holds the roles an actor has relative to one specific request.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.Add(r)
	}
	return s
}

func (s RoleSet) Add(r Role) RoleSet {
	return s | RoleSet(r)
}

func (s RoleSet) Has(r Role) bool {
	return s&RoleSet(r) != 0
}

// HasAny reports whether at least one of the given roles is held.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

func (s RoleSet) String() string {
	names := make([]string, 0, 3)
	for _, r := range []Role{Role_Requester, Role_Claimant, Role_MediatorStaff} {
		if s.Has(r) {
			names = append(names, r.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// RoleFacts are the facts about an actor that cannot be derived from the request itself.
type RoleFacts struct {
	IsMediatorStaff bool
}
