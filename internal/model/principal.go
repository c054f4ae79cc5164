package model

import "github.com/google/uuid"

// Principal is the authenticated caller taken from the access token.
type Principal struct {
	SubjectID uuid.UUID
	Role      string
	StaffID   string
	Email     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff
}

func (p Principal) IsUser() bool {
	return p.Role == RoleUser
}

// ActorID returns the admin reference recorded on remark changes, nil for other roles.
func (p Principal) ActorID() *uuid.UUID {
	if !p.IsAdmin() || p.SubjectID == uuid.Nil {
		return nil
	}
	id := p.SubjectID
	return &id
}
