package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialState string

const (
	// CredentialDefaultPending means the stored hash is the hash of the default password.
	CredentialDefaultPending CredentialState = "DEFAULT_PENDING"
	CredentialUserSet        CredentialState = "USER_SET"
)

const RoleStaff = "STAFF"

type Staff struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	StaffID                  string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"staff_id"`
	Name                     string          `gorm:"type:varchar(255);not null" json:"name"`
	Email                    string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash             string          `gorm:"column:password;type:varchar(255);not null" json:"-"`
	Role                     string          `gorm:"type:varchar(32);not null;default:STAFF" json:"role"`
	FirebaseUID              *string         `gorm:"type:varchar(128)" json:"firebase_uid"`
	CredentialState          CredentialState `gorm:"type:varchar(32);not null;default:DEFAULT_PENDING" json:"credential_state"`
	DateAdded                *time.Time      `gorm:"type:date" json:"date_added"`
	PasswordResetRequestedAt *time.Time      `json:"password_reset_requested_at"`
	PasswordResetCompletedAt *time.Time      `json:"password_reset_completed_at"`
	CreatedAt                time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CredentialState == "" {
		s.CredentialState = CredentialDefaultPending
	}
	if s.Role == "" {
		s.Role = RoleStaff
	}
	return nil
}

func (s *Staff) FirstLogin() bool {
	return s.CredentialState != CredentialUserSet
}

// DisplayName prefers the human-readable staff id.
func (s *Staff) DisplayName() string {
	if s.StaffID != "" {
		return s.StaffID
	}
	return s.Name
}

func (s Staff) MarshalJSON() ([]byte, error) {
	type staffAlias Staff
	return json.Marshal(struct {
		staffAlias
		FirstLogin bool `json:"first_login"`
	}{
		staffAlias: staffAlias(s),
		FirstLogin: s.FirstLogin(),
	})
}
