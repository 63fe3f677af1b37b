package domain

import "time"

// Role is the closed set of account kinds. It is fixed when the Auth is created.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleCause Role = "cause"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleCause:
		return true
	}
	return false
}

// Auth holds the credential, role and verification flag of one account.
type Auth struct {
	ID           uint      `gorm:"primaryKey" json:"auth_id"`
	Name         string    `gorm:"uniqueIndex;size:120;not null" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Auth) TableName() string { return "auth_data" }

// IsVisible is the only visibility rule: an entity is public iff its own
// Auth record is verified.
func IsVisible(a *Auth) bool {
	return a != nil && a.Verified
}
