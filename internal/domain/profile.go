package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID          uint                        `gorm:"primaryKey" json:"user_id"`
	AuthID      uint                        `gorm:"uniqueIndex;not null" json:"auth_id"`
	Auth        *Auth                       `gorm:"foreignKey:AuthID" json:"-"`
	Email       string                      `gorm:"size:191;index" json:"email,omitempty"`
	Age         int                         `json:"age,omitempty"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	Contacts    datatypes.JSONSlice[string] `json:"contacts"`
	Socials     datatypes.JSONSlice[string] `json:"socials"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`

	// Mirrored from Auth after a load, never persisted.
	Name     string `gorm:"-" json:"name"`
	Verified bool   `gorm:"-" json:"verified"`
}

func (User) TableName() string { return "users" }

// Public strips contact details from a profile shown to strangers.
func (u User) Public() User {
	u.Email = ""
	u.Contacts = nil
	u.Auth = nil
	return u
}

type CauseType string

const (
	CauseNGO   CauseType = "NGO"
	CauseEvent CauseType = "Event"
)

// ParseCauseType accepts any casing of "ngo" and "event".
func ParseCauseType(s string) (CauseType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ngo":
		return CauseNGO, true
	case "event":
		return CauseEvent, true
	}
	return "", false
}

type Cause struct {
	ID          uint                        `gorm:"primaryKey" json:"cause_id"`
	AuthID      uint                        `gorm:"uniqueIndex;not null" json:"auth_id"`
	Auth        *Auth                       `gorm:"foreignKey:AuthID" json:"-"`
	OwnerUserID uint                        `gorm:"index;not null" json:"owner_user_id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Type        CauseType                   `gorm:"size:8;index;not null" json:"type"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	Logo        string                      `gorm:"size:255" json:"logo,omitempty"`
	Email       string                      `gorm:"size:191" json:"email,omitempty"`
	Online      bool                        `json:"online"`
	Contacts    datatypes.JSONSlice[string] `json:"contacts"`
	Socials     datatypes.JSONSlice[string] `json:"socials"`
	Locations   []Location                  `gorm:"foreignKey:CauseID" json:"locations"`

	// NGO
	YearEst *int `json:"year_est,omitempty"`
	Age     *int `json:"age,omitempty"`

	// Event
	EventDate string `gorm:"size:10" json:"date,omitempty"`
	EventTime string `gorm:"size:5" json:"time,omitempty"`
	Capacity  *int   `json:"capacity,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Verified bool `gorm:"-" json:"verified"`
}

func (Cause) TableName() string { return "causes" }

type Location struct {
	ID        uint    `gorm:"primaryKey" json:"loc_id"`
	CauseID   uint    `gorm:"index;not null" json:"cause_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `gorm:"size:255" json:"address,omitempty"`
	City      string  `gorm:"size:100" json:"city,omitempty"`
	Country   string  `gorm:"size:100" json:"country,omitempty"`
	ContactNo string  `gorm:"size:50" json:"contact_no,omitempty"`
}

func (Location) TableName() string { return "locations" }

// SyncAuth copies the Auth fields a profile exposes in JSON.
func (u *User) SyncAuth() {
	if u.Auth != nil {
		u.Name = u.Auth.Name
		u.Verified = u.Auth.Verified
	}
}

func (c *Cause) SyncAuth() {
	if c.Auth != nil {
		c.Verified = c.Auth.Verified
	}
}
