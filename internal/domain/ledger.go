package domain

import (
	"strings"
	"time"
)

// EntryKind names one of the three engagement ledgers.
type EntryKind string

const (
	KindDonation  EntryKind = "donation"
	KindVolunteer EntryKind = "volunteer"
	KindFeedback  EntryKind = "feedback"
)

// ParseEntryKind accepts the singular or plural path segment.
func ParseEntryKind(s string) (EntryKind, bool) {
	switch strings.TrimSuffix(strings.ToLower(s), "s") {
	case "donation":
		return KindDonation, true
	case "volunteer":
		return KindVolunteer, true
	case "feedback":
		return KindFeedback, true
	}
	return "", false
}

type Donation struct {
	ID        uint      `gorm:"primaryKey" json:"donation_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CauseID   uint      `gorm:"index;not null" json:"cause_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Date      time.Time `gorm:"type:date" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func (Donation) TableName() string { return "donations" }

type Volunteer struct {
	ID        uint      `gorm:"primaryKey" json:"volunteer_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CauseID   uint      `gorm:"index;not null" json:"cause_id"`
	Hours     float64   `gorm:"not null;default:0" json:"hours"`
	Date      time.Time `gorm:"type:date" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func (Volunteer) TableName() string { return "volunteers" }

type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"feedback_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CauseID   uint      `gorm:"index;not null" json:"cause_id"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func (Feedback) TableName() string { return "feedbacks" }

// Engagements groups the ledger rows touching one user or one cause.
type Engagements struct {
	Donations  []Donation  `json:"donations"`
	Volunteers []Volunteer `json:"volunteers"`
	Feedbacks  []Feedback  `json:"feedbacks"`
}

// Totals summarises what a cause has received.
type Totals struct {
	DonationCount  int     `json:"donation_count"`
	DonationSum    float64 `json:"donation_sum"`
	VolunteerCount int     `json:"volunteer_count"`
	VolunteerHours float64 `json:"volunteer_hours"`
	FeedbackCount  int     `json:"feedback_count"`
	AverageRating  float64 `json:"average_rating"`
}

func (e Engagements) Totals() Totals {
	t := Totals{
		DonationCount:  len(e.Donations),
		VolunteerCount: len(e.Volunteers),
		FeedbackCount:  len(e.Feedbacks),
	}
	for _, d := range e.Donations {
		t.DonationSum += d.Amount
	}
	for _, v := range e.Volunteers {
		t.VolunteerHours += v.Hours
	}
	if len(e.Feedbacks) > 0 {
		sum := 0
		for _, f := range e.Feedbacks {
			sum += f.Rating
		}
		t.AverageRating = float64(sum) / float64(len(e.Feedbacks))
	}
	return t
}
