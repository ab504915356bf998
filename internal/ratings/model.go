package ratings

import (
	"time"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/matches"
)

const MaxCommentLength = 500

// PlayerRating stores one admin-assigned rating per (match, member).
// Value is the stored decimal form of a display rating.
type PlayerRating struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	MatchID   uint          `gorm:"not null;uniqueIndex:idx_rating_match_member,priority:1" json:"match_id"`
	Match     matches.Match `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MemberID  uint          `gorm:"not null;uniqueIndex:idx_rating_match_member,priority:2" json:"member_id"`
	Member    clubs.Member  `gorm:"foreignKey:MemberID" json:"member"`
	Value     float64       `gorm:"not null" json:"value"`
	Comment   string        `gorm:"size:500" json:"comment"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Rated is a rating decorated with its display form.
type Rated struct {
	PlayerRating
	Display string `json:"display"`
}

// MatchRatings is the rating sheet for one match.
type MatchRatings struct {
	Ratings        []Rated  `json:"ratings"`
	Average        *float64 `json:"average"`
	AverageDisplay string   `json:"average_display,omitempty"`
}

// HistoryEntry is one point in a member's rating trend.
type HistoryEntry struct {
	MatchID     uint      `json:"match_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Value       float64   `json:"value"`
	Display     string    `json:"display"`
}
