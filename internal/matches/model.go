package matches

import (
	"time"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
)

// Status is the match lifecycle state. Transitions only follow the edges
// implemented in Service; everything else is rejected with Conflict.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinished, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal states accept no further transitions except CANCELLED → SCHEDULED.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// GoalsEditable reports whether goals may be added or removed.
func (s Status) GoalsEditable() bool {
	return s == StatusInProgress || s == StatusFinished
}

// ResultsVisible reports whether score and goal list may be viewed.
func (s Status) ResultsVisible() bool {
	return s == StatusInProgress || s == StatusFinished || s == StatusCompleted
}

// RatingsVisible reports whether ratings may be viewed.
func (s Status) RatingsVisible() bool {
	return s == StatusFinished || s == StatusCompleted
}

// RatingsEditable reports whether ratings may be created or changed.
func (s Status) RatingsEditable() bool {
	return s == StatusFinished
}

// Mode is the match format.
type Mode string

const (
	ModeFive   Mode = "5vs5"
	ModeEight  Mode = "8vs8"
	ModeEleven Mode = "11vs11"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeFive, ModeEight, ModeEleven:
		return true
	}
	return false
}

// Side is the team side a goal is credited to.
type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
)

func (s Side) Valid() bool { return s == SideHome || s == SideAway }

func (s Side) Opponent() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

const (
	MinScore = 0
	MaxScore = 99
)

type Match struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ClubID      uint       `gorm:"not null;index" json:"club_id"`
	Club        clubs.Club `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ScheduledAt time.Time  `gorm:"not null;index" json:"scheduled_at"`
	Location    string     `json:"location"`
	Mode        Mode       `gorm:"not null" json:"mode"`
	Status      Status     `gorm:"not null;default:SCHEDULED;index" json:"status"`
	HomeScore   *int       `json:"home_score"`
	AwayScore   *int       `json:"away_score"`
	Notes       string     `json:"notes"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Goal struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	MatchID    uint          `gorm:"not null;index" json:"match_id"`
	Match      Match         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ScorerID   uint          `gorm:"not null" json:"scorer_id"`
	Scorer     clubs.Member  `gorm:"foreignKey:ScorerID" json:"scorer"`
	AssisterID *uint         `json:"assister_id"`
	Assister   *clubs.Member `gorm:"foreignKey:AssisterID" json:"assister,omitempty"`
	OwnGoal    bool          `gorm:"not null;default:false" json:"own_goal"`
	Side       Side          `gorm:"not null" json:"side"`
	Order      int           `gorm:"column:goal_order;not null" json:"order"`
	CreatedAt  time.Time     `json:"created_at"`
}

// RSVPStatus is a member's attendance response for an upcoming match.
type RSVPStatus string

const (
	RSVPIn    RSVPStatus = "IN"
	RSVPOut   RSVPStatus = "OUT"
	RSVPMaybe RSVPStatus = "MAYBE"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPIn, RSVPOut, RSVPMaybe:
		return true
	}
	return false
}

// priority orders responses for display: in before maybe before out.
func (s RSVPStatus) priority() int {
	switch s {
	case RSVPIn:
		return 0
	case RSVPMaybe:
		return 1
	default:
		return 2
	}
}

// RSVP is a member's own response to a scheduled match. One per
// (match, member); re-responding overwrites.
type RSVP struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	MatchID     uint         `gorm:"not null;uniqueIndex:idx_rsvp_match_member,priority:1" json:"match_id"`
	Match       Match        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MemberID    uint         `gorm:"not null;uniqueIndex:idx_rsvp_match_member,priority:2" json:"member_id"`
	Member      clubs.Member `gorm:"foreignKey:MemberID" json:"member"`
	Status      RSVPStatus   `gorm:"not null" json:"status"`
	RespondedAt time.Time    `gorm:"not null" json:"responded_at"`
}

// Participation records whether a club member actually played in a match.
// It gates rating eligibility.
type Participation struct {
	ID       uint         `gorm:"primaryKey" json:"id"`
	MatchID  uint         `gorm:"not null;uniqueIndex:idx_match_member,priority:1" json:"match_id"`
	Match    Match        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MemberID uint         `gorm:"not null;uniqueIndex:idx_match_member,priority:2" json:"member_id"`
	Member   clubs.Member `gorm:"foreignKey:MemberID" json:"member"`
	Played   bool         `gorm:"not null;default:false" json:"played"`
}
