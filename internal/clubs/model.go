package clubs

import (
	"time"

	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/auth"
)

// Privilege is a member's privilege level within a club.
type Privilege string

const (
	PrivilegeOwner   Privilege = "OWNER"
	PrivilegeManager Privilege = "MANAGER"
	PrivilegeMember  Privilege = "MEMBER"
)

func (p Privilege) Valid() bool {
	switch p {
	case PrivilegeOwner, PrivilegeManager, PrivilegeMember:
		return true
	}
	return false
}

// IsAdmin reports whether the privilege allows managing the club.
func (p Privilege) IsAdmin() bool {
	return p == PrivilegeOwner || p == PrivilegeManager
}

// PlayerRole is a playing position.
type PlayerRole string

const (
	RoleGoalkeeper PlayerRole = "GOALKEEPER"
	RoleDefender   PlayerRole = "DEFENDER"
	RoleMidfielder PlayerRole = "MIDFIELDER"
	RoleForward    PlayerRole = "FORWARD"
	RoleFlexible   PlayerRole = "FLEXIBLE"
)

func (r PlayerRole) Valid() bool {
	switch r {
	case RoleGoalkeeper, RoleDefender, RoleMidfielder, RoleForward, RoleFlexible:
		return true
	}
	return false
}

type Club struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Member struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ClubID        uint       `gorm:"not null;index;uniqueIndex:idx_club_user,priority:1;uniqueIndex:idx_club_jersey,priority:1" json:"club_id"`
	Club          Club       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID        uint       `gorm:"not null;uniqueIndex:idx_club_user,priority:2" json:"user_id"`
	User          auth.User  `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	Privilege     Privilege  `gorm:"not null;default:MEMBER" json:"privilege"`
	PrimaryRole   PlayerRole `gorm:"not null;default:FLEXIBLE" json:"primary_role"`
	SecondaryRole PlayerRole `json:"secondary_role"`
	JerseyNumber  int        `gorm:"not null;uniqueIndex:idx_club_jersey,priority:2" json:"jersey_number"`
	JoinedAt      time.Time  `gorm:"autoCreateTime" json:"joined_at"`
}

type Invite struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ClubID    uint       `gorm:"not null;index" json:"club_id"`
	Club      Club       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy uint       `gorm:"not null" json:"created_by"`
	Token     string     `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}
