package clubs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

const (
	MinJerseyNumber = 1
	MaxJerseyNumber = 99
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository { return &Repository{db: db} }

// CreateClub inserts the club and its owner membership in one transaction.
func (r *Repository) CreateClub(ctx context.Context, club Club, ownerUserID uint) (Club, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		club.CreatedBy = ownerUserID
		if err := tx.Create(&club).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "create club", err)
		}
		owner := Member{
			ClubID:       club.ID,
			UserID:       ownerUserID,
			Privilege:    PrivilegeOwner,
			PrimaryRole:  RoleFlexible,
			JerseyNumber: MinJerseyNumber,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "create owner member", err)
		}
		return nil
	})
	if err != nil {
		return Club{}, err
	}
	return club, nil
}

func (r *Repository) GetClub(ctx context.Context, clubID uint) (Club, error) {
	var c Club
	err := r.db.WithContext(ctx).First(&c, clubID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Club{}, apperr.E(apperr.NotFound, "club not found")
	}
	if err != nil {
		return Club{}, apperr.Wrap(apperr.Internal, "get club", err)
	}
	return c, nil
}

func (r *Repository) ListUserClubs(ctx context.Context, userID uint) ([]Club, error) {
	var out []Club
	err := r.db.WithContext(ctx).
		Joins("JOIN members ON members.club_id = clubs.id AND members.user_id = ?", userID).
		Order("clubs.name").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list clubs", err)
	}
	return out, nil
}

type ClubUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r *Repository) UpdateClub(ctx context.Context, clubID uint, u ClubUpdate) (Club, error) {
	updates := map[string]any{}
	if u.Name != nil {
		if *u.Name == "" {
			return Club{}, apperr.E(apperr.Invalid, "club name cannot be empty")
		}
		updates["name"] = *u.Name
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&Club{}).Where("id = ?", clubID).Updates(updates).Error; err != nil {
			return Club{}, apperr.Wrap(apperr.Internal, "update club", err)
		}
	}
	return r.GetClub(ctx, clubID)
}

// DeleteClub soft-deletes; matches and members stay for history.
func (r *Repository) DeleteClub(ctx context.Context, clubID uint) error {
	res := r.db.WithContext(ctx).Delete(&Club{}, clubID)
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "delete club", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.E(apperr.NotFound, "club not found")
	}
	return nil
}

// MembershipOf returns the caller's membership in the club, if any.
func (r *Repository) MembershipOf(ctx context.Context, clubID, userID uint) (Member, error) {
	var m Member
	err := r.db.WithContext(ctx).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Member{}, apperr.E(apperr.Forbidden, "not a member of this club")
	}
	if err != nil {
		return Member{}, apperr.Wrap(apperr.Internal, "get membership", err)
	}
	return m, nil
}

// RequireAdmin fails with Forbidden unless userID holds OWNER or MANAGER
// privilege in the club.
func (r *Repository) RequireAdmin(ctx context.Context, clubID, userID uint) error {
	m, err := r.MembershipOf(ctx, clubID, userID)
	if err != nil {
		return err
	}
	if !m.Privilege.IsAdmin() {
		return apperr.E(apperr.Forbidden, "admin privilege required")
	}
	return nil
}

func (r *Repository) ListMembers(ctx context.Context, clubID uint) ([]Member, error) {
	var out []Member
	err := r.db.WithContext(ctx).Preload("User").
		Where("club_id = ?", clubID).
		Order("jersey_number").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list members", err)
	}
	return out, nil
}

func (r *Repository) GetMember(ctx context.Context, clubID, memberID uint) (Member, error) {
	var m Member
	err := r.db.WithContext(ctx).Preload("User").
		Where("club_id = ? AND id = ?", clubID, memberID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Member{}, apperr.E(apperr.NotFound, "member not found")
	}
	if err != nil {
		return Member{}, apperr.Wrap(apperr.Internal, "get member", err)
	}
	return m, nil
}

// jerseyTaken reports whether another member of the club already wears number.
func jerseyTaken(tx *gorm.DB, clubID uint, number int, excludeMemberID uint) (bool, error) {
	var n int64
	err := tx.Model(&Member{}).
		Where("club_id = ? AND jersey_number = ? AND id != ?", clubID, number, excludeMemberID).
		Count(&n).Error
	return n > 0, err
}

type MemberUpdate struct {
	PrimaryRole   *PlayerRole `json:"primary_role"`
	SecondaryRole *PlayerRole `json:"secondary_role"`
	JerseyNumber  *int        `json:"jersey_number"`
}

// UpdateMember changes playing attributes. Jersey numbers are validated to
// [1,99] and must be free within the club.
func (r *Repository) UpdateMember(ctx context.Context, clubID, memberID uint, u MemberUpdate) (Member, error) {
	if _, err := r.GetMember(ctx, clubID, memberID); err != nil {
		return Member{}, err
	}
	updates := map[string]any{}
	if u.PrimaryRole != nil {
		if !u.PrimaryRole.Valid() {
			return Member{}, apperr.E(apperr.Invalid, "invalid primary role")
		}
		updates["primary_role"] = *u.PrimaryRole
	}
	if u.SecondaryRole != nil {
		if *u.SecondaryRole != "" && !u.SecondaryRole.Valid() {
			return Member{}, apperr.E(apperr.Invalid, "invalid secondary role")
		}
		updates["secondary_role"] = *u.SecondaryRole
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.JerseyNumber != nil {
			n := *u.JerseyNumber
			if n < MinJerseyNumber || n > MaxJerseyNumber {
				return apperr.Ef(apperr.Invalid, "jersey number must be between %d and %d", MinJerseyNumber, MaxJerseyNumber)
			}
			taken, err := jerseyTaken(tx, clubID, n, memberID)
			if err != nil {
				return apperr.Wrap(apperr.Internal, "jersey check", err)
			}
			if taken {
				return apperr.Ef(apperr.Conflict, "jersey number %d already taken", n)
			}
			updates["jersey_number"] = n
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&Member{}).Where("id = ?", memberID).Updates(updates).Error
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			return Member{}, apperr.Wrap(apperr.Internal, "update member", err)
		}
		return Member{}, err
	}
	return r.GetMember(ctx, clubID, memberID)
}

// UpdatePrivilege changes a member's privilege. A club must keep at least
// one OWNER at all times.
func (r *Repository) UpdatePrivilege(ctx context.Context, clubID, memberID uint, priv Privilege) (Member, error) {
	if !priv.Valid() {
		return Member{}, apperr.E(apperr.Invalid, "invalid privilege")
	}
	m, err := r.GetMember(ctx, clubID, memberID)
	if err != nil {
		return Member{}, err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.Privilege == PrivilegeOwner && priv != PrivilegeOwner {
			var owners int64
			if err := tx.Model(&Member{}).
				Where("club_id = ? AND privilege = ? AND id != ?", clubID, PrivilegeOwner, memberID).
				Count(&owners).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "count owners", err)
			}
			if owners == 0 {
				return apperr.E(apperr.Conflict, "club must keep at least one owner")
			}
		}
		return tx.Model(&Member{}).Where("id = ?", memberID).Update("privilege", priv).Error
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			return Member{}, apperr.Wrap(apperr.Internal, "update privilege", err)
		}
		return Member{}, err
	}
	return r.GetMember(ctx, clubID, memberID)
}

// RemoveMember deletes a membership. The last owner cannot be removed.
func (r *Repository) RemoveMember(ctx context.Context, clubID, memberID uint) error {
	m, err := r.GetMember(ctx, clubID, memberID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.Privilege == PrivilegeOwner {
			var owners int64
			if err := tx.Model(&Member{}).
				Where("club_id = ? AND privilege = ? AND id != ?", clubID, PrivilegeOwner, memberID).
				Count(&owners).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "count owners", err)
			}
			if owners == 0 {
				return apperr.E(apperr.Conflict, "club must keep at least one owner")
			}
		}
		return tx.Delete(&Member{}, memberID).Error
	})
}

// NextJerseyNumber returns the lowest free number in the club.
func (r *Repository) NextJerseyNumber(ctx context.Context, clubID uint) (int, error) {
	var numbers []int
	err := r.db.WithContext(ctx).Model(&Member{}).
		Where("club_id = ?", clubID).
		Pluck("jersey_number", &numbers).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "list jersey numbers", err)
	}
	used := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		used[n] = true
	}
	for n := MinJerseyNumber; n <= MaxJerseyNumber; n++ {
		if !used[n] {
			return n, nil
		}
	}
	return 0, apperr.E(apperr.Conflict, "no free jersey numbers")
}

func (r *Repository) CreateInvite(ctx context.Context, clubID, createdBy uint, ttl time.Duration) (Invite, error) {
	inv := Invite{
		ClubID:    clubID,
		CreatedBy: createdBy,
		Token:     uuid.NewString(),
	}
	if ttl > 0 {
		exp := time.Now().Add(ttl).UTC()
		inv.ExpiresAt = &exp
	}
	if err := r.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return Invite{}, apperr.Wrap(apperr.Internal, "create invite", err)
	}
	return inv, nil
}

func (r *Repository) GetInviteByToken(ctx context.Context, token string) (Invite, error) {
	var inv Invite
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Invite{}, apperr.E(apperr.NotFound, "invite not found")
	}
	if err != nil {
		return Invite{}, apperr.Wrap(apperr.Internal, "get invite", err)
	}
	if inv.ExpiresAt != nil && inv.ExpiresAt.Before(time.Now().UTC()) {
		return Invite{}, apperr.E(apperr.NotFound, "invite expired")
	}
	return inv, nil
}

// RedeemInvite joins the user to the invite's club as a plain MEMBER with
// the next free jersey number.
func (r *Repository) RedeemInvite(ctx context.Context, token string, userID uint) (Member, error) {
	inv, err := r.GetInviteByToken(ctx, token)
	if err != nil {
		return Member{}, err
	}
	var existing Member
	err = r.db.WithContext(ctx).
		Where("club_id = ? AND user_id = ?", inv.ClubID, userID).
		First(&existing).Error
	if err == nil {
		return Member{}, apperr.E(apperr.Conflict, "already a member of this club")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Member{}, apperr.Wrap(apperr.Internal, "membership check", err)
	}
	jersey, err := r.NextJerseyNumber(ctx, inv.ClubID)
	if err != nil {
		return Member{}, err
	}
	m := Member{
		ClubID:       inv.ClubID,
		UserID:       userID,
		Privilege:    PrivilegeMember,
		PrimaryRole:  RoleFlexible,
		JerseyNumber: jersey,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return Member{}, apperr.Wrap(apperr.Internal, "create member", err)
	}
	return r.GetMember(ctx, inv.ClubID, m.ID)
}
