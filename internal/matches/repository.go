package matches

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Create(ctx context.Context, m Match) (Match, error) {
	m.Status = StatusScheduled
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return Match{}, apperr.Wrap(apperr.Internal, "create match", err)
	}
	return m, nil
}

func (r *Repository) Get(ctx context.Context, matchID uint) (Match, error) {
	var m Match
	err := r.db.WithContext(ctx).First(&m, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Match{}, apperr.E(apperr.NotFound, "match not found")
	}
	if err != nil {
		return Match{}, apperr.Wrap(apperr.Internal, "get match", err)
	}
	return m, nil
}

// ListFilter selects which slice of a club's matches to return.
type ListFilter string

const (
	ListAll      ListFilter = ""
	ListUpcoming ListFilter = "upcoming"
	ListPast     ListFilter = "past"
)

func (r *Repository) ListByClub(ctx context.Context, clubID uint, filter ListFilter) ([]Match, error) {
	q := r.db.WithContext(ctx).Where("club_id = ?", clubID)
	now := time.Now().UTC()
	switch filter {
	case ListUpcoming:
		q = q.Where("scheduled_at >= ? AND status NOT IN ?", now, []Status{StatusCompleted, StatusCancelled}).
			Order("scheduled_at ASC")
	case ListPast:
		q = q.Where("scheduled_at < ? OR status IN ?", now, []Status{StatusCompleted, StatusCancelled}).
			Order("scheduled_at DESC")
	default:
		q = q.Order("scheduled_at DESC")
	}
	var out []Match
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list matches", err)
	}
	return out, nil
}

type MatchUpdate struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Location    *string    `json:"location"`
	Mode        *Mode      `json:"mode"`
	Notes       *string    `json:"notes"`
}

// Update edits scheduling details. Only SCHEDULED matches can change.
func (r *Repository) Update(ctx context.Context, matchID uint, u MatchUpdate) (Match, error) {
	m, err := r.Get(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusScheduled {
		return Match{}, apperr.E(apperr.Conflict, "cannot update a match that has already started or been cancelled")
	}
	updates := map[string]any{}
	if u.ScheduledAt != nil {
		updates["scheduled_at"] = *u.ScheduledAt
	}
	if u.Location != nil {
		updates["location"] = *u.Location
	}
	if u.Mode != nil {
		if !u.Mode.Valid() {
			return Match{}, apperr.E(apperr.Invalid, "invalid match mode")
		}
		updates["mode"] = *u.Mode
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&Match{}).Where("id = ?", matchID).Updates(updates).Error; err != nil {
			return Match{}, apperr.Wrap(apperr.Internal, "update match", err)
		}
	}
	return r.Get(ctx, matchID)
}

// casStatus flips status from → to only if the row is still in from.
// Returns false when the precondition no longer holds, so two concurrent
// transitions cannot both succeed.
func casStatus(tx *gorm.DB, matchID uint, from, to Status, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&Match{}).
		Where("id = ? AND status = ?", matchID, from).
		Updates(updates)
	if res.Error != nil {
		return false, apperr.Wrap(apperr.Internal, "transition status", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ListGoals(ctx context.Context, matchID uint) ([]Goal, error) {
	var out []Goal
	err := r.db.WithContext(ctx).
		Preload("Scorer.User").Preload("Assister.User").
		Where("match_id = ?", matchID).
		Order("goal_order").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list goals", err)
	}
	return out, nil
}

func (r *Repository) ListParticipations(ctx context.Context, matchID uint) ([]Participation, error) {
	var out []Participation
	err := r.db.WithContext(ctx).
		Preload("Member.User").
		Where("match_id = ?", matchID).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list participations", err)
	}
	return out, nil
}

// GetParticipation returns the participation row for a member in a match.
func (r *Repository) GetParticipation(ctx context.Context, matchID, memberID uint) (Participation, error) {
	var p Participation
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND member_id = ?", matchID, memberID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Participation{}, apperr.E(apperr.NotFound, "member is not part of this match")
	}
	if err != nil {
		return Participation{}, apperr.Wrap(apperr.Internal, "get participation", err)
	}
	return p, nil
}
