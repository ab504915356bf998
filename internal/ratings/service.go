package ratings

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/matches"
)

// Service enforces the rating rules: editable only while the match is
// FINISHED, only for members with played=true, readable once FINISHED or
// COMPLETED.
type Service struct {
	db      *gorm.DB
	matches *matches.Repository
	clubs   *clubs.Repository
	log     zerolog.Logger
}

func NewService(db *gorm.DB, matchesRepo *matches.Repository, clubsRepo *clubs.Repository, log zerolog.Logger) *Service {
	return &Service{db: db, matches: matchesRepo, clubs: clubsRepo, log: log}
}

type UpsertInput struct {
	MemberID uint   `json:"member_id"`
	Rating   string `json:"rating"`
	Comment  string `json:"comment"`
}

// Upsert creates or replaces the rating for (match, member).
func (s *Service) Upsert(ctx context.Context, matchID, userID uint, in UpsertInput) (Rated, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return Rated{}, err
	}
	if err := s.clubs.RequireAdmin(ctx, m.ClubID, userID); err != nil {
		return Rated{}, err
	}
	if !m.Status.RatingsEditable() {
		return Rated{}, apperr.E(apperr.Conflict, "ratings can only be edited while the match is finished")
	}
	p, err := s.matches.GetParticipation(ctx, matchID, in.MemberID)
	if err != nil {
		return Rated{}, err
	}
	if !p.Played {
		return Rated{}, apperr.E(apperr.Conflict, "member did not play in this match")
	}
	value, err := Encode(in.Rating)
	if err != nil {
		return Rated{}, apperr.Ef(apperr.Invalid, "invalid rating %q", in.Rating)
	}
	if len(in.Comment) > MaxCommentLength {
		return Rated{}, apperr.Ef(apperr.Invalid, "comment too long (max %d)", MaxCommentLength)
	}

	var r PlayerRating
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ferr := tx.Where("match_id = ? AND member_id = ?", matchID, in.MemberID).First(&r).Error
		switch {
		case ferr == nil:
			return tx.Model(&r).Updates(map[string]any{"value": value, "comment": in.Comment}).Error
		case errors.Is(ferr, gorm.ErrRecordNotFound):
			r = PlayerRating{MatchID: matchID, MemberID: in.MemberID, Value: value, Comment: in.Comment}
			return tx.Create(&r).Error
		default:
			return ferr
		}
	})
	if err != nil {
		return Rated{}, apperr.Wrap(apperr.Internal, "upsert rating", err)
	}
	r.Value = value
	r.Comment = in.Comment
	s.log.Info().Uint("match_id", matchID).Uint("member_id", in.MemberID).Str("rating", in.Rating).Msg("rating saved")
	return Rated{PlayerRating: r, Display: in.Rating}, nil
}

// ForMatch returns the rating sheet, readable only once the match is
// FINISHED or COMPLETED.
func (s *Service) ForMatch(ctx context.Context, matchID, userID uint) (MatchRatings, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return MatchRatings{}, err
	}
	if _, err := s.clubs.MembershipOf(ctx, m.ClubID, userID); err != nil {
		return MatchRatings{}, err
	}
	if !m.Status.RatingsVisible() {
		return MatchRatings{}, apperr.E(apperr.Conflict, "ratings are not available for this match")
	}

	var rows []PlayerRating
	err = s.db.WithContext(ctx).
		Preload("Member.User").
		Where("match_id = ?", matchID).
		Order("member_id").
		Find(&rows).Error
	if err != nil {
		return MatchRatings{}, apperr.Wrap(apperr.Internal, "list ratings", err)
	}

	out := MatchRatings{Ratings: make([]Rated, 0, len(rows))}
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		display, derr := Decode(row.Value)
		if derr != nil {
			return MatchRatings{}, apperr.Wrap(apperr.Internal, "stored rating out of scale", derr)
		}
		out.Ratings = append(out.Ratings, Rated{PlayerRating: row, Display: display})
		values = append(values, row.Value)
	}
	if mean, ok := Average(values); ok {
		out.Average = &mean
		out.AverageDisplay = RoundToStep(mean)
	}
	return out, nil
}

// Delete removes a rating. Like edits, only allowed while FINISHED.
func (s *Service) Delete(ctx context.Context, matchID, memberID, userID uint) error {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.clubs.RequireAdmin(ctx, m.ClubID, userID); err != nil {
		return err
	}
	if !m.Status.RatingsEditable() {
		return apperr.E(apperr.Conflict, "ratings can only be edited while the match is finished")
	}
	res := s.db.WithContext(ctx).
		Where("match_id = ? AND member_id = ?", matchID, memberID).
		Delete(&PlayerRating{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "delete rating", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.E(apperr.NotFound, "rating not found")
	}
	return nil
}

// MemberHistory returns a member's ratings across completed matches, oldest
// first, for trend charts.
func (s *Service) MemberHistory(ctx context.Context, clubID, memberID, userID uint) ([]HistoryEntry, error) {
	if _, err := s.clubs.MembershipOf(ctx, clubID, userID); err != nil {
		return nil, err
	}
	if _, err := s.clubs.GetMember(ctx, clubID, memberID); err != nil {
		return nil, err
	}

	var rows []PlayerRating
	err := s.db.WithContext(ctx).
		Joins("JOIN matches ON matches.id = player_ratings.match_id").
		Where("player_ratings.member_id = ? AND matches.status = ?", memberID, matches.StatusCompleted).
		Order("matches.scheduled_at").
		Preload("Match").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "rating history", err)
	}

	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		display, derr := Decode(row.Value)
		if derr != nil {
			return nil, apperr.Wrap(apperr.Internal, "stored rating out of scale", derr)
		}
		out = append(out, HistoryEntry{
			MatchID:     row.MatchID,
			ScheduledAt: row.Match.ScheduledAt,
			Value:       row.Value,
			Display:     display,
		})
	}
	return out, nil
}
