// Package stats aggregates per-club leaderboards and per-member summaries
// over completed matches.
package stats

import (
	"context"

	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/matches"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/ratings"
)

const DefaultLimit = 10

type Service struct {
	db    *gorm.DB
	clubs *clubs.Repository
}

func NewService(db *gorm.DB, clubsRepo *clubs.Repository) *Service {
	return &Service{db: db, clubs: clubsRepo}
}

// LeaderboardEntry is one row of a club leaderboard.
type LeaderboardEntry struct {
	MemberID     uint    `json:"member_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Nickname     string  `json:"nickname"`
	JerseyNumber int     `json:"jersey_number"`
	Count        int64   `json:"count"`
	Mean         float64 `json:"mean,omitempty"`
	MeanDisplay  string  `json:"mean_display,omitempty"`
}

// MemberSummary aggregates one member's record across completed matches.
type MemberSummary struct {
	MemberID    uint     `json:"member_id"`
	Appearances int64    `json:"appearances"`
	Goals       int64    `json:"goals"`
	Assists     int64    `json:"assists"`
	OwnGoals    int64    `json:"own_goals"`
	RatingCount int64    `json:"rating_count"`
	RatingMean  *float64 `json:"rating_mean"`
	RatingStep  string   `json:"rating_step,omitempty"`
}

func (s *Service) requireMember(ctx context.Context, clubID, userID uint) error {
	_, err := s.clubs.MembershipOf(ctx, clubID, userID)
	return err
}

const memberCols = "members.id AS member_id, users.first_name, users.last_name, users.nickname, members.jersey_number"

// TopScorers ranks members by non-own goals in completed matches.
func (s *Service) TopScorers(ctx context.Context, clubID, userID uint, limit int) ([]LeaderboardEntry, error) {
	if err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	var out []LeaderboardEntry
	err := s.db.WithContext(ctx).
		Table("goals").
		Select(memberCols+", COUNT(goals.id) AS count").
		Joins("JOIN matches ON matches.id = goals.match_id AND matches.status = ?", matches.StatusCompleted).
		Joins("JOIN members ON members.id = goals.scorer_id").
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.club_id = ? AND goals.own_goal = ?", clubID, false).
		Group("members.id, users.first_name, users.last_name, users.nickname, members.jersey_number").
		Order("count DESC").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "top scorers", err)
	}
	return out, nil
}

// TopAssisters ranks members by assists in completed matches.
func (s *Service) TopAssisters(ctx context.Context, clubID, userID uint, limit int) ([]LeaderboardEntry, error) {
	if err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	var out []LeaderboardEntry
	err := s.db.WithContext(ctx).
		Table("goals").
		Select(memberCols+", COUNT(goals.id) AS count").
		Joins("JOIN matches ON matches.id = goals.match_id AND matches.status = ?", matches.StatusCompleted).
		Joins("JOIN members ON members.id = goals.assister_id").
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.club_id = ?", clubID).
		Group("members.id, users.first_name, users.last_name, users.nickname, members.jersey_number").
		Order("count DESC").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "top assisters", err)
	}
	return out, nil
}

// TopAppearances ranks members by played participations in completed matches.
func (s *Service) TopAppearances(ctx context.Context, clubID, userID uint, limit int) ([]LeaderboardEntry, error) {
	if err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	var out []LeaderboardEntry
	err := s.db.WithContext(ctx).
		Table("participations").
		Select(memberCols+", COUNT(participations.id) AS count").
		Joins("JOIN matches ON matches.id = participations.match_id AND matches.status = ?", matches.StatusCompleted).
		Joins("JOIN members ON members.id = participations.member_id").
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.club_id = ? AND participations.played = ?", clubID, true).
		Group("members.id, users.first_name, users.last_name, users.nickname, members.jersey_number").
		Order("count DESC").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "top appearances", err)
	}
	return out, nil
}

// TopRated ranks members by mean rating across completed matches.
func (s *Service) TopRated(ctx context.Context, clubID, userID uint, limit int) ([]LeaderboardEntry, error) {
	if err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	var out []LeaderboardEntry
	err := s.db.WithContext(ctx).
		Table("player_ratings").
		Select(memberCols+", COUNT(player_ratings.id) AS count, AVG(player_ratings.value) AS mean").
		Joins("JOIN matches ON matches.id = player_ratings.match_id AND matches.status = ?", matches.StatusCompleted).
		Joins("JOIN members ON members.id = player_ratings.member_id").
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.club_id = ?", clubID).
		Group("members.id, users.first_name, users.last_name, users.nickname, members.jersey_number").
		Order("mean DESC").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "top rated", err)
	}
	for i := range out {
		out[i].MeanDisplay = ratings.RoundToStep(out[i].Mean)
	}
	return out, nil
}

// MemberSummary aggregates one member's completed-match record.
func (s *Service) MemberSummary(ctx context.Context, clubID, memberID, userID uint) (MemberSummary, error) {
	if err := s.requireMember(ctx, clubID, userID); err != nil {
		return MemberSummary{}, err
	}
	if _, err := s.clubs.GetMember(ctx, clubID, memberID); err != nil {
		return MemberSummary{}, err
	}

	sum := MemberSummary{MemberID: memberID}
	completed := s.db.WithContext(ctx).
		Model(&matches.Match{}).
		Select("id").
		Where("club_id = ? AND status = ?", clubID, matches.StatusCompleted)

	if err := s.db.WithContext(ctx).Model(&matches.Participation{}).
		Where("member_id = ? AND played = ? AND match_id IN (?)", memberID, true, completed).
		Count(&sum.Appearances).Error; err != nil {
		return MemberSummary{}, apperr.Wrap(apperr.Internal, "appearances", err)
	}
	if err := s.db.WithContext(ctx).Model(&matches.Goal{}).
		Where("scorer_id = ? AND own_goal = ? AND match_id IN (?)", memberID, false, completed).
		Count(&sum.Goals).Error; err != nil {
		return MemberSummary{}, apperr.Wrap(apperr.Internal, "goals", err)
	}
	if err := s.db.WithContext(ctx).Model(&matches.Goal{}).
		Where("assister_id = ? AND match_id IN (?)", memberID, completed).
		Count(&sum.Assists).Error; err != nil {
		return MemberSummary{}, apperr.Wrap(apperr.Internal, "assists", err)
	}
	if err := s.db.WithContext(ctx).Model(&matches.Goal{}).
		Where("scorer_id = ? AND own_goal = ? AND match_id IN (?)", memberID, true, completed).
		Count(&sum.OwnGoals).Error; err != nil {
		return MemberSummary{}, apperr.Wrap(apperr.Internal, "own goals", err)
	}

	var values []float64
	if err := s.db.WithContext(ctx).Model(&ratings.PlayerRating{}).
		Where("member_id = ? AND match_id IN (?)", memberID, completed).
		Pluck("value", &values).Error; err != nil {
		return MemberSummary{}, apperr.Wrap(apperr.Internal, "ratings", err)
	}
	sum.RatingCount = int64(len(values))
	if mean, ok := ratings.Average(values); ok {
		sum.RatingMean = &mean
		sum.RatingStep = ratings.RoundToStep(mean)
	}
	return sum, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultLimit
	}
	return limit
}
