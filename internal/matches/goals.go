package matches

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
)

type AddGoalInput struct {
	ScorerID   uint  `json:"scorer_id"`
	AssisterID *uint `json:"assister_id"`
	OwnGoal    bool  `json:"own_goal"`
	Side       Side  `json:"side"`
}

// recomputeScore derives the stored score from the goal log: a side's score
// is its non-own goals plus the own goals recorded for the opponent.
func recomputeScore(tx *gorm.DB, matchID uint) error {
	count := func(side Side, own bool) (int64, error) {
		var n int64
		err := tx.Model(&Goal{}).
			Where("match_id = ? AND side = ? AND own_goal = ?", matchID, side, own).
			Count(&n).Error
		return n, err
	}
	homeFor, err := count(SideHome, false)
	if err != nil {
		return err
	}
	awayOwn, err := count(SideAway, true)
	if err != nil {
		return err
	}
	awayFor, err := count(SideAway, false)
	if err != nil {
		return err
	}
	homeOwn, err := count(SideHome, true)
	if err != nil {
		return err
	}
	return tx.Model(&Match{}).Where("id = ?", matchID).Updates(map[string]any{
		"home_score": homeFor + awayOwn,
		"away_score": awayFor + homeOwn,
	}).Error
}

// AddGoal records a goal. Only allowed while the match is IN_PROGRESS or
// FINISHED, and only for members of the match's club.
func (s *Service) AddGoal(ctx context.Context, matchID, userID uint, in AddGoalInput) (Goal, error) {
	m, err := s.adminMatch(ctx, matchID, userID)
	if err != nil {
		return Goal{}, err
	}
	if !m.Status.GoalsEditable() {
		return Goal{}, apperr.E(apperr.Conflict, "goals can only be edited while the match is in progress or finished")
	}
	if !in.Side.Valid() {
		return Goal{}, apperr.E(apperr.Invalid, "invalid side")
	}
	if err := s.requireClubMember(ctx, m.ClubID, in.ScorerID); err != nil {
		return Goal{}, err
	}
	if in.AssisterID != nil {
		if *in.AssisterID == in.ScorerID {
			return Goal{}, apperr.E(apperr.Invalid, "scorer cannot assist their own goal")
		}
		if err := s.requireClubMember(ctx, m.ClubID, *in.AssisterID); err != nil {
			return Goal{}, err
		}
	}

	var g Goal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// max+1, not count+1: deleting a mid-log goal must not reuse an order
		var maxOrder int64
		if err := tx.Model(&Goal{}).Where("match_id = ?", matchID).
			Select("COALESCE(MAX(goal_order), 0)").Scan(&maxOrder).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "max goal order", err)
		}
		g = Goal{
			MatchID:    matchID,
			ScorerID:   in.ScorerID,
			AssisterID: in.AssisterID,
			OwnGoal:    in.OwnGoal,
			Side:       in.Side,
			Order:      int(maxOrder) + 1,
		}
		if err := tx.Create(&g).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "create goal", err)
		}
		if err := recomputeScore(tx, matchID); err != nil {
			return apperr.Wrap(apperr.Internal, "recompute score", err)
		}
		return nil
	})
	if err != nil {
		return Goal{}, err
	}
	s.log.Info().Uint("match_id", matchID).Uint("goal_id", g.ID).Msg("goal added")
	return g, nil
}

// RemoveGoal deletes a goal under the same state window as AddGoal.
func (s *Service) RemoveGoal(ctx context.Context, matchID, goalID, userID uint) error {
	m, err := s.adminMatch(ctx, matchID, userID)
	if err != nil {
		return err
	}
	if !m.Status.GoalsEditable() {
		return apperr.E(apperr.Conflict, "goals can only be edited while the match is in progress or finished")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND match_id = ?", goalID, matchID).Delete(&Goal{})
		if res.Error != nil {
			return apperr.Wrap(apperr.Internal, "delete goal", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.E(apperr.NotFound, "goal not found")
		}
		if err := recomputeScore(tx, matchID); err != nil {
			return apperr.Wrap(apperr.Internal, "recompute score", err)
		}
		return nil
	})
}

// Goals lists the goal log. Results are not visible before kickoff or for
// cancelled matches.
func (s *Service) Goals(ctx context.Context, matchID, userID uint) ([]Goal, error) {
	m, err := s.memberMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Status.ResultsVisible() {
		return nil, apperr.E(apperr.Conflict, "results are not available for this match")
	}
	return s.repo.ListGoals(ctx, matchID)
}

func (s *Service) requireClubMember(ctx context.Context, clubID, memberID uint) error {
	var m clubs.Member
	err := s.db.WithContext(ctx).Where("id = ? AND club_id = ?", memberID, clubID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.E(apperr.Invalid, "player must be a member of the club")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "member check", err)
	}
	return nil
}
