package matches

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
)

// Service drives the match lifecycle state machine and the goal and
// participation edits gated by it. All mutations require club-admin
// privilege; every transition is a compare-and-swap on the current status.
type Service struct {
	db    *gorm.DB
	repo  *Repository
	clubs *clubs.Repository
	log   zerolog.Logger
}

func NewService(db *gorm.DB, repo *Repository, clubsRepo *clubs.Repository, log zerolog.Logger) *Service {
	return &Service{db: db, repo: repo, clubs: clubsRepo, log: log}
}

func (s *Service) Repo() *Repository { return s.repo }

// adminMatch loads the match and verifies the caller administers its club.
func (s *Service) adminMatch(ctx context.Context, matchID, userID uint) (Match, error) {
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if err := s.clubs.RequireAdmin(ctx, m.ClubID, userID); err != nil {
		return Match{}, err
	}
	return m, nil
}

// memberMatch loads the match and verifies the caller belongs to its club.
func (s *Service) memberMatch(ctx context.Context, matchID, userID uint) (Match, error) {
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if _, err := s.clubs.MembershipOf(ctx, m.ClubID, userID); err != nil {
		return Match{}, err
	}
	return m, nil
}

// initParticipations creates one row per club member that has none yet.
func initParticipations(tx *gorm.DB, matchID, clubID uint, played bool) error {
	var memberIDs []uint
	if err := tx.Model(&clubs.Member{}).Where("club_id = ?", clubID).Pluck("id", &memberIDs).Error; err != nil {
		return err
	}
	var existing []uint
	if err := tx.Model(&Participation{}).Where("match_id = ?", matchID).Pluck("member_id", &existing).Error; err != nil {
		return err
	}
	has := make(map[uint]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}
	for _, id := range memberIDs {
		if has[id] {
			continue
		}
		p := Participation{MatchID: matchID, MemberID: id, Played: played}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

// Start moves SCHEDULED → IN_PROGRESS and seeds participation rows with
// played=false.
func (s *Service) Start(ctx context.Context, matchID, userID uint) (Match, error) {
	m, err := s.adminMatch(ctx, matchID, userID)
	if err != nil {
		return Match{}, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := casStatus(tx, matchID, StatusScheduled, StatusInProgress, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.E(apperr.Conflict, "match must be scheduled to be started")
		}
		if err := initParticipations(tx, matchID, m.ClubID, false); err != nil {
			return apperr.Wrap(apperr.Internal, "init participations", err)
		}
		return nil
	})
	if err != nil {
		return Match{}, err
	}
	s.log.Info().Uint("match_id", matchID).Msg("match started")
	return s.repo.Get(ctx, matchID)
}

// End moves IN_PROGRESS → FINISHED and marks every participation played.
// Admins un-toggle the members who sat out while the match is FINISHED.
func (s *Service) End(ctx context.Context, matchID, userID uint) (Match, error) {
	if _, err := s.adminMatch(ctx, matchID, userID); err != nil {
		return Match{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := casStatus(tx, matchID, StatusInProgress, StatusFinished, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.E(apperr.Conflict, "match must be in progress to be ended")
		}
		if err := tx.Model(&Participation{}).Where("match_id = ?", matchID).Update("played", true).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "mark played", err)
		}
		return nil
	})
	if err != nil {
		return Match{}, err
	}
	s.log.Info().Uint("match_id", matchID).Msg("match ended")
	return s.repo.Get(ctx, matchID)
}

// Complete moves FINISHED → COMPLETED, locking goals and ratings.
func (s *Service) Complete(ctx context.Context, matchID, userID uint) (Match, error) {
	if _, err := s.adminMatch(ctx, matchID, userID); err != nil {
		return Match{}, err
	}
	ok, err := casStatus(s.db.WithContext(ctx), matchID, StatusFinished, StatusCompleted, nil)
	if err != nil {
		return Match{}, err
	}
	if !ok {
		return Match{}, apperr.E(apperr.Conflict, "match must be finished to be completed")
	}
	s.log.Info().Uint("match_id", matchID).Msg("match completed")
	return s.repo.Get(ctx, matchID)
}

// Cancel moves SCHEDULED → CANCELLED.
func (s *Service) Cancel(ctx context.Context, matchID, userID uint) (Match, error) {
	if _, err := s.adminMatch(ctx, matchID, userID); err != nil {
		return Match{}, err
	}
	ok, err := casStatus(s.db.WithContext(ctx), matchID, StatusScheduled, StatusCancelled, nil)
	if err != nil {
		return Match{}, err
	}
	if !ok {
		return Match{}, apperr.E(apperr.Conflict, "only scheduled matches can be cancelled")
	}
	s.log.Info().Uint("match_id", matchID).Msg("match cancelled")
	return s.repo.Get(ctx, matchID)
}

// Uncancel moves CANCELLED → SCHEDULED.
func (s *Service) Uncancel(ctx context.Context, matchID, userID uint) (Match, error) {
	if _, err := s.adminMatch(ctx, matchID, userID); err != nil {
		return Match{}, err
	}
	ok, err := casStatus(s.db.WithContext(ctx), matchID, StatusCancelled, StatusScheduled, nil)
	if err != nil {
		return Match{}, err
	}
	if !ok {
		return Match{}, apperr.E(apperr.Conflict, "only cancelled matches can be restored")
	}
	s.log.Info().Uint("match_id", matchID).Msg("match uncancelled")
	return s.repo.Get(ctx, matchID)
}

// InputFinalResults moves SCHEDULED → COMPLETED directly, for matches
// entered after the fact. Scores come from the caller since no goal log
// exists; participations are seeded as played so the match counts toward
// appearance stats.
func (s *Service) InputFinalResults(ctx context.Context, matchID, userID uint, homeScore, awayScore int) (Match, error) {
	m, err := s.adminMatch(ctx, matchID, userID)
	if err != nil {
		return Match{}, err
	}
	if homeScore < MinScore || homeScore > MaxScore || awayScore < MinScore || awayScore > MaxScore {
		return Match{}, apperr.Ef(apperr.Invalid, "scores must be between %d and %d", MinScore, MaxScore)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := casStatus(tx, matchID, StatusScheduled, StatusCompleted, map[string]any{
			"home_score": homeScore,
			"away_score": awayScore,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.E(apperr.Conflict, "match must be scheduled to enter final results")
		}
		if err := initParticipations(tx, matchID, m.ClubID, true); err != nil {
			return apperr.Wrap(apperr.Internal, "init participations", err)
		}
		return nil
	})
	if err != nil {
		return Match{}, err
	}
	s.log.Info().Uint("match_id", matchID).Int("home", homeScore).Int("away", awayScore).Msg("final results recorded")
	return s.repo.Get(ctx, matchID)
}
