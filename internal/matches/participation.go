package matches

import (
	"context"

	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

// Participations lists the participation roster for a match.
func (s *Service) Participations(ctx context.Context, matchID, userID uint) ([]Participation, error) {
	if _, err := s.memberMatch(ctx, matchID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipations(ctx, matchID)
}

// SetPlayed toggles a member's played flag. The roster is only editable
// while the match is IN_PROGRESS or FINISHED; COMPLETED locks it.
func (s *Service) SetPlayed(ctx context.Context, matchID, memberID, userID uint, played bool) (Participation, error) {
	m, err := s.adminMatch(ctx, matchID, userID)
	if err != nil {
		return Participation{}, err
	}
	if !m.Status.GoalsEditable() {
		return Participation{}, apperr.E(apperr.Conflict, "participation can only be edited while the match is in progress or finished")
	}
	p, err := s.repo.GetParticipation(ctx, matchID, memberID)
	if err != nil {
		return Participation{}, err
	}
	if err := s.db.WithContext(ctx).Model(&Participation{}).Where("id = ?", p.ID).Update("played", played).Error; err != nil {
		return Participation{}, apperr.Wrap(apperr.Internal, "update participation", err)
	}
	p.Played = played
	return p, nil
}

// BulkSetPlayed applies a played flag per member in one transaction.
func (s *Service) BulkSetPlayed(ctx context.Context, matchID, userID uint, played map[uint]bool) error {
	m, err := s.adminMatch(ctx, matchID, userID)
	if err != nil {
		return err
	}
	if !m.Status.GoalsEditable() {
		return apperr.E(apperr.Conflict, "participation can only be edited while the match is in progress or finished")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for memberID, v := range played {
			res := tx.Model(&Participation{}).
				Where("match_id = ? AND member_id = ?", matchID, memberID).
				Update("played", v)
			if res.Error != nil {
				return apperr.Wrap(apperr.Internal, "update participation", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.E(apperr.NotFound, "member is not part of this match")
			}
		}
		return nil
	})
}
