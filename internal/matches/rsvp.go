package matches

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

// RSVPCounts tallies responses per status for a match.
type RSVPCounts struct {
	In    int `json:"in"`
	Out   int `json:"out"`
	Maybe int `json:"maybe"`
	Total int `json:"total"`
}

// MatchRSVPs is the response sheet for one match.
type MatchRSVPs struct {
	Responses []RSVP     `json:"responses"`
	Counts    RSVPCounts `json:"counts"`
}

// SetRSVP records the caller's own response. Members only respond to
// matches that are still SCHEDULED; once kickoff happens the roster is
// tracked through Participation instead.
func (s *Service) SetRSVP(ctx context.Context, matchID, userID uint, status RSVPStatus) (RSVP, error) {
	if !status.Valid() {
		return RSVP{}, apperr.E(apperr.Invalid, "invalid rsvp status")
	}
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return RSVP{}, err
	}
	member, err := s.clubs.MembershipOf(ctx, m.ClubID, userID)
	if err != nil {
		return RSVP{}, err
	}
	if m.Status != StatusScheduled {
		return RSVP{}, apperr.E(apperr.Conflict, "rsvp is only open while the match is scheduled")
	}

	now := time.Now().UTC()
	var r RSVP
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ferr := tx.Where("match_id = ? AND member_id = ?", matchID, member.ID).First(&r).Error
		switch {
		case ferr == nil:
			return tx.Model(&r).Updates(map[string]any{"status": status, "responded_at": now}).Error
		case errors.Is(ferr, gorm.ErrRecordNotFound):
			r = RSVP{MatchID: matchID, MemberID: member.ID, Status: status, RespondedAt: now}
			return tx.Create(&r).Error
		default:
			return ferr
		}
	})
	if err != nil {
		return RSVP{}, apperr.Wrap(apperr.Internal, "set rsvp", err)
	}
	r.Status = status
	r.RespondedAt = now
	s.log.Info().Uint("match_id", matchID).Uint("member_id", member.ID).Str("status", string(status)).Msg("rsvp recorded")
	return r, nil
}

// RSVPs lists the responses for a match with per-status counts, ordered
// in, maybe, out, earliest response first within a status.
func (s *Service) RSVPs(ctx context.Context, matchID, userID uint) (MatchRSVPs, error) {
	if _, err := s.memberMatch(ctx, matchID, userID); err != nil {
		return MatchRSVPs{}, err
	}
	var rows []RSVP
	err := s.db.WithContext(ctx).
		Preload("Member.User").
		Where("match_id = ?", matchID).
		Find(&rows).Error
	if err != nil {
		return MatchRSVPs{}, apperr.Wrap(apperr.Internal, "list rsvps", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Status.priority() != rows[j].Status.priority() {
			return rows[i].Status.priority() < rows[j].Status.priority()
		}
		return rows[i].RespondedAt.Before(rows[j].RespondedAt)
	})
	out := MatchRSVPs{Responses: rows}
	for _, r := range rows {
		switch r.Status {
		case RSVPIn:
			out.Counts.In++
		case RSVPOut:
			out.Counts.Out++
		case RSVPMaybe:
			out.Counts.Maybe++
		}
		out.Counts.Total++
	}
	return out, nil
}

// MyRSVP returns the caller's own response, or ok=false if they have not
// responded yet.
func (s *Service) MyRSVP(ctx context.Context, matchID, userID uint) (RSVP, bool, error) {
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return RSVP{}, false, err
	}
	member, err := s.clubs.MembershipOf(ctx, m.ClubID, userID)
	if err != nil {
		return RSVP{}, false, err
	}
	var r RSVP
	ferr := s.db.WithContext(ctx).
		Where("match_id = ? AND member_id = ?", matchID, member.ID).
		First(&r).Error
	if errors.Is(ferr, gorm.ErrRecordNotFound) {
		return RSVP{}, false, nil
	}
	if ferr != nil {
		return RSVP{}, false, apperr.Wrap(apperr.Internal, "get rsvp", ferr)
	}
	return r, true, nil
}
