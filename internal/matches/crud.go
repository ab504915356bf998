package matches

import (
	"context"
	"time"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

// CreateInput is the payload for scheduling a match.
type CreateInput struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location"`
	Mode        Mode      `json:"mode"`
	Notes       string    `json:"notes"`
}

// CreateMatch schedules a new match for a club. Matches always start life
// in SCHEDULED.
func (s *Service) CreateMatch(ctx context.Context, clubID, userID uint, req CreateInput) (Match, error) {
	if err := s.clubs.RequireAdmin(ctx, clubID, userID); err != nil {
		return Match{}, err
	}
	if req.ScheduledAt.IsZero() {
		return Match{}, apperr.E(apperr.Invalid, "scheduled time is required")
	}
	if !req.Mode.Valid() {
		return Match{}, apperr.E(apperr.Invalid, "invalid match mode")
	}
	if len(req.Notes) > 1000 {
		return Match{}, apperr.E(apperr.Invalid, "notes too long (max 1000)")
	}
	m := Match{
		ClubID:      clubID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Location:    req.Location,
		Mode:        req.Mode,
		Notes:       req.Notes,
		CreatedBy:   userID,
	}
	created, err := s.repo.Create(ctx, m)
	if err != nil {
		return Match{}, err
	}
	s.log.Info().Uint("match_id", created.ID).Uint("club_id", clubID).Msg("match created")
	return created, nil
}

// ListMatches returns the club's matches, optionally split into upcoming
// and past slices via the filter.
func (s *Service) ListMatches(ctx context.Context, clubID, userID uint, filter ListFilter) ([]Match, error) {
	if _, err := s.clubs.MembershipOf(ctx, clubID, userID); err != nil {
		return nil, err
	}
	switch filter {
	case ListAll, ListUpcoming, ListPast:
	default:
		return nil, apperr.E(apperr.Invalid, "invalid filter")
	}
	return s.repo.ListByClub(ctx, clubID, filter)
}
