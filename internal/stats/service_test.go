package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/auth"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
	dbpkg "github.com/lorenzoromandini/CalcettoApp-sub001/internal/db"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/matches"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/ratings"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	matches *matches.Service
	ratings *ratings.Service
	club    clubs.Club
	admin   auth.User
	plain   auth.User
	adminM  clubs.Member
	plainM  clubs.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := dbpkg.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, dbpkg.AutoMigrate(gdb,
		&auth.User{}, &auth.Session{},
		&clubs.Club{}, &clubs.Member{}, &clubs.Invite{},
		&matches.Match{}, &matches.Goal{}, &matches.Participation{}, &matches.RSVP{},
		&ratings.PlayerRating{},
	))

	clubsRepo := clubs.NewRepository(gdb)
	matchesRepo := matches.NewRepository(gdb)
	matchesSvc := matches.NewService(gdb, matchesRepo, clubsRepo, zerolog.Nop())
	ratingsSvc := ratings.NewService(gdb, matchesRepo, clubsRepo, zerolog.Nop())

	admin := auth.User{Email: "admin@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Admin"}
	require.NoError(t, gdb.Create(&admin).Error)
	plain := auth.User{Email: "plain@example.com", PasswordHash: "x", FirstName: "Paolo", LastName: "Plain", Nickname: "Bomber"}
	require.NoError(t, gdb.Create(&plain).Error)

	club, err := clubsRepo.CreateClub(context.Background(), clubs.Club{Name: "Calcetto FC"}, admin.ID)
	require.NoError(t, err)
	adminM, err := clubsRepo.MembershipOf(context.Background(), club.ID, admin.ID)
	require.NoError(t, err)
	plainM := clubs.Member{ClubID: club.ID, UserID: plain.ID, Privilege: clubs.PrivilegeMember, PrimaryRole: clubs.RoleForward, JerseyNumber: 9}
	require.NoError(t, gdb.Create(&plainM).Error)

	return &fixture{
		db: gdb, svc: NewService(gdb, clubsRepo), matches: matchesSvc, ratings: ratingsSvc,
		club: club, admin: admin, plain: plain, adminM: adminM, plainM: plainM,
	}
}

// playCompletedMatch runs a full match: plainM scores twice (one assisted by
// adminM) plus an own goal, both get rated, and the match is completed.
func (f *fixture) playCompletedMatch(t *testing.T) matches.Match {
	t.Helper()
	ctx := context.Background()
	m, err := f.matches.CreateMatch(ctx, f.club.ID, f.admin.ID, matches.CreateInput{
		ScheduledAt: time.Now().Add(-2 * time.Hour),
		Mode:        matches.ModeFive,
	})
	require.NoError(t, err)
	_, err = f.matches.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)

	_, err = f.matches.AddGoal(ctx, m.ID, f.admin.ID, matches.AddGoalInput{ScorerID: f.plainM.ID, Side: matches.SideHome})
	require.NoError(t, err)
	_, err = f.matches.AddGoal(ctx, m.ID, f.admin.ID, matches.AddGoalInput{ScorerID: f.plainM.ID, AssisterID: &f.adminM.ID, Side: matches.SideHome})
	require.NoError(t, err)
	_, err = f.matches.AddGoal(ctx, m.ID, f.admin.ID, matches.AddGoalInput{ScorerID: f.plainM.ID, OwnGoal: true, Side: matches.SideAway})
	require.NoError(t, err)

	_, err = f.matches.End(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.ratings.Upsert(ctx, m.ID, f.admin.ID, ratings.UpsertInput{MemberID: f.plainM.ID, Rating: "7"})
	require.NoError(t, err)
	_, err = f.ratings.Upsert(ctx, m.ID, f.admin.ID, ratings.UpsertInput{MemberID: f.adminM.ID, Rating: "6"})
	require.NoError(t, err)

	completed, err := f.matches.Complete(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	return completed
}

func findEntry(entries []LeaderboardEntry, memberID uint) (LeaderboardEntry, bool) {
	for _, e := range entries {
		if e.MemberID == memberID {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

func TestTopScorers_ExcludesOwnGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playCompletedMatch(t)

	top, err := f.svc.TopScorers(ctx, f.club.ID, f.plain.ID, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, f.plainM.ID, top[0].MemberID)
	assert.EqualValues(t, 2, top[0].Count)
	assert.Equal(t, "Bomber", top[0].Nickname)
}

func TestTopAssisters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playCompletedMatch(t)

	top, err := f.svc.TopAssisters(ctx, f.club.ID, f.plain.ID, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, f.adminM.ID, top[0].MemberID)
	assert.EqualValues(t, 1, top[0].Count)
}

func TestTopAppearances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playCompletedMatch(t)
	f.playCompletedMatch(t)

	top, err := f.svc.TopAppearances(ctx, f.club.ID, f.plain.ID, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	for _, e := range top {
		assert.EqualValues(t, 2, e.Count)
	}
}

func TestTopRated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playCompletedMatch(t)

	top, err := f.svc.TopRated(ctx, f.club.ID, f.plain.ID, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, f.plainM.ID, top[0].MemberID)
	assert.InDelta(t, 7.0, top[0].Mean, 1e-9)
	assert.Equal(t, "7", top[0].MeanDisplay)
	assert.Equal(t, f.adminM.ID, top[1].MemberID)
}

func TestLeaderboards_IgnoreUnfinishedMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// goals in a match that never completes must not count
	m, err := f.matches.CreateMatch(ctx, f.club.ID, f.admin.ID, matches.CreateInput{
		ScheduledAt: time.Now().Add(-2 * time.Hour),
		Mode:        matches.ModeFive,
	})
	require.NoError(t, err)
	_, err = f.matches.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.matches.AddGoal(ctx, m.ID, f.admin.ID, matches.AddGoalInput{ScorerID: f.plainM.ID, Side: matches.SideHome})
	require.NoError(t, err)

	top, err := f.svc.TopScorers(ctx, f.club.ID, f.plain.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestMemberSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playCompletedMatch(t)

	sum, err := f.svc.MemberSummary(ctx, f.club.ID, f.plainM.ID, f.plain.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Appearances)
	assert.EqualValues(t, 2, sum.Goals)
	assert.EqualValues(t, 0, sum.Assists)
	assert.EqualValues(t, 1, sum.OwnGoals)
	assert.EqualValues(t, 1, sum.RatingCount)
	require.NotNil(t, sum.RatingMean)
	assert.InDelta(t, 7.0, *sum.RatingMean, 1e-9)
	assert.Equal(t, "7", sum.RatingStep)
}

func TestStats_RequireMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outsider := auth.User{Email: "out@example.com", PasswordHash: "x", FirstName: "Out", LastName: "Sider"}
	require.NoError(t, f.db.Create(&outsider).Error)

	_, err := f.svc.TopScorers(ctx, f.club.ID, outsider.ID, 0)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "outsider: %v", err)
	_, err = f.svc.MemberSummary(ctx, f.club.ID, f.plainM.ID, outsider.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "outsider summary: %v", err)
}
