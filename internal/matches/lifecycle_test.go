package matches

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
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := dbpkg.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, dbpkg.AutoMigrate(gdb,
		&auth.User{}, &auth.Session{},
		&clubs.Club{}, &clubs.Member{}, &clubs.Invite{},
		&Match{}, &Goal{}, &Participation{}, &RSVP{},
	))
	return gdb
}

type fixture struct {
	db    *gorm.DB
	svc   *Service
	club  clubs.Club
	admin auth.User
	plain auth.User
	// memberships, in the same order as the users above
	adminM clubs.Member
	plainM clubs.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := newTestDB(t)
	clubsRepo := clubs.NewRepository(gdb)
	repo := NewRepository(gdb)
	svc := NewService(gdb, repo, clubsRepo, zerolog.Nop())

	admin := auth.User{Email: "admin@example.com", PasswordHash: "x", FirstName: "Ada", LastName: "Admin"}
	require.NoError(t, gdb.Create(&admin).Error)
	plain := auth.User{Email: "plain@example.com", PasswordHash: "x", FirstName: "Paolo", LastName: "Plain"}
	require.NoError(t, gdb.Create(&plain).Error)

	club, err := clubsRepo.CreateClub(context.Background(), clubs.Club{Name: "Calcetto FC"}, admin.ID)
	require.NoError(t, err)

	adminM, err := clubsRepo.MembershipOf(context.Background(), club.ID, admin.ID)
	require.NoError(t, err)

	plainM := clubs.Member{ClubID: club.ID, UserID: plain.ID, Privilege: clubs.PrivilegeMember, PrimaryRole: clubs.RoleForward, JerseyNumber: 9}
	require.NoError(t, gdb.Create(&plainM).Error)

	return &fixture{db: gdb, svc: svc, club: club, admin: admin, plain: plain, adminM: adminM, plainM: plainM}
}

func (f *fixture) scheduledMatch(t *testing.T) Match {
	t.Helper()
	m, err := f.svc.CreateMatch(context.Background(), f.club.ID, f.admin.ID, CreateInput{
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Location:    "Campo Comunale",
		Mode:        ModeFive,
	})
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, m.Status)
	return m
}

func TestCreateMatch_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateMatch(ctx, f.club.ID, f.admin.ID, CreateInput{Mode: ModeFive})
	assert.True(t, apperr.Is(err, apperr.Invalid), "missing time: %v", err)

	_, err = f.svc.CreateMatch(ctx, f.club.ID, f.admin.ID, CreateInput{ScheduledAt: time.Now(), Mode: "3vs3"})
	assert.True(t, apperr.Is(err, apperr.Invalid), "bad mode: %v", err)

	_, err = f.svc.CreateMatch(ctx, f.club.ID, f.plain.ID, CreateInput{ScheduledAt: time.Now(), Mode: ModeFive})
	assert.True(t, apperr.Is(err, apperr.Forbidden), "non-admin: %v", err)
}

func TestStart_SeedsParticipations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	started, err := f.svc.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)
	assert.Nil(t, started.HomeScore)

	parts, err := f.svc.Repo().ListParticipations(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	for _, p := range parts {
		assert.False(t, p.Played)
	}
}

func TestStart_DoubleStartConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	_, err := f.svc.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "second start: %v", err)

	got, err := f.svc.Repo().Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status, "status unchanged by losing transition")
}

func TestStart_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	m := f.scheduledMatch(t)

	_, err := f.svc.Start(context.Background(), m.ID, f.plain.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden), "got %v", err)
}

func TestEnd_MarksEveryonePlayed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	_, err := f.svc.End(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "end before start: %v", err)

	_, err = f.svc.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	ended, err := f.svc.End(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, ended.Status)

	parts, err := f.svc.Repo().ListParticipations(ctx, m.ID)
	require.NoError(t, err)
	for _, p := range parts {
		assert.True(t, p.Played)
	}
}

func TestComplete_OnlyFromFinished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	_, err := f.svc.Complete(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "complete from scheduled: %v", err)

	_, err = f.svc.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "complete from in progress: %v", err)

	_, err = f.svc.End(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	// COMPLETED is terminal
	_, err = f.svc.Start(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	_, err = f.svc.Cancel(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestCancelAndUncancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	cancelled, err := f.svc.Cancel(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = f.svc.Start(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "start a cancelled match: %v", err)

	back, err := f.svc.Uncancel(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, back.Status)

	_, err = f.svc.Uncancel(ctx, m.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "uncancel a scheduled match: %v", err)
}

func TestInputFinalResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	_, err := f.svc.InputFinalResults(ctx, m.ID, f.admin.ID, 100, 0)
	assert.True(t, apperr.Is(err, apperr.Invalid), "score out of range: %v", err)

	done, err := f.svc.InputFinalResults(ctx, m.ID, f.admin.ID, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.HomeScore)
	require.NotNil(t, done.AwayScore)
	assert.Equal(t, 3, *done.HomeScore)
	assert.Equal(t, 2, *done.AwayScore)

	parts, err := f.svc.Repo().ListParticipations(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	for _, p := range parts {
		assert.True(t, p.Played, "post-hoc matches count as played")
	}

	_, err = f.svc.InputFinalResults(ctx, m.ID, f.admin.ID, 1, 1)
	assert.True(t, apperr.Is(err, apperr.Conflict), "already completed: %v", err)
}

func TestUpdateMatch_OnlyWhileScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.scheduledMatch(t)

	loc := "Centro Sportivo"
	updated, err := f.svc.Repo().Update(ctx, m.ID, MatchUpdate{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, loc, updated.Location)

	_, err = f.svc.Start(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.Repo().Update(ctx, m.ID, MatchUpdate{Location: &loc})
	assert.True(t, apperr.Is(err, apperr.Conflict), "update after start: %v", err)
}

func TestListMatches_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := Match{ClubID: f.club.ID, ScheduledAt: time.Now().Add(-48 * time.Hour), Mode: ModeFive, Status: StatusCompleted, CreatedBy: f.admin.ID}
	require.NoError(t, f.db.Create(&past).Error)
	upcoming := f.scheduledMatch(t)

	up, err := f.svc.ListMatches(ctx, f.club.ID, f.plain.ID, ListUpcoming)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, upcoming.ID, up[0].ID)

	old, err := f.svc.ListMatches(ctx, f.club.ID, f.plain.ID, ListPast)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, past.ID, old[0].ID)

	_, err = f.svc.ListMatches(ctx, f.club.ID, f.plain.ID, ListFilter("bogus"))
	assert.True(t, apperr.Is(err, apperr.Invalid))
}
