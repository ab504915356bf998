package matches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

func (f *fixture) inProgressMatch(t *testing.T) Match {
	t.Helper()
	m := f.scheduledMatch(t)
	started, err := f.svc.Start(context.Background(), m.ID, f.admin.ID)
	require.NoError(t, err)
	return started
}

func TestAddGoal_RecomputesScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.inProgressMatch(t)

	_, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	require.NoError(t, err)
	_, err = f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.adminM.ID, AssisterID: &f.plainM.ID, Side: SideHome})
	require.NoError(t, err)
	// own goal by home credits the away side
	_, err = f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome, OwnGoal: true})
	require.NoError(t, err)

	got, err := f.svc.Repo().Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HomeScore)
	require.NotNil(t, got.AwayScore)
	assert.Equal(t, 2, *got.HomeScore)
	assert.Equal(t, 1, *got.AwayScore)

	goals, err := f.svc.Goals(ctx, m.ID, f.plain.ID)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, 1, goals[0].Order)
	assert.Equal(t, 3, goals[2].Order)
}

func TestAddGoal_StateWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scheduled := f.scheduledMatch(t)
	_, err := f.svc.AddGoal(ctx, scheduled.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	assert.True(t, apperr.Is(err, apperr.Conflict), "goal before kickoff: %v", err)

	m := f.inProgressMatch(t)
	g, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	require.NoError(t, err)

	// still editable once FINISHED
	_, err = f.svc.End(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.adminM.ID, Side: SideAway})
	require.NoError(t, err)

	// locked once COMPLETED, regardless of privilege
	_, err = f.svc.Complete(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	assert.True(t, apperr.Is(err, apperr.Conflict), "goal after completion: %v", err)
	err = f.svc.RemoveGoal(ctx, m.ID, g.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "removal after completion: %v", err)
}

func TestRemoveGoal_RecomputesScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.inProgressMatch(t)

	g, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveGoal(ctx, m.ID, g.ID, f.admin.ID))

	got, err := f.svc.Repo().Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HomeScore)
	assert.Equal(t, 0, *got.HomeScore)

	err = f.svc.RemoveGoal(ctx, m.ID, g.ID, f.admin.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "double delete: %v", err)
}

func TestAddGoal_OrderNeverReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.inProgressMatch(t)

	first, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	require.NoError(t, err)
	second, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.adminM.ID, Side: SideHome})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)

	// removing a mid-log goal must not hand its order to the next goal
	require.NoError(t, f.svc.RemoveGoal(ctx, m.ID, first.ID, f.admin.ID))
	third, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideAway})
	require.NoError(t, err)
	assert.Equal(t, 3, third.Order)

	goals, err := f.svc.Goals(ctx, m.ID, f.plain.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, []int{2, 3}, []int{goals[0].Order, goals[1].Order})
}

func TestAddGoal_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.inProgressMatch(t)

	_, err := f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: "MIDDLE"})
	assert.True(t, apperr.Is(err, apperr.Invalid), "bad side: %v", err)

	_, err = f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: 9999, Side: SideHome})
	assert.True(t, apperr.Is(err, apperr.Invalid), "unknown scorer: %v", err)

	_, err = f.svc.AddGoal(ctx, m.ID, f.admin.ID, AddGoalInput{ScorerID: f.plainM.ID, AssisterID: &f.plainM.ID, Side: SideHome})
	assert.True(t, apperr.Is(err, apperr.Invalid), "self assist: %v", err)

	_, err = f.svc.AddGoal(ctx, m.ID, f.plain.ID, AddGoalInput{ScorerID: f.plainM.ID, Side: SideHome})
	assert.True(t, apperr.Is(err, apperr.Forbidden), "non-admin: %v", err)
}

func TestGoals_VisibilityWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scheduled := f.scheduledMatch(t)
	_, err := f.svc.Goals(ctx, scheduled.ID, f.plain.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "results before kickoff: %v", err)

	_, err = f.svc.Cancel(ctx, scheduled.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.Goals(ctx, scheduled.ID, f.plain.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict), "results for cancelled: %v", err)
}

func TestSetPlayed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.inProgressMatch(t)

	p, err := f.svc.SetPlayed(ctx, m.ID, f.plainM.ID, f.admin.ID, true)
	require.NoError(t, err)
	assert.True(t, p.Played)

	_, err = f.svc.SetPlayed(ctx, m.ID, 9999, f.admin.ID, true)
	assert.True(t, apperr.Is(err, apperr.NotFound), "unknown member: %v", err)

	require.NoError(t, f.svc.BulkSetPlayed(ctx, m.ID, f.admin.ID, map[uint]bool{
		f.plainM.ID: false,
		f.adminM.ID: true,
	}))
	parts, err := f.svc.Participations(ctx, m.ID, f.plain.ID)
	require.NoError(t, err)
	byMember := map[uint]bool{}
	for _, p := range parts {
		byMember[p.MemberID] = p.Played
	}
	assert.False(t, byMember[f.plainM.ID])
	assert.True(t, byMember[f.adminM.ID])

	// locked once COMPLETED
	_, err = f.svc.End(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, m.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.SetPlayed(ctx, m.ID, f.plainM.ID, f.admin.ID, true)
	assert.True(t, apperr.Is(err, apperr.Conflict), "toggle after completion: %v", err)
}
