package coach

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
	trackerRepo "liftly.app/liftly/internal/modules/tracker/repository"
	"liftly.app/liftly/internal/testutil"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newBuilder(t *testing.T) (*gorm.DB, *ContextBuilder) {
	t.Helper()
	db := testutil.OpenDB(t)
	builder := NewContextBuilderWithClock(trackerRepo.NewTrackerRepository(db), func() time.Time { return testNow })
	return db, builder
}

func addWorkout(t *testing.T, db *gorm.DB, user *model.User, at time.Time) {
	t.Helper()
	p := &model.Post{AuthorID: user.ID, Body: "training log", Kind: model.KindWorkout, Audience: model.AudienceEveryone}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Model(p).Update("created_at", at).Error)
}

func TestBuildWithNoDataFallsBackToNotTracked(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, "not tracked", mc.Goal)
	assert.Equal(t, "not tracked", mc.Weight)
	assert.Empty(t, mc.Records)
	assert.Equal(t, "not tracked", mc.Streak)
	assert.Equal(t, "no posts yet", mc.LastActive)
	assert.Empty(t, mc.RecentPosts)
}

func TestBuildWeightDelta(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	for i, w := range []float64{84.0, 83.2, 82.5} {
		require.NoError(t, db.Create(&model.WeightEntry{
			UserID:     alice.ID,
			WeightKG:   w,
			RecordedAt: testNow.Add(time.Duration(-i*7*24) * time.Hour),
		}).Error)
	}

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)

	// Latest 84.0, oldest of the window 82.5, so a +1.5 kg trend.
	assert.Equal(t, "84.0 kg (+1.5 kg over last 3 entries)", mc.Weight)
}

func TestBuildPersonalRecordsCapped(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	exercises := []string{"squat", "bench", "deadlift", "ohp", "row", "curl", "dip"}
	for i, ex := range exercises {
		require.NoError(t, db.Create(&model.PersonalRecord{
			UserID:     alice.ID,
			Exercise:   ex,
			WeightKG:   100 + float64(i),
			Reps:       1,
			AchievedAt: testNow.Add(time.Duration(-i*24) * time.Hour),
		}).Error)
	}

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)

	require.Len(t, mc.Records, 5)
	assert.Equal(t, "squat: 100.0 kg x 1", mc.Records[0])
}

func TestBuildStreak(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	// Workouts today, yesterday and the day before: a 3 day streak. Two
	// sessions on the same day count once.
	addWorkout(t, db, alice, testNow.Add(-2*time.Hour))
	addWorkout(t, db, alice, testNow.Add(-3*time.Hour))
	addWorkout(t, db, alice, testNow.Add(-24*time.Hour))
	addWorkout(t, db, alice, testNow.Add(-48*time.Hour))
	// A gap before this one, so it does not extend the streak.
	addWorkout(t, db, alice, testNow.Add(-5*24*time.Hour))

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "3 days", mc.Streak)
}

func TestBuildStreakBrokenByGap(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	addWorkout(t, db, alice, testNow.Add(-4*24*time.Hour))

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "no current streak (longest 1 day)", mc.Streak)
}

func TestBuildStreakReportsLongestRun(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	// A 2 day streak now, but a 4 day run earlier in the window.
	addWorkout(t, db, alice, testNow.Add(-2*time.Hour))
	addWorkout(t, db, alice, testNow.Add(-24*time.Hour))
	for d := 10; d <= 13; d++ {
		addWorkout(t, db, alice, testNow.Add(time.Duration(-d)*24*time.Hour))
	}

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "2 days (longest 4 days)", mc.Streak)
}

func TestBuildRecency(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	addWorkout(t, db, alice, testNow.Add(-72*time.Hour))

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "last posted 3 days ago", mc.LastActive)
}

func TestBuildRecencyFlagsLongSilence(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	addWorkout(t, db, alice, testNow.Add(-10*24*time.Hour))

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "last posted 10 days ago (inconsistent)", mc.LastActive)
}

func TestBuildRecentPostsNewestFirstCapped(t *testing.T) {
	db, builder := newBuilder(t)
	alice := testutil.NewUser(t, db, "alice")

	bodies := []string{"leg day", "pull day", "push day", "rest day notes"}
	for i, body := range bodies {
		p := &model.Post{AuthorID: alice.ID, Body: body, Kind: model.KindNote, Audience: model.AudienceEveryone}
		require.NoError(t, db.Create(p).Error)
		require.NoError(t, db.Model(p).Update("created_at", testNow.Add(time.Duration(-i)*time.Hour)).Error)
	}

	mc, err := builder.Build(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"leg day", "pull day", "push day"}, mc.RecentPosts)
}

func TestTrimBodyCutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("ü", maxRecentBodyLen+40)
	got := trimBody(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("ü", maxRecentBodyLen)+"...", got)
}

func TestBuildPromptNeverInventsData(t *testing.T) {
	mc := &MemberContext{
		DisplayName: "Alice",
		Handle:      "alice",
		Goal:        "not tracked",
		Weight:      "82.5 kg",
		Streak:      "not tracked",
		LastActive:  "posted today",
	}

	prompt := buildPrompt(mc, []threadLine{
		{Handle: "alice", Body: "@coach am I on track?"},
	})

	assert.Contains(t, prompt, "Alice (@alice)")
	assert.Contains(t, prompt, "Goal: not tracked")
	assert.Contains(t, prompt, "82.5 kg")
	assert.Contains(t, prompt, "Personal records: not tracked")
	assert.Contains(t, prompt, "Recent posts: not tracked")
	assert.Contains(t, prompt, "@alice: @coach am I on track?")
	assert.Contains(t, prompt, "never invent data")
}
