package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func TestAdvanceFirstCheckin(t *testing.T) {
	res, err := Advance(State{}, day("2026-03-01"), 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.False(t, res.FreezeUsed)
	assert.Equal(t, 0, res.FreezeEarned)
}

func TestAdvanceConsecutiveDays(t *testing.T) {
	st := State{}
	d := day("2026-03-01")
	for n := 1; n <= 20; n++ {
		res, err := Advance(st, d, 0, 7)
		require.NoError(t, err)
		assert.Equal(t, n, res.Streak, "day %d", n)
		assert.False(t, res.FreezeUsed)
		last := d
		st = State{CurrentStreak: res.Streak, LastDate: &last}
		d = d.AddDate(0, 0, 1)
	}
}

func TestAdvanceGapWithoutFreezeResets(t *testing.T) {
	st := State{CurrentStreak: 5, LastDate: dayPtr("2026-03-05")}
	res, err := Advance(st, day("2026-03-07"), 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.False(t, res.FreezeUsed)
}

func TestAdvanceGapWithFreezeBridges(t *testing.T) {
	st := State{CurrentStreak: 5, LastDate: dayPtr("2026-03-05")}
	res, err := Advance(st, day("2026-03-07"), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Streak)
	assert.True(t, res.FreezeUsed)
}

func TestAdvanceFreezeBridgesWholeGap(t *testing.T) {
	// One freeze covers a multi-day gap, not one freeze per missed day.
	st := State{CurrentStreak: 3, LastDate: dayPtr("2026-03-05")}
	res, err := Advance(st, day("2026-03-10"), 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Streak)
	assert.True(t, res.FreezeUsed)
}

func TestAdvanceMilestoneEarnsOneFreeze(t *testing.T) {
	st := State{CurrentStreak: 6, LastDate: dayPtr("2026-03-06")}
	res, err := Advance(st, day("2026-03-07"), 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Streak)
	assert.Equal(t, 1, res.FreezeEarned)

	// Adjacent check-ins do not earn.
	st = State{CurrentStreak: 7, LastDate: dayPtr("2026-03-07")}
	res, err = Advance(st, day("2026-03-08"), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Streak)
	assert.Equal(t, 0, res.FreezeEarned)
}

func TestAdvanceRejectsNonForwardDate(t *testing.T) {
	st := State{CurrentStreak: 2, LastDate: dayPtr("2026-03-05")}
	_, err := Advance(st, day("2026-03-05"), 0, 7)
	assert.ErrorIs(t, err, ErrNotAfterLast)

	_, err = Advance(st, day("2026-03-01"), 0, 7)
	assert.ErrorIs(t, err, ErrNotAfterLast)
}

func TestRebuildMatchesAdvance(t *testing.T) {
	// Replay a history with a frozen gap and a hard reset and make sure the
	// rebuilt state matches what the incremental engine computed.
	log := []LogEntry{
		{Date: day("2026-03-01")},
		{Date: day("2026-03-02")},
		{Date: day("2026-03-05"), FreezeUsed: true},
		{Date: day("2026-03-06")},
		{Date: day("2026-03-10")}, // no freeze, reset
		{Date: day("2026-03-11")},
	}
	res := Rebuild(log)
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Equal(t, 4, res.BestStreak)
	assert.Equal(t, 1, res.FreezesUsed)
	require.NotNil(t, res.LastDate)
	assert.Equal(t, day("2026-03-11"), *res.LastDate)
}

func TestRebuildEmptyLog(t *testing.T) {
	res := Rebuild(nil)
	assert.Equal(t, 0, res.CurrentStreak)
	assert.Nil(t, res.LastDate)
}
