package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juhe-dining/roster/backend/internal/roster"
)

func TestParseClock(t *testing.T) {
	minutes, err := roster.ParseClock("09:30:00")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, minutes)

	_, err = roster.ParseClock("25:00:00")
	assert.Error(t, err)

	_, err = roster.ParseClock("0930")
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name    string
		aStart  string
		aEnd    string
		bStart  string
		bEnd    string
		overlap bool
	}{
		{"相同时间段", "09:00:00", "17:00:00", "09:00:00", "17:00:00", true},
		{"部分重叠", "09:00:00", "17:00:00", "16:00:00", "20:00:00", true},
		{"包含关系", "09:00:00", "17:00:00", "10:00:00", "12:00:00", true},
		{"首尾相接不算重叠", "09:00:00", "12:00:00", "12:00:00", "15:00:00", false},
		{"完全分离", "09:00:00", "12:00:00", "13:00:00", "15:00:00", false},
		{"跨夜与次日凌晨重叠", "22:00:00", "06:00:00", "05:00:00", "09:00:00", true},
		{"跨夜与当天晚上重叠", "22:00:00", "06:00:00", "21:00:00", "23:00:00", true},
		{"跨夜与白天不重叠", "22:00:00", "06:00:00", "09:00:00", "17:00:00", false},
		{"两个跨夜段", "22:00:00", "06:00:00", "23:00:00", "05:00:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := roster.Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			require.NoError(t, err)
			assert.Equal(t, tt.overlap, got)

			// 重叠关系是对称的
			reversed, err := roster.Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd)
			require.NoError(t, err)
			assert.Equal(t, tt.overlap, reversed)
		})
	}
}

func TestOverlapsInvalidClock(t *testing.T) {
	_, err := roster.Overlaps("9:00", "17:00:00", "10:00:00", "12:00:00")
	assert.Error(t, err)
}

func TestWeekday(t *testing.T) {
	// 2025-03-03 是周一
	weekday, err := roster.Weekday("2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, int32(1), weekday)

	weekday, err = roster.Weekday("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, int32(7), weekday)

	_, err = roster.Weekday("2025/03/03")
	assert.Error(t, err)
}

func TestWeekStart(t *testing.T) {
	for _, date := range []string{"2025-03-03", "2025-03-05", "2025-03-09"} {
		start, err := roster.WeekStart(date)
		require.NoError(t, err)
		assert.Equal(t, "2025-03-03", start, "日期 %s 所在周的周一", date)
	}
}

func TestDatesBetween(t *testing.T) {
	dates, err := roster.DatesBetween("2025-03-03", "2025-03-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03", "2025-03-04", "2025-03-05"}, dates)

	dates, err = roster.DatesBetween("2025-03-03", "2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03"}, dates)

	_, err = roster.DatesBetween("2025-03-05", "2025-03-03")
	assert.Error(t, err)
}

func TestAddDaysAndDaysBetween(t *testing.T) {
	date, err := roster.AddDays("2025-03-03", 7)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", date)

	date, err = roster.AddDays("2025-03-03", -3)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", date)

	diff, err := roster.DaysBetween("2025-03-03", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 7, diff)

	diff, err = roster.DaysBetween("2025-03-10", "2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, -7, diff)
}
