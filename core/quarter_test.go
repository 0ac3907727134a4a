package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quota-engine/core"
)

func TestParseQuarter(t *testing.T) {
	valid := []string{"2025Q1", "2025Q4", "1999Q2"}
	for _, s := range valid {
		q, err := core.ParseQuarter(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, q.String())
	}

	invalid := []string{"", "2025Q5", "2025Q0", "2025-Q1", "25Q1", "2025q1", "2025Q12"}
	for _, s := range invalid {
		_, err := core.ParseQuarter(s)
		assert.ErrorIs(t, err, core.ErrInvalidQuarter, s)
	}
}

func TestQuarterNext_RollsYearBoundary(t *testing.T) {
	assert.Equal(t, core.QuarterID("2025Q2"), core.QuarterID("2025Q1").Next())
	assert.Equal(t, core.QuarterID("2026Q1"), core.QuarterID("2025Q4").Next())
}

func TestQuarterOrdering(t *testing.T) {
	qs := []core.QuarterID{"2026Q1", "2025Q2", "2025Q4", "2024Q3"}
	core.SortQuarters(qs)
	assert.Equal(t, []core.QuarterID{"2024Q3", "2025Q2", "2025Q4", "2026Q1"}, qs)
}

func TestQuarterRange(t *testing.T) {
	r := core.QuarterID("2025Q1").Range()
	assert.Equal(t, "2025-01-01", r.Start.String())
	assert.Equal(t, "2025-03-31", r.End.String())

	// Q4 ends on Dec 31; Q2 handles the 30-day June correctly.
	assert.Equal(t, "2025-12-31", core.QuarterID("2025Q4").Range().End.String())
	assert.Equal(t, "2025-06-30", core.QuarterID("2025Q2").Range().End.String())

	// Closed interval at both ends.
	assert.True(t, r.Contains(core.NewDate(2025, time.January, 1)))
	assert.True(t, r.Contains(core.NewDate(2025, time.March, 31)))
	assert.False(t, r.Contains(core.NewDate(2025, time.April, 1)))
	assert.False(t, r.Contains(core.NewDate(2024, time.December, 31)))
}

func TestQuarterOf(t *testing.T) {
	assert.Equal(t, core.QuarterID("2025Q1"), core.QuarterOf(core.NewDate(2025, time.February, 14)))
	assert.Equal(t, core.QuarterID("2025Q4"), core.QuarterOf(core.NewDate(2025, time.October, 1)))
}
