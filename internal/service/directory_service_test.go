package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Employees(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()

	e, err := h.directory.AddEmployee(ctx, " E100 ", "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "E100", e.ID)
	assert.True(t, e.Active)

	_, err = h.directory.AddEmployee(ctx, "", "No Id")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = h.directory.AddEmployee(ctx, "E100", "Duplicate")
	assert.ErrorIs(t, err, domain.ErrPersistence)

	require.NoError(t, h.directory.DeactivateEmployee(ctx, "E100"))
	assert.ErrorIs(t, h.directory.DeactivateEmployee(ctx, "ghost"), domain.ErrValidation)

	active, err := h.directory.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := h.directory.ListEmployees(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDirectory_PatternsAndAssignments(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	emp := h.employee(t, "Ada")

	p, err := h.directory.AddPattern(ctx, PatternInput{Name: "night", Start: "22:00", End: "06:00", GracePeriodMinutes: 10})
	require.NoError(t, err)
	assert.True(t, p.Overnight())

	_, err = h.directory.AddPattern(ctx, PatternInput{Name: "bad", Start: "25:00", End: "06:00"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = h.directory.AddPattern(ctx, PatternInput{Name: "", Start: "09:00", End: "17:00"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, h.directory.AssignPattern(ctx, emp, "night", []time.Weekday{time.Monday, time.Friday}))
	assert.ErrorIs(t, h.directory.AssignPattern(ctx, emp, "missing", []time.Weekday{time.Monday}), domain.ErrValidation)
	assert.ErrorIs(t, h.directory.AssignPattern(ctx, "ghost", "night", []time.Weekday{time.Monday}), domain.ErrValidation)
	assert.ErrorIs(t, h.directory.AssignPattern(ctx, emp, "night", nil), domain.ErrValidation)

	assignments, err := h.directory.ListAssignments(ctx, emp)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, time.Monday, assignments[0].Weekday)

	require.NoError(t, h.directory.UnassignPattern(ctx, emp, []time.Weekday{time.Friday}))
	assignments, err = h.directory.ListAssignments(ctx, emp)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)

	patterns, err := h.directory.ListPatterns(ctx)
	require.NoError(t, err)
	assert.Len(t, patterns, 1)
}
