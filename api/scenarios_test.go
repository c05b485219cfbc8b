/*
scenarios_test.go - Tests for the demo roster

PURPOSE:
	Checks that SeedDemo leaves the API in a demonstrable state:
	- The roster is created once, reruns are harmless
	- Both approval queues start non-empty
	- The new hire demonstrates the seniority rejection
*/
package api_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santamargarita/leave-engine/api"
	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
	"github.com/santamargarita/leave-engine/leave/memstore"
	"github.com/santamargarita/leave-engine/lock"
)

func newSeededService(t *testing.T) (*leave.Service, api.SeedResult) {
	t.Helper()
	clock := generic.NewFixedClock(fixedNow)
	svc := leave.NewService(memstore.New(), lock.NewKeyedMutex(), clock, zerolog.Nop())
	res, err := api.SeedDemo(context.Background(), svc, generic.Today(clock))
	require.NoError(t, err)
	return svc, res
}

func TestSeedDemo_CreatesRoster(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Seeding the demo roster
	svc, res := newSeededService(t)

	// THEN: Six employees and two pending requests exist
	ctx := context.Background()
	assert.Len(t, res.Employees, 6)
	assert.Len(t, res.Requests, 2)

	emps, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 6)

	for _, id := range res.Requests {
		req, err := svc.GetRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPending, req.Status)
	}
}

func TestSeedDemo_IsIdempotent(t *testing.T) {
	svc, _ := newSeededService(t)

	again, err := api.SeedDemo(context.Background(), svc, generic.DateOf(fixedNow))

	require.NoError(t, err)
	assert.Empty(t, again.Employees)
	assert.Empty(t, again.Requests)
}

func TestSeedDemo_QueuesAreRouted(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	nursing, err := svc.ListQueue(ctx, "mgr-enf")
	require.NoError(t, err)
	require.Len(t, nursing, 1)
	assert.Equal(t, generic.EntityID("enf-001"), nursing[0].EmployeeID)

	pharmacy, err := svc.ListQueue(ctx, "mgr-far")
	require.NoError(t, err)
	require.Len(t, pharmacy, 1)
	assert.Equal(t, leave.CategoryExitPass, pharmacy[0].Category)

	hr, err := svc.ListQueue(ctx, "hr-001")
	require.NoError(t, err)
	assert.Len(t, hr, 2)
}

func TestSeedDemo_NewHireLacksSeniority(t *testing.T) {
	svc, _ := newSeededService(t)
	today := generic.DateOf(fixedNow)

	_, err := svc.SubmitRequest(context.Background(), "urg-001", leave.Candidate{
		Category:  leave.CategoryVacation,
		StartDate: today.AddDays(20),
		EndDate:   today.AddDays(21),
	})

	rej, ok := leave.AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	assert.Equal(t, leave.ReasonSeniority, rej.Code)
}

func TestSeedDemo_BirthdayIsToday(t *testing.T) {
	svc, _ := newSeededService(t)

	b, err := svc.GetBalances(context.Background(), "enf-001", generic.TimePoint{})
	require.NoError(t, err)
	assert.True(t, b.IsBirthday)
}
