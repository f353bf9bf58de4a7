package leaverequest_test

import (
	"testing"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    leaverequest.Status
		to      leaverequest.Status
		allowed bool
	}{
		{leaverequest.StatusPending, leaverequest.StatusApproved, true},
		{leaverequest.StatusPending, leaverequest.StatusRejected, true},
		{leaverequest.StatusPending, leaverequest.StatusCancelled, true},
		{leaverequest.StatusPending, leaverequest.StatusPending, false},
		{leaverequest.StatusApproved, leaverequest.StatusCancelled, true},
		{leaverequest.StatusApproved, leaverequest.StatusApproved, false},
		{leaverequest.StatusApproved, leaverequest.StatusRejected, false},
		{leaverequest.StatusApproved, leaverequest.StatusPending, false},
		{leaverequest.StatusRejected, leaverequest.StatusApproved, false},
		{leaverequest.StatusRejected, leaverequest.StatusCancelled, false},
		{leaverequest.StatusRejected, leaverequest.StatusPending, false},
		{leaverequest.StatusCancelled, leaverequest.StatusApproved, false},
		{leaverequest.StatusCancelled, leaverequest.StatusPending, false},
		{leaverequest.StatusCancelled, leaverequest.StatusRejected, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+" to "+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, leaverequest.StatusPending.IsValid())
	assert.True(t, leaverequest.StatusApproved.IsValid())
	assert.True(t, leaverequest.StatusRejected.IsValid())
	assert.True(t, leaverequest.StatusCancelled.IsValid())
	assert.False(t, leaverequest.Status("SUBMITTED").IsValid())
	assert.False(t, leaverequest.Status("").IsValid())
}

func TestDaysInclusive(t *testing.T) {
	day := func(v string) time.Time {
		d, err := time.Parse("2006-01-02", v)
		assert.NoError(t, err)
		return d
	}

	assert.Equal(t, 1, leaverequest.DaysInclusive(day("2026-03-10"), day("2026-03-10")))
	assert.Equal(t, 5, leaverequest.DaysInclusive(day("2026-03-10"), day("2026-03-14")))
	assert.Equal(t, 31, leaverequest.DaysInclusive(day("2026-01-01"), day("2026-01-31")))
}
