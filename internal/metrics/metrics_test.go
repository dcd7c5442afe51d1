package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookingCommits.WithLabelValues("failure"))
	ObserveCommit(false)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingCommits.WithLabelValues("failure")))

	before = testutil.ToFloat64(bookingCancellations.WithLabelValues("success"))
	ObserveCancellation(true)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingCancellations.WithLabelValues("success")))

	before = testutil.ToFloat64(sessionsExpired)
	IncSessionsExpired()
	assert.Equal(t, before+1, testutil.ToFloat64(sessionsExpired))

	before = testutil.ToFloat64(availabilityFailOpen)
	IncAvailabilityFailOpen()
	assert.Equal(t, before+1, testutil.ToFloat64(availabilityFailOpen))

	before = testutil.ToFloat64(inboundMessages.WithLabelValues("text"))
	IncInbound("text")
	assert.Equal(t, before+1, testutil.ToFloat64(inboundMessages.WithLabelValues("text")))

	SetSessionsActive(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(sessionsActive))
}
