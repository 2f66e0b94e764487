package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDomainEvent(t *testing.T) {
	okBefore := testutil.ToFloat64(domainEvents.WithLabelValues(EventCheckIn, "ok"))
	errBefore := testutil.ToFloat64(domainEvents.WithLabelValues(EventCheckIn, "error"))

	RecordDomainEvent(EventCheckIn, nil)
	RecordDomainEvent(EventCheckIn, nil)
	RecordDomainEvent(EventCheckIn, errors.New("duplicate"))

	assert.Equal(t, okBefore+2, testutil.ToFloat64(domainEvents.WithLabelValues(EventCheckIn, "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(domainEvents.WithLabelValues(EventCheckIn, "error")))
}

func TestRequestStarted(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/groups/:groupId", "200"))

	done := RequestStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(httpInFlight))
	done("get", "/api/groups/:groupId", 200)

	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/groups/:groupId", "200")))
}

func TestRegistryGathers(t *testing.T) {
	RecordWebhook("user.created", nil)
	RecordRateLimited("check_in")

	families, err := Registry.Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["habits_identity_webhook_events_total"])
	assert.True(t, names["habits_http_rate_limited_total"])
}
