package services_test

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/services"
	"github.com/mlopezgez/group-habits-tracking/internal/testutil"
)

// wednesday is the fixed "now" of service tests: Wednesday 22 October 2025,
// inside the week starting Monday 20 October.
var wednesday = time.Date(2025, 10, 22, 10, 30, 0, 0, time.UTC)

func newTestServices(t *testing.T) (*services.Services, *testutil.MemoryStore) {
	t.Helper()
	mem := testutil.NewMemoryStore()
	cal := services.NewCalendar(time.UTC).WithClock(func() time.Time { return wednesday })
	return services.New(mem.Store(), nil, cal, zap.NewNop()), mem
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }
