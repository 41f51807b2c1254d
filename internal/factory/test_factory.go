package factory

import (
	"time"

	"github.com/mcoot/bullscows/internal/dependencies/mocks"
	"github.com/mcoot/bullscows/internal/services/publish"
	"github.com/mcoot/bullscows/internal/storage/memory"
	"github.com/mcoot/bullscows/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockTransport *testutil.RecordingTransport
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockTransport := testutil.NewRecordingTransport()
	logger := testutil.NopLogger()

	app := newWithDependencies(dependencies{
		store:     store,
		clock:     mockClock,
		random:    mockRandom,
		publisher: publish.NewLogPublisher(logger),
		transport: mockTransport,
		logger:    logger,
	})

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockTransport: mockTransport,
	}
}
