package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tradepost/go-mediation/common/db/dbtest"
	"github.com/tradepost/go-mediation/common/db/memory"
	"github.com/tradepost/go-mediation/common/loggers"
	"github.com/tradepost/go-mediation/models"
)

const (
	requesterId = "trader-1"
	mediator1   = "mediator-1"
	mediator2   = "mediator-2"
	strangerId  = "trader-2"
)

type MockMetricService struct {
	models.MetricService
	mu     sync.Mutex
	counts map[models.MetricName]int
}

func (m *MockMetricService) Count(_ context.Context, name models.MetricName, val int, _ ...models.MetricAttr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[models.MetricName]int)
	}
	m.counts[name] += val
	return nil
}

func (m *MockMetricService) count(name models.MetricName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

type FakeStaffDirectory struct {
	staff map[string]bool
	err   error
}

func (f FakeStaffDirectory) IsMediatorStaff(_ context.Context, actorId string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.staff[actorId], nil
}

type SpyDispatcher struct {
	mu     sync.Mutex
	events []*models.TransitionEvent
}

func (s *SpyDispatcher) Dispatch(event *models.TransitionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *SpyDispatcher) received() []*models.TransitionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.TransitionEvent(nil), s.events...)
}

type MockNotifier struct {
	alerts chan string
}

func (m *MockNotifier) SendAlert(_, _, content string) error {
	if m.alerts != nil {
		m.alerts <- content
	}
	return nil
}

// BlockingNotifier holds every alert until release is closed.
type BlockingNotifier struct {
	release  chan struct{}
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	sent     int
}

func (b *BlockingNotifier) SendAlert(_, _, _ string) error {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.maxSeen {
		b.maxSeen = b.inFlight
	}
	b.mu.Unlock()

	<-b.release

	b.mu.Lock()
	b.inFlight--
	b.sent++
	b.mu.Unlock()
	return nil
}

// FaultyRepository fails or refuses calls on top of a working store.
type FaultyRepository struct {
	models.RequestRepository
	getErr      error
	updateErr   error
	refuseWrite bool
	getCalls    int
}

func (f *FaultyRepository) GetRequest(ctx context.Context, id string) (*models.MediationRequest, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.RequestRepository.GetRequest(ctx, id)
}

func (f *FaultyRepository) UpdateRequest(ctx context.Context, expected *models.MediationRequest, next *models.MediationRequest) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	if f.refuseWrite {
		return false, nil
	}
	return f.RequestRepository.UpdateRequest(ctx, expected, next)
}

type testEngine struct {
	*TransitionService
	repo          models.RequestRepository
	dispatcher    *SpyDispatcher
	notif         *MockNotifier
	metricService *MockMetricService
}

func newTestEngine(repo models.RequestRepository, staff models.StaffDirectory) testEngine {
	if repo == nil {
		repo = memory.NewRequestStore()
	}
	if staff == nil {
		staff = FakeStaffDirectory{staff: map[string]bool{mediator1: true, mediator2: true}}
	}
	dispatcher := &SpyDispatcher{}
	notif := &MockNotifier{alerts: make(chan string, 8)}
	metricService := &MockMetricService{}
	engine := NewTransitionService(repo, staff, dispatcher, notif, metricService, loggers.NewTestLogger())
	return testEngine{engine, repo, dispatcher, notif, metricService}
}

// seedRequest stores a request owned by requesterId in the given status. Claimed and completed requests are claimed by
// mediator1.
func seedRequest(t *testing.T, repo models.RequestRepository, status models.RequestStatus) *models.MediationRequest {
	t.Helper()
	ctx := context.Background()
	req := dbtest.NewPendingRequest(requesterId)
	if err := repo.CreateRequest(ctx, req); err != nil {
		t.Fatalf("seed create: %v", err)
	}
	if status == models.RequestStatus_Pending {
		return req
	}
	next := *req
	switch status {
	case models.RequestStatus_Claimed, models.RequestStatus_Completed:
		next = *dbtest.Claimed(req, mediator1)
		next.Status = status
	case models.RequestStatus_Cancelled:
		next.Status = status
		next.UpdatedAt = req.UpdatedAt.Add(time.Millisecond)
		next.Version = req.Version + 1
	}
	if applied, err := repo.UpdateRequest(ctx, req, &next); err != nil || !applied {
		t.Fatalf("seed update: applied=%v err=%v", applied, err)
	}
	return &next
}

func loadRequest(t *testing.T, repo models.RequestRepository, id string) *models.MediationRequest {
	t.Helper()
	req, err := repo.GetRequest(context.Background(), id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return req
}

func expectOutcome(t *testing.T, outcome models.Outcome, success bool, kind models.ErrorKind) {
	t.Helper()
	if outcome.Success != success || outcome.ErrorKind != kind {
		t.Errorf("outcome: found success=%v kind=%q (%s), expected success=%v kind=%q", outcome.Success, outcome.ErrorKind, outcome.Message, success, kind)
	}
}
