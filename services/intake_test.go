package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tradepost/go-mediation/common/db/memory"
	"github.com/tradepost/go-mediation/common/loggers"
	"github.com/tradepost/go-mediation/models"
)

type FailingCreateRepository struct {
	models.RequestRepository
}

func (FailingCreateRepository) CreateRequest(context.Context, *models.MediationRequest) error {
	return errors.New("table missing")
}

func TestCreate(t *testing.T) {
	repo := memory.NewRequestStore()
	metricService := &MockMetricService{}
	intake := NewIntakeService(repo, metricService, loggers.NewTestLogger())

	payload := models.RequestPayload{Item: "Golden Sword", Price: "1200 gold", Urgency: "high"}
	req, err := intake.Create(context.Background(), requesterId, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != models.RequestStatus_Pending || len(req.ClaimantId) != 0 || req.Version != 0 {
		t.Errorf("new request: %+v", req)
	}
	if !req.CreatedAt.Equal(req.UpdatedAt) {
		t.Errorf("createdAt=%s updatedAt=%s should match", req.CreatedAt, req.UpdatedAt)
	}
	stored := loadRequest(t, repo, req.Id)
	if stored.RequesterId != requesterId || stored.Payload != payload {
		t.Errorf("stored: %+v", stored)
	}
	if n := metricService.count(models.MetricName_RequestCreated); n != 1 {
		t.Errorf("created: found=%d, expected=1", n)
	}

	other, err := intake.Create(context.Background(), requesterId, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Id == req.Id {
		t.Errorf("request ids must be unique")
	}
}

func TestCreateRejected(t *testing.T) {
	tests := map[string]struct {
		requesterId string
		payload     models.RequestPayload
		expected    error
	}{
		"no requester":    {payload: models.RequestPayload{Item: "Shield"}, expected: models.ErrActorRequired},
		"no item":         {requesterId: requesterId, expected: models.ErrInvalidRequest},
		"unknown urgency": {requesterId: requesterId, payload: models.RequestPayload{Item: "Shield", Urgency: "yesterday"}, expected: models.ErrInvalidRequest},
		"item too long":   {requesterId: requesterId, payload: models.RequestPayload{Item: strings.Repeat("x", 201)}, expected: models.ErrInvalidRequest},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := memory.NewRequestStore()
			intake := NewIntakeService(repo, &MockMetricService{}, loggers.NewTestLogger())
			if _, err := intake.Create(context.Background(), test.requesterId, test.payload); !errors.Is(err, test.expected) {
				t.Errorf("found=%v, expected=%v", err, test.expected)
			}
			if n, _ := repo.RequestCount(context.Background(), models.RequestStatus_Pending); n != 0 {
				t.Errorf("nothing should be stored, found %d", n)
			}
		})
	}
}

func TestCreateStoreFailure(t *testing.T) {
	metricService := &MockMetricService{}
	intake := NewIntakeService(FailingCreateRepository{}, metricService, loggers.NewTestLogger())
	if _, err := intake.Create(context.Background(), requesterId, models.RequestPayload{Item: "Shield"}); err == nil {
		t.Errorf("expected error")
	}
	if n := metricService.count(models.MetricName_RequestCreated); n != 0 {
		t.Errorf("created: found=%d, expected=0", n)
	}
}
