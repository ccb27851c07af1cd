package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/tradepost/go-mediation/models"
)

// IntakeService creates new requests. It is the only writer besides the transition engine, and it only ever inserts.
type IntakeService struct {
	requestDb     models.RequestRepository
	metricService models.MetricService
	logger        models.Logger
	validator     *validator.Validate
	now           func() time.Time
}

func NewIntakeService(requestDb models.RequestRepository, metricService models.MetricService, logger models.Logger) *IntakeService {
	return &IntakeService{
		requestDb:     requestDb,
		metricService: metricService,
		logger:        logger,
		validator:     validator.New(),
		now:           time.Now,
	}
}

func (i IntakeService) Create(ctx context.Context, requesterId string, payload models.RequestPayload) (*models.MediationRequest, error) {
	if len(requesterId) == 0 {
		return nil, models.ErrActorRequired
	}
	if err := i.validator.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	now := i.now().UTC().Truncate(time.Millisecond)
	req := &models.MediationRequest{
		Id:          uuid.New().String(),
		RequesterId: requesterId,
		Status:      models.RequestStatus_Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Payload:     payload,
	}
	if err := i.requestDb.CreateRequest(ctx, req); err != nil {
		i.logger.Errorf("intake: error creating request for %s: %v", requesterId, err)
		return nil, fmt.Errorf("intake: %w", err)
	}
	i.metricService.Count(ctx, models.MetricName_RequestCreated, 1)
	i.logger.Debugf("intake: created request %s for %s", req.Id, requesterId)
	return req, nil
}
