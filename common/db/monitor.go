package db

import (
	"context"

	"github.com/tradepost/go-mediation/models"
)

type monitor struct {
	requestDb models.RequestRepository
}

func NewDbMonitor(requestDb models.RequestRepository) models.ResourceMonitor {
	return &monitor{requestDb}
}

func (m monitor) GetValue(ctx context.Context) (int, error) {
	return m.requestDb.RequestCount(ctx, models.RequestStatus_Pending)
}
