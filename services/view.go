package services

import (
	"context"

	"github.com/tradepost/go-mediation/models"
	"github.com/tradepost/go-mediation/policy"
)

type ViewService struct {
	requestDb models.RequestRepository
	staff     models.StaffDirectory
	logger    models.Logger
}

func NewViewService(requestDb models.RequestRepository, staff models.StaffDirectory, logger models.Logger) *ViewService {
	return &ViewService{requestDb, staff, logger}
}

// Get loads a request and computes the actions viewerId should be offered on it. An empty viewerId gets no actions.
func (v ViewService) Get(ctx context.Context, requestId, viewerId string) (*models.RequestDetail, error) {
	req, err := v.requestDb.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	facts := models.RoleFacts{}
	if len(viewerId) > 0 {
		if isStaff, err := v.staff.IsMediatorStaff(ctx, viewerId); err != nil {
			v.logger.Warnf("view: staff lookup for %s failed: %v", viewerId, err)
		} else {
			facts.IsMediatorStaff = isStaff
		}
	}
	roles := policy.ResolveRoles(req, viewerId, facts)
	return &models.RequestDetail{
		Request:          *req,
		AvailableActions: policy.AvailableActions(req.Status, roles),
	}, nil
}
