// Package memory provides an in-process request store. It is used for local runs and as the reference implementation
// of the conditional-update contract in tests.
package memory

import (
	"context"
	"sync"

	"github.com/tradepost/go-mediation/models"
)

var _ models.RequestRepository = &RequestStore{}

type RequestStore struct {
	mu       sync.Mutex
	requests map[string]models.MediationRequest
}

func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[string]models.MediationRequest)}
}

func (s *RequestStore) GetRequest(ctx context.Context, id string) (*models.MediationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if req, found := s.requests[id]; found {
		return &req, nil
	}
	return nil, models.ErrRequestNotFound
}

func (s *RequestStore) CreateRequest(ctx context.Context, req *models.MediationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := req.ValidForCreate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.requests[req.Id]; found {
		return models.ErrRequestExists
	}
	s.requests[req.Id] = *req
	return nil
}

func (s *RequestStore) UpdateRequest(ctx context.Context, expected *models.MediationRequest, next *models.MediationRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := next.Valid(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.requests[expected.Id]
	if !found {
		return false, models.ErrRequestNotFound
	}
	if current.Status != expected.Status || current.Version != expected.Version {
		return false, nil
	}
	s.requests[expected.Id] = *next
	return true, nil
}

func (s *RequestStore) RequestCount(ctx context.Context, status models.RequestStatus) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, req := range s.requests {
		if req.Status == status {
			count++
		}
	}
	return count, nil
}
