// Package dbtest holds the behaviour every models.RequestRepository backend must share.
package dbtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tradepost/go-mediation/models"
)

func NewPendingRequest(requesterId string) *models.MediationRequest {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.MediationRequest{
		Id:          uuid.New().String(),
		RequesterId: requesterId,
		Status:      models.RequestStatus_Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Payload: models.RequestPayload{
			Item:    "Golden Sword",
			Price:   "1200 gold",
			Terms:   "half up front",
			Urgency: "high",
		},
	}
}

// Claimed returns the request as a successful claim by claimantId would leave it.
func Claimed(req *models.MediationRequest, claimantId string) *models.MediationRequest {
	next := *req
	next.Status = models.RequestStatus_Claimed
	next.ClaimantId = claimantId
	next.UpdatedAt = req.UpdatedAt.Add(time.Millisecond)
	next.Version = req.Version + 1
	return &next
}

// RunRequestRepositoryTests exercises newRepo against the conditional-update contract.
func RunRequestRepositoryTests(t *testing.T, newRepo func(t *testing.T) models.RequestRepository) {
	t.Run("get returns not found for unknown id", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.GetRequest(context.Background(), uuid.New().String()); !errors.Is(err, models.ErrRequestNotFound) {
			t.Errorf("expected ErrRequestNotFound, got %v", err)
		}
	})

	t.Run("create then get round trips", func(t *testing.T) {
		repo := newRepo(t)
		req := NewPendingRequest("u1")
		if err := repo.CreateRequest(context.Background(), req); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		found, err := repo.GetRequest(context.Background(), req.Id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if found.Id != req.Id || found.RequesterId != req.RequesterId || found.Status != req.Status ||
			found.ClaimantId != "" || found.Version != 0 || found.Payload != req.Payload ||
			!found.CreatedAt.Equal(req.CreatedAt) || !found.UpdatedAt.Equal(req.UpdatedAt) {
			t.Errorf("round trip mismatch: found=%+v, expected=%+v", found, req)
		}
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		repo := newRepo(t)
		req := NewPendingRequest("u1")
		if err := repo.CreateRequest(context.Background(), req); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := repo.CreateRequest(context.Background(), req); !errors.Is(err, models.ErrRequestExists) {
			t.Errorf("expected ErrRequestExists, got %v", err)
		}
	})

	t.Run("create rejects a request that is not pending", func(t *testing.T) {
		repo := newRepo(t)
		req := Claimed(NewPendingRequest("u1"), "m1")
		if err := repo.CreateRequest(context.Background(), req); err == nil {
			t.Errorf("expected error creating a claimed request")
		}
	})

	t.Run("update applies when status and version match", func(t *testing.T) {
		repo := newRepo(t)
		req := NewPendingRequest("u1")
		_ = repo.CreateRequest(context.Background(), req)
		next := Claimed(req, "m1")
		if updated, err := repo.UpdateRequest(context.Background(), req, next); err != nil || !updated {
			t.Fatalf("expected update, got updated=%v err=%v", updated, err)
		}
		found, _ := repo.GetRequest(context.Background(), req.Id)
		if found.Status != models.RequestStatus_Claimed || found.ClaimantId != "m1" || found.Version != 1 {
			t.Errorf("update not persisted: %+v", found)
		}
	})

	t.Run("update is refused on a stale read", func(t *testing.T) {
		repo := newRepo(t)
		req := NewPendingRequest("u1")
		_ = repo.CreateRequest(context.Background(), req)
		if updated, _ := repo.UpdateRequest(context.Background(), req, Claimed(req, "m1")); !updated {
			t.Fatalf("first update should apply")
		}
		if updated, err := repo.UpdateRequest(context.Background(), req, Claimed(req, "m2")); err != nil || updated {
			t.Errorf("stale update should be refused without error, got updated=%v err=%v", updated, err)
		}
		found, _ := repo.GetRequest(context.Background(), req.Id)
		if found.ClaimantId != "m1" {
			t.Errorf("stale update overwrote claimant: %s", found.ClaimantId)
		}
	})

	t.Run("concurrent updates from the same read have one winner", func(t *testing.T) {
		repo := newRepo(t)
		req := NewPendingRequest("u1")
		_ = repo.CreateRequest(context.Background(), req)

		const numWriters = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := make([]string, 0, 1)
		for i := 0; i < numWriters; i++ {
			claimantId := uuid.New().String()
			wg.Add(1)
			go func() {
				defer wg.Done()
				updated, err := repo.UpdateRequest(context.Background(), req, Claimed(req, claimantId))
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if updated {
					mu.Lock()
					winners = append(winners, claimantId)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if len(winners) != 1 {
			t.Fatalf("expected exactly one winner, got %d", len(winners))
		}
		found, _ := repo.GetRequest(context.Background(), req.Id)
		if found.ClaimantId != winners[0] {
			t.Errorf("stored claimant %s is not the winner %s", found.ClaimantId, winners[0])
		}
	})

	t.Run("count by status", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 3; i++ {
			_ = repo.CreateRequest(context.Background(), NewPendingRequest("u1"))
		}
		claimed := NewPendingRequest("u2")
		_ = repo.CreateRequest(context.Background(), claimed)
		_, _ = repo.UpdateRequest(context.Background(), claimed, Claimed(claimed, "m1"))

		if count, err := repo.RequestCount(context.Background(), models.RequestStatus_Pending); err != nil || count != 3 {
			t.Errorf("pending count: found=%d err=%v, expected=3", count, err)
		}
		if count, err := repo.RequestCount(context.Background(), models.RequestStatus_Claimed); err != nil || count != 1 {
			t.Errorf("claimed count: found=%d err=%v, expected=1", count, err)
		}
	})
}
