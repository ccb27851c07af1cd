package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/tradepost/go-mediation/common/db/dbtest"
	"github.com/tradepost/go-mediation/models"
)

func TestRequestStore(t *testing.T) {
	dbtest.RunRequestRepositoryTests(t, func(t *testing.T) models.RequestRepository {
		return NewRequestStore()
	})
}

func TestRequestStoreReturnsCopies(t *testing.T) {
	store := NewRequestStore()
	req := dbtest.NewPendingRequest("u1")
	if err := store.CreateRequest(context.Background(), req); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	found, _ := store.GetRequest(context.Background(), req.Id)
	found.Status = models.RequestStatus_Cancelled
	again, _ := store.GetRequest(context.Background(), req.Id)
	if again.Status != models.RequestStatus_Pending {
		t.Errorf("caller mutation leaked into the store: %s", again.Status)
	}
}

func TestRequestStoreHonoursCancelledContext(t *testing.T) {
	store := NewRequestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetRequest(ctx, "any"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
