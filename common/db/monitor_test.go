package db

import (
	"context"
	"testing"

	"github.com/tradepost/go-mediation/common/db/dbtest"
	"github.com/tradepost/go-mediation/common/db/memory"
)

func TestDbMonitor(t *testing.T) {
	store := memory.NewRequestStore()
	monitor := NewDbMonitor(store)
	if value, err := monitor.GetValue(context.Background()); err != nil || value != 0 {
		t.Fatalf("empty store: value=%d err=%v", value, err)
	}
	first := dbtest.NewPendingRequest("u1")
	_ = store.CreateRequest(context.Background(), first)
	_ = store.CreateRequest(context.Background(), dbtest.NewPendingRequest("u2"))
	_, _ = store.UpdateRequest(context.Background(), first, dbtest.Claimed(first, "m1"))

	if value, err := monitor.GetValue(context.Background()); err != nil || value != 1 {
		t.Errorf("pending gauge: found=%d err=%v, expected=1", value, err)
	}
}
