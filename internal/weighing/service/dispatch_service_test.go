package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"github.com/zhenghe-fab/linescale/internal/weighing/testutil"
)

func setupDispatchTest(t *testing.T) (*gorm.DB, *DispatchService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	woRepo := repository.NewWorkOrderRepository(db)
	return db, NewDispatchService(woRepo, nil, time.Second, zap.NewNop())
}

// TestResolvePicksLowestSeq tests that dispatch follows the schedule order
func TestResolvePicksLowestSeq(t *testing.T) {
	db, svc := setupDispatchTest(t)
	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-B", "P-001", 2, 5, 0, entity.WOStatusPending)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-001", 1, 5, 0, entity.WOStatusPending)

	cur, err := svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil {
		t.Fatal("expected an order, got idle")
	}
	if cur.OrderCode != "WO-A" {
		t.Fatalf("expected WO-A (seq 1), got %s", cur.OrderCode)
	}
	if cur.MinWeight != 12.0 || cur.TargetWeight != 12.5 || cur.MaxWeight != 13.0 {
		t.Fatalf("unexpected tolerance band: %+v", cur)
	}
}

// TestResolveSkipsFullAndTerminalOrders tests dispatch eligibility rules
func TestResolveSkipsFullAndTerminalOrders(t *testing.T) {
	db, svc := setupDispatchTest(t)
	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-FULL", "P-001", 1, 3, 3, entity.WOStatusInProgress)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-DONE", "P-001", 2, 3, 1, entity.WOStatusCompleted)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-CANC", "P-001", 3, 3, 0, entity.WOStatusCancelled)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-NEXT", "P-001", 4, 3, 0, entity.WOStatusPending)

	cur, err := svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil || cur.OrderCode != "WO-NEXT" {
		t.Fatalf("expected WO-NEXT, got %+v", cur)
	}
}

// TestResolveIdleLine tests that a line with no eligible order resolves to nil
func TestResolveIdleLine(t *testing.T) {
	_, svc := setupDispatchTest(t)

	cur, err := svc.Resolve(context.Background(), "Line 3")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected idle, got %+v", cur)
	}
}

// TestResolveFallbackBand tests the wide-open tolerance band when the product
// record is missing
func TestResolveFallbackBand(t *testing.T) {
	db, svc := setupDispatchTest(t)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-GONE", 1, 5, 0, entity.WOStatusPending)

	cur, err := svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil {
		t.Fatal("expected an order despite missing product")
	}
	if cur.TargetWeight != entity.FallbackTargetWeight {
		t.Fatalf("expected fallback target %v, got %v", entity.FallbackTargetWeight, cur.TargetWeight)
	}
	if cur.MinWeight != entity.FallbackMinWeight || cur.MaxWeight != entity.FallbackMaxWeight {
		t.Fatalf("expected fallback band [%v, %v], got [%v, %v]",
			entity.FallbackMinWeight, entity.FallbackMaxWeight, cur.MinWeight, cur.MaxWeight)
	}
}

// TestResolveLineIsolation tests that dispatch never crosses lines
func TestResolveLineIsolation(t *testing.T) {
	db, svc := setupDispatchTest(t)
	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	testutil.SeedWorkOrder(t, db, "Line 2", "WO-OTHER", "P-001", 1, 5, 0, entity.WOStatusPending)

	cur, err := svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected Line 1 idle, got %+v", cur)
	}
}
