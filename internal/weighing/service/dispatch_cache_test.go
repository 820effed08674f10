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

func setupCachedDispatchTest(t *testing.T) (*gorm.DB, *DispatchService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	rdb := testutil.SetupTestRedis(t)
	woRepo := repository.NewWorkOrderRepository(db)
	return db, NewDispatchService(woRepo, rdb, time.Minute, zap.NewNop())
}

// TestDispatchCacheHit tests that within the TTL the resolver answers from
// the cache without touching the store
func TestDispatchCacheHit(t *testing.T) {
	db, svc := setupCachedDispatchTest(t)
	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-001", 1, 5, 0, entity.WOStatusPending)

	cur, err := svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil || cur.OrderCode != "WO-A" {
		t.Fatalf("expected WO-A, got %+v", cur)
	}

	// 绕过服务直接清掉工单：缓存命中时旧派单结果仍然可见
	db.Where("code = ?", "WO-A").Delete(&entity.WorkOrder{})

	cur, err = svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil || cur.OrderCode != "WO-A" {
		t.Fatalf("expected cached WO-A, got %+v", cur)
	}

	// 失效后回源，产线已闲置
	svc.Invalidate(context.Background(), "Line 1")
	cur, err = svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected idle after invalidation, got %+v", cur)
	}
}

// TestDispatchCachesIdleSentinel tests that an idle line is cached too, and
// only invalidation makes a new order visible
func TestDispatchCachesIdleSentinel(t *testing.T) {
	db, svc := setupCachedDispatchTest(t)
	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)

	cur, err := svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected idle, got %+v", cur)
	}

	// 闲置结果也被缓存：新工单在失效前不可见
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-001", 1, 5, 0, entity.WOStatusPending)
	cur, err = svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected cached idle, got %+v", cur)
	}

	svc.Invalidate(context.Background(), "Line 1")
	cur, err = svc.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil || cur.OrderCode != "WO-A" {
		t.Fatalf("expected WO-A after invalidation, got %+v", cur)
	}
}

// TestSubmitInvalidatesDispatchCache tests that the recording path refreshes
// dispatch: a PASS that fills the quota must be visible on the next poll
func TestSubmitInvalidatesDispatchCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rdb := testutil.SetupTestRedis(t)
	logger := zap.NewNop()
	woRepo := repository.NewWorkOrderRepository(db)
	dispatch := NewDispatchService(woRepo, rdb, time.Minute, logger)
	mirror := NewMirror(t.TempDir(), logger)
	ingest := NewIngestService(db, mirror, dispatch, []string{"Line 1"}, logger)

	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-001", 1, 1, 0, entity.WOStatusPending)

	cur, err := dispatch.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur == nil || cur.OrderCode != "WO-A" {
		t.Fatalf("expected WO-A, got %+v", cur)
	}

	// 报满计划数,下一次轮询必须立刻看到产线闲置
	if _, err := ingest.Submit(context.Background(), Submission{
		Line:      "Line 1",
		OrderCode: "WO-A",
		ProductID: "P-001",
		RawWeight: "12.50",
		Verdict:   entity.VerdictPass,
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	cur, err = dispatch.Resolve(context.Background(), "Line 1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cur != nil {
		t.Fatalf("expected idle after quota filled, got %+v", cur)
	}
}

// TestSchedulingInvalidatesDispatchCache tests that finish/cancel refresh the
// cached dispatch result
func TestSchedulingInvalidatesDispatchCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rdb := testutil.SetupTestRedis(t)
	logger := zap.NewNop()
	woRepo := repository.NewWorkOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	dispatch := NewDispatchService(woRepo, rdb, time.Minute, logger)
	sched := NewSchedulingService(woRepo, productRepo, db, dispatch, logger)

	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-001", 1, 5, 0, entity.WOStatusPending)
	testutil.SeedWorkOrder(t, db, "Line 1", "WO-B", "P-001", 2, 5, 0, entity.WOStatusPending)

	cur, _ := dispatch.Resolve(context.Background(), "Line 1")
	if cur == nil || cur.OrderCode != "WO-A" {
		t.Fatalf("expected WO-A, got %+v", cur)
	}

	if err := sched.Finish(context.Background(), "WO-A"); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	cur, _ = dispatch.Resolve(context.Background(), "Line 1")
	if cur == nil || cur.OrderCode != "WO-B" {
		t.Fatalf("expected WO-B after finish, got %+v", cur)
	}

	if err := sched.Cancel(context.Background(), "WO-B"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	cur, _ = dispatch.Resolve(context.Background(), "Line 1")
	if cur != nil {
		t.Fatalf("expected idle after cancel, got %+v", cur)
	}
}
