package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"github.com/zhenghe-fab/linescale/internal/weighing/testutil"
)

// TestSyncRefreshProjectsStore tests that a refresh replaces the projection
// with the current store contents
func TestSyncRefreshProjectsStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	woRepo := repository.NewWorkOrderRepository(db)
	logRepo := repository.NewProductionLogRepository(db)
	svc := NewSyncService(woRepo, logRepo, time.Second, zap.NewNop())

	// 空库的投影也要可用
	svc.Refresh()
	snap := svc.Snapshot()
	if len(snap.Orders) != 0 || len(snap.Logs) != 0 {
		t.Fatalf("expected empty projection, got %d orders %d logs", len(snap.Orders), len(snap.Logs))
	}

	testutil.SeedProduct(t, db, "P-001", 12.0, 12.5, 13.0)
	wo := testutil.SeedWorkOrder(t, db, "Line 1", "WO-A", "P-001", 1, 5, 0, entity.WOStatusPending)
	wo.TargetWeight = 12.5
	db.Save(wo)

	db.Create(&entity.ProductionLog{RecordedAt: time.Now(), Line: "Line 1", OrderCode: "WO-A", Weight: 12.4, Verdict: entity.VerdictPass})
	db.Create(&entity.ProductionLog{RecordedAt: time.Now(), Line: "Line 1", OrderCode: "WO-A", Weight: 12.6, Verdict: entity.VerdictPass})
	db.Create(&entity.ProductionLog{RecordedAt: time.Now(), Line: "Line 1", OrderCode: "WO-A", Weight: 11.0, Verdict: entity.VerdictNG, NGReason: "低重"})

	svc.Refresh()
	snap = svc.Snapshot()

	if len(snap.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(snap.Orders))
	}
	if len(snap.Logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(snap.Logs))
	}
	// 日志新在前
	if snap.Logs[0].Verdict != entity.VerdictNG {
		t.Fatalf("expected newest log first, got %s", snap.Logs[0].Verdict)
	}
	if snap.RefreshedAt.IsZero() {
		t.Fatal("expected refreshed_at to be set")
	}

	st := snap.Stats["Line 1"]
	if st == nil {
		t.Fatal("expected stats for Line 1")
	}
	if st.PassCount != 2 || st.NGCount != 1 {
		t.Fatalf("expected 2 pass / 1 ng, got %d / %d", st.PassCount, st.NGCount)
	}
	// 良品累计重按工单准重记，不按实测重
	if st.PassWeight != 25.0 {
		t.Fatalf("expected pass weight 25.0, got %v", st.PassWeight)
	}
}

// TestSnapshotStableAcrossWrites tests that an already-taken snapshot is not
// mutated by later refreshes
func TestSnapshotStableAcrossWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	woRepo := repository.NewWorkOrderRepository(db)
	logRepo := repository.NewProductionLogRepository(db)
	svc := NewSyncService(woRepo, logRepo, time.Second, zap.NewNop())

	db.Create(&entity.ProductionLog{RecordedAt: time.Now(), Line: "Line 1", OrderCode: "WO-A", Weight: 12.5, Verdict: entity.VerdictPass})
	svc.Refresh()
	old := svc.Snapshot()

	db.Create(&entity.ProductionLog{RecordedAt: time.Now(), Line: "Line 1", OrderCode: "WO-A", Weight: 12.6, Verdict: entity.VerdictPass})
	svc.Refresh()

	if len(old.Logs) != 1 {
		t.Fatalf("held snapshot changed size: %d", len(old.Logs))
	}
	fresh := svc.Snapshot()
	if len(fresh.Logs) != 2 {
		t.Fatalf("expected fresh snapshot with 2 logs, got %d", len(fresh.Logs))
	}
}
