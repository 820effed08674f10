package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"github.com/zhenghe-fab/linescale/internal/weighing/testutil"
)

// TestReportExport tests the xlsx export contents
func TestReportExport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewReportService(repository.NewProductionLogRepository(db), nil, "", zap.NewNop())

	db.Create(&entity.ProductionLog{
		RecordedAt: time.Now(),
		Line:       "Line 1",
		OrderCode:  "WO-0831-0001",
		ProductID:  "P-001",
		Weight:     12.5,
		Verdict:    entity.VerdictPass,
	})
	db.Create(&entity.ProductionLog{
		RecordedAt: time.Now(),
		Line:       "Line 2",
		OrderCode:  "WO-0831-0002",
		ProductID:  "P-002",
		Weight:     11.2,
		Verdict:    entity.VerdictNG,
		NGReason:   "缺角",
	})

	f, name, err := svc.Export("")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer f.Close()

	if !strings.HasPrefix(name, "生产日报_") || !strings.HasSuffix(name, ".xlsx") {
		t.Fatalf("unexpected filename %q", name)
	}

	got, err := f.GetCellValue("生产记录", "A1")
	if err != nil {
		t.Fatalf("read header cell: %v", err)
	}
	if got != "時間" {
		t.Fatalf("expected header 時間, got %q", got)
	}

	rows, err := f.GetRows("生产记录")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d", len(rows))
	}

	// 单产线过滤
	f2, _, err := svc.Export("Line 1")
	if err != nil {
		t.Fatalf("Export(Line 1) failed: %v", err)
	}
	defer f2.Close()
	rows2, _ := f2.GetRows("生产记录")
	if len(rows2) != 2 {
		t.Fatalf("expected header + 1 data row for Line 1, got %d", len(rows2))
	}
}

// TestReportArchiveWithoutStorage tests the explicit error when object
// storage is not configured
func TestReportArchiveWithoutStorage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewReportService(repository.NewProductionLogRepository(db), nil, "", zap.NewNop())

	if _, err := svc.Archive(context.Background(), ""); err == nil {
		t.Fatal("expected error when object storage is not configured")
	}
}
