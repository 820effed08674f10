package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
)

// TestMirrorAppendAndLoad tests the append/reload roundtrip used for
// empty-store bootstrap
func TestMirrorAppendAndLoad(t *testing.T) {
	m := NewMirror(t.TempDir(), zap.NewNop())

	ts := time.Date(2026, 8, 31, 9, 30, 0, 0, time.Local)
	m.Append(&entity.ProductionLog{
		RecordedAt: ts,
		Line:       "Line 1",
		OrderCode:  "WO-0831-0001",
		ProductID:  "P-001",
		Weight:     12.5,
		Verdict:    entity.VerdictPass,
	})
	m.Append(&entity.ProductionLog{
		RecordedAt: ts.Add(time.Minute),
		Line:       "Line 2",
		OrderCode:  "WO-0831-0002",
		ProductID:  "P-002",
		Weight:     11.2,
		Verdict:    entity.VerdictNG,
		NGReason:   "缺角",
	})

	logs, err := m.LoadLogs()
	if err != nil {
		t.Fatalf("LoadLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	if !logs[0].RecordedAt.Equal(ts) {
		t.Fatalf("expected timestamp %v, got %v", ts, logs[0].RecordedAt)
	}
	if logs[0].Weight != 12.5 || logs[0].Verdict != entity.VerdictPass {
		t.Fatalf("unexpected first entry: %+v", logs[0])
	}
	if logs[1].NGReason != "缺角" {
		t.Fatalf("expected NG reason to survive roundtrip, got %q", logs[1].NGReason)
	}
}

// TestMirrorLoadMissingFile tests bootstrap when no mirror exists yet
func TestMirrorLoadMissingFile(t *testing.T) {
	m := NewMirror(t.TempDir(), zap.NewNop())
	if _, err := m.LoadLogs(); err == nil {
		t.Fatal("expected error for missing aggregate mirror")
	}
}
