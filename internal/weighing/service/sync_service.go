package service

import (
	"context"
	"sync"
	"time"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
)

// LineStats 监控面板的产线累计：良品笔数、NG笔数、按工单准重累计的良品重量
type LineStats struct {
	Line       string  `json:"line"`
	PassCount  int     `json:"pass_count"`
	NGCount    int     `json:"ng_count"`
	PassWeight float64 `json:"pass_weight"`
}

// Snapshot 权威库的只读投影。监控面只通过它看工单与日志，
// 拿到手的数据在下一次刷新前一律当作过期。
type Snapshot struct {
	Orders      []entity.WorkOrder     `json:"orders"`
	Logs        []entity.ProductionLog `json:"logs"`
	Stats       map[string]*LineStats  `json:"stats"`
	RefreshedAt time.Time              `json:"refreshed_at"`
}

// SyncService 对账刷新：整体重读两张权威表替换缓存投影。刷新不可观测地
// 失败（错误吞掉保留旧投影），允许与上报写入并发执行——只读已提交快照，
// 不加排他锁。refreshMu 串行化的是相邻的刷新节拍，不是刷新对写入。
type SyncService struct {
	woRepo    *repository.WorkOrderRepository
	logRepo   *repository.ProductionLogRepository
	interval  time.Duration
	logger    *zap.Logger
	refreshMu sync.Mutex

	mu   sync.RWMutex
	snap Snapshot
}

func NewSyncService(woRepo *repository.WorkOrderRepository, logRepo *repository.ProductionLogRepository, interval time.Duration, logger *zap.Logger) *SyncService {
	return &SyncService{
		woRepo:   woRepo,
		logRepo:  logRepo,
		interval: interval,
		logger:   logger,
		snap:     Snapshot{Stats: map[string]*LineStats{}},
	}
}

// Refresh 重读全部工单与日志（日志新在前），整体替换投影。
// 任一读失败则放弃本轮，监控面宁可看旧数据也不能崩。
func (s *SyncService) Refresh() {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	orders, err := s.woRepo.List(repository.WOListParams{})
	if err != nil {
		s.logger.Warn("对账刷新读取工单失败", zap.Error(err))
		return
	}
	logs, err := s.logRepo.ListNewestFirst(0)
	if err != nil {
		s.logger.Warn("对账刷新读取日志失败", zap.Error(err))
		return
	}

	stats := buildStats(orders, logs)

	s.mu.Lock()
	s.snap = Snapshot{
		Orders:      orders,
		Logs:        logs,
		Stats:       stats,
		RefreshedAt: time.Now(),
	}
	s.mu.Unlock()
}

func buildStats(orders []entity.WorkOrder, logs []entity.ProductionLog) map[string]*LineStats {
	target := make(map[string]float64, len(orders))
	for _, wo := range orders {
		target[wo.Code] = wo.TargetWeight
	}
	stats := map[string]*LineStats{}
	for _, l := range logs {
		st, ok := stats[l.Line]
		if !ok {
			st = &LineStats{Line: l.Line}
			stats[l.Line] = st
		}
		switch l.Verdict {
		case entity.VerdictPass:
			st.PassCount++
			st.PassWeight += target[l.OrderCode]
		case entity.VerdictNG:
			st.NGCount++
		}
	}
	return stats
}

// Snapshot 返回当前投影。投影只会被整体替换，共享切片是安全的。
func (s *SyncService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Run 固定周期刷新，直到 ctx 取消。单协程循环天然串行化节拍。
func (s *SyncService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}
