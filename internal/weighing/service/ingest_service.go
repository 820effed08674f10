package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnknownLine 未知产线的归并名：名称对不上已知产线时事件仍要留底
const UnknownLine = "Unknown"

const (
	txMaxAttempts = 3
	txBackoff     = 200 * time.Millisecond
)

// Submission 终端上报的一次称重
type Submission struct {
	Line      string
	OrderCode string
	ProductID string
	RawWeight string
	Verdict   string
	Reason    string
}

// SubmitResult 回给终端的确认
type SubmitResult struct {
	Line   string
	Weight float64
}

// IngestService 称重上报入口。网关信任终端给的工单号（终端在前一刻刚查过
// 派单接口），不重新解析当前工单——上报路径必须保持可用且低延迟，哪怕
// 终端的工单视图瞬时过期。
type IngestService struct {
	db       *gorm.DB
	mirror   *Mirror
	dispatch *DispatchService
	lines    []string
	logger   *zap.Logger
}

func NewIngestService(db *gorm.DB, mirror *Mirror, dispatch *DispatchService, lines []string, logger *zap.Logger) *IngestService {
	return &IngestService{db: db, mirror: mirror, dispatch: dispatch, lines: lines, logger: logger}
}

func (s *IngestService) canonicalLine(name string) string {
	for _, l := range s.lines {
		if l == name {
			return name
		}
	}
	return UnknownLine
}

// Submit 记录一次称重：先落镜像CSV（尽力而为），再以单事务写日志并在PASS时
// 相对更新工单完成数。数据库短暂争用时有限重试。
func (s *IngestService) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	now := time.Now()
	weight := ExtractWeight(sub.RawWeight)
	line := s.canonicalLine(sub.Line)

	logEntry := entity.ProductionLog{
		RecordedAt: now,
		Line:       line,
		OrderCode:  sub.OrderCode,
		ProductID:  sub.ProductID,
		Weight:     weight,
		Verdict:    sub.Verdict,
		NGReason:   sub.Reason,
	}

	// 镜像只是诊断用途，写失败记日志后照常走主路径
	s.mirror.Append(&logEntry)

	var lastErr error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(txBackoff)
		}
		entry := logEntry
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if sub.Verdict == entity.VerdictPass {
				return repository.IncrementCompleted(tx, sub.OrderCode)
			}
			return nil
		})
		if err == nil {
			s.dispatch.Invalidate(ctx, line)
			return &SubmitResult{Line: line, Weight: weight}, nil
		}
		lastErr = err
		s.logger.Warn("写入生产记录失败，准备重试",
			zap.Int("attempt", attempt+1),
			zap.String("line", line),
			zap.String("order", sub.OrderCode),
			zap.Error(err))
	}
	return nil, fmt.Errorf("写入生产记录失败: %w", lastErr)
}
