package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 新工单插入队尾时的临时排程值，随后由重排压成连续序号
const seqUnordered = 9999

// SchedulingService 排程与队列操作：批量下单、重排、删除、结单、取消、
// 撤销。所有结构性变更之后都重排产线序号。
type SchedulingService struct {
	woRepo      *repository.WorkOrderRepository
	productRepo *repository.ProductRepository
	db          *gorm.DB
	dispatch    *DispatchService
	logger      *zap.Logger
}

func NewSchedulingService(woRepo *repository.WorkOrderRepository, productRepo *repository.ProductRepository, db *gorm.DB, dispatch *DispatchService, logger *zap.Logger) *SchedulingService {
	return &SchedulingService{woRepo: woRepo, productRepo: productRepo, db: db, dispatch: dispatch, logger: logger}
}

type ScheduleItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// Schedule 从产品档案批量生成工单插入产线队尾，然后重排序号。
func (s *SchedulingService) Schedule(ctx context.Context, line string, items []ScheduleItem) ([]entity.WorkOrder, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("排程清单为空")
	}

	count, err := s.woRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("统计工单数失败: %w", err)
	}

	now := time.Now()
	wos := make([]entity.WorkOrder, 0, len(items))
	for i, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("产品不存在: %s", item.ProductID)
		}

		count++
		code := fmt.Sprintf("WO-%s-%04d", now.Format("0102"), count)
		wos = append(wos, entity.WorkOrder{
			Line:         line,
			Seq:          seqUnordered + i,
			Code:         code,
			ProductID:    product.ID,
			Display:      displayString(product),
			Variety:      product.Variety,
			Density:      product.Density,
			TargetWeight: product.TargetWeight,
			PlannedQty:   item.Quantity,
			Status:       entity.WOStatusPending,
		})
	}

	if err := s.woRepo.BatchCreate(wos); err != nil {
		return nil, fmt.Errorf("创建工单失败: %w", err)
	}
	if err := s.Normalize(ctx, line); err != nil {
		return nil, err
	}
	return wos, nil
}

// displayString 队列里的一行摘要：[客户] | 温度 | 品种 | 规格 | 准重
func displayString(p *entity.Product) string {
	parts := []string{
		fmt.Sprintf("[%s]", p.Customer),
		p.TempGrade,
		p.Variety,
		fmt.Sprintf("%gx%gx%g", p.Length, p.Width, p.Height),
		fmt.Sprintf("%gkg", p.TargetWeight),
	}
	if p.Note1 != "" {
		parts = append(parts, p.Note1)
	}
	return strings.Join(parts, " | ")
}

// Normalize 把产线序号稳定重排为 1..n 并使派单缓存失效
func (s *SchedulingService) Normalize(ctx context.Context, line string) error {
	if err := s.woRepo.RenumberLine(line); err != nil {
		return fmt.Errorf("重排产线序号失败: %w", err)
	}
	s.dispatch.Invalidate(ctx, line)
	return nil
}

type ReorderItem struct {
	ID  string `json:"id" binding:"required"`
	Seq int    `json:"seq" binding:"required,gt=0"`
}

// Reorder 批量更新排程顺序后重排。只作用于本产线的工单。
func (s *SchedulingService) Reorder(ctx context.Context, line string, items []ReorderItem) error {
	for _, item := range items {
		if err := s.woRepo.UpdateSeq(line, item.ID, item.Seq); err != nil {
			return fmt.Errorf("更新排程顺序失败: %w", err)
		}
	}
	return s.Normalize(ctx, line)
}

// Delete 移除选中工单后重排。只作用于本产线的工单。
func (s *SchedulingService) Delete(ctx context.Context, line string, ids []string) error {
	if err := s.woRepo.DeleteByIDs(line, ids); err != nil {
		return fmt.Errorf("删除工单失败: %w", err)
	}
	return s.Normalize(ctx, line)
}

// Finish 结单。完成数追平计划数不会自动结单，只有这里的显式动作会把状态
// 置为已完成——派单资格只看 completed < planned，这一不对称是既定行为。
func (s *SchedulingService) Finish(ctx context.Context, code string) error {
	return s.transition(ctx, code, entity.WOStatusCompleted)
}

// Cancel 取消工单（下错单）
func (s *SchedulingService) Cancel(ctx context.Context, code string) error {
	return s.transition(ctx, code, entity.WOStatusCancelled)
}

func (s *SchedulingService) transition(ctx context.Context, code, status string) error {
	wo, err := s.woRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("查询工单失败: %w", err)
	}
	if err := s.woRepo.UpdateStatus(code, status); err != nil {
		return fmt.Errorf("更新工单状态失败: %w", err)
	}
	s.dispatch.Invalidate(ctx, wo.Line)
	return nil
}

// UndoResult 撤销结果
type UndoResult struct {
	Entry           entity.ProductionLog `json:"entry"`
	CounterAdjusted bool                 `json:"counter_adjusted"`
}

// Undo 撤销产线最近一笔称重：PASS 记录回扣对应工单完成数（下限0），
// 随后删除日志行。只动单笔最近记录，不是通用的多步历史回退。
func (s *SchedulingService) Undo(ctx context.Context, line string) (*UndoResult, error) {
	var result UndoResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		last, err := repository.LatestByLine(tx, line)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNothingToUndo
			}
			return err
		}
		if last.Verdict == entity.VerdictPass {
			if err := repository.DecrementCompleted(tx, last.OrderCode); err != nil {
				return err
			}
			result.CounterAdjusted = true
		}
		if err := tx.Delete(&entity.ProductionLog{}, last.ID).Error; err != nil {
			return err
		}
		result.Entry = *last
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNothingToUndo) {
			return nil, err
		}
		return nil, fmt.Errorf("撤销失败: %w", err)
	}
	s.dispatch.Invalidate(ctx, line)
	return &result, nil
}

// Queue 产线队列视图（所有未删除工单，含已完成/已取消供后台过滤）
func (s *SchedulingService) Queue(line string, activeOnly bool) ([]entity.WorkOrder, error) {
	return s.woRepo.List(repository.WOListParams{Line: line, ActiveOnly: activeOnly})
}
