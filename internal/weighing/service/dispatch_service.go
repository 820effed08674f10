package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
)

// CurrentOrder 派单结果：当前工单与其容差带。产线闲置时整体为 nil。
type CurrentOrder struct {
	OrderCode    string  `json:"order_id"`
	ProductID    string  `json:"product_id"`
	TargetWeight float64 `json:"target_weight"`
	MinWeight    float64 `json:"min_weight"`
	MaxWeight    float64 `json:"max_weight"`
}

// DispatchService 派单解析。终端在每件产品前都会轮询一次当前工单，
// 结果用短TTL缓存顶在数据库前面，缓存不可用时直接落库。
type DispatchService struct {
	woRepo   *repository.WorkOrderRepository
	rdb      *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewDispatchService(woRepo *repository.WorkOrderRepository, rdb *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *DispatchService {
	return &DispatchService{woRepo: woRepo, rdb: rdb, cacheTTL: cacheTTL, logger: logger}
}

const dispatchCacheIdle = "idle"

func dispatchCacheKey(line string) string {
	return "dispatch:" + line
}

// Resolve 选出产线当前工单并联出容差带。产品缺档时给兜底容差，
// 保证记录通道在档案损坏时照常可用。
func (s *DispatchService) Resolve(ctx context.Context, line string) (*CurrentOrder, error) {
	if cached, ok := s.fromCache(ctx, line); ok {
		return cached, nil
	}

	row, err := s.woRepo.ResolveCurrent(line)
	if err != nil {
		return nil, err
	}
	if row == nil {
		s.toCache(ctx, line, nil)
		return nil, nil
	}

	cur := &CurrentOrder{
		OrderCode:    row.Code,
		ProductID:    row.ProductID,
		TargetWeight: entity.FallbackTargetWeight,
		MinWeight:    entity.FallbackMinWeight,
		MaxWeight:    entity.FallbackMaxWeight,
	}
	if row.TargetWeight != nil {
		cur.TargetWeight = *row.TargetWeight
	}
	if row.MinWeight != nil {
		cur.MinWeight = *row.MinWeight
	}
	if row.MaxWeight != nil {
		cur.MaxWeight = *row.MaxWeight
	}

	s.toCache(ctx, line, cur)
	return cur, nil
}

// Invalidate 任何可能改变派单结果的写路径之后都要调用
func (s *DispatchService) Invalidate(ctx context.Context, line string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, dispatchCacheKey(line)).Err(); err != nil {
		s.logger.Warn("派单缓存失效失败", zap.String("line", line), zap.Error(err))
	}
}

func (s *DispatchService) fromCache(ctx context.Context, line string) (*CurrentOrder, bool) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	val, err := s.rdb.Get(ctx, dispatchCacheKey(line)).Result()
	if err != nil {
		return nil, false
	}
	if val == dispatchCacheIdle {
		return nil, true
	}
	var cur CurrentOrder
	if err := json.Unmarshal([]byte(val), &cur); err != nil {
		return nil, false
	}
	return &cur, true
}

func (s *DispatchService) toCache(ctx context.Context, line string, cur *CurrentOrder) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}
	val := dispatchCacheIdle
	if cur != nil {
		data, err := json.Marshal(cur)
		if err != nil {
			return
		}
		val = string(data)
	}
	if err := s.rdb.Set(ctx, dispatchCacheKey(line), val, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("派单缓存写入失败", zap.String("line", line), zap.Error(err))
	}
}
