package service

import (
	"errors"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/zhenghe-fab/linescale/internal/config"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("工单不存在")
	ErrNothingToUndo = errors.New("该产线没有可撤销的记录")
)

// Services 业务服务集合
type Services struct {
	Catalog    *CatalogService
	Dispatch   *DispatchService
	Ingest     *IngestService
	Scheduling *SchedulingService
	Sync       *SyncService
	Report     *ReportService
	Mirror     *Mirror
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, mc *minio.Client, cfg *config.Config, logger *zap.Logger) *Services {
	mirror := NewMirror(cfg.Weighing.MirrorDir, logger)
	dispatch := NewDispatchService(repos.WorkOrder, rdb, cfg.Weighing.DispatchCacheTTL, logger)
	return &Services{
		Catalog:    NewCatalogService(repos.Product, logger),
		Dispatch:   dispatch,
		Ingest:     NewIngestService(db, mirror, dispatch, cfg.Weighing.Lines, logger),
		Scheduling: NewSchedulingService(repos.WorkOrder, repos.Product, db, dispatch, logger),
		Sync:       NewSyncService(repos.WorkOrder, repos.ProductionLog, cfg.Weighing.SyncInterval, logger),
		Report:     NewReportService(repos.ProductionLog, mc, cfg.MinIO.Bucket, logger),
		Mirror:     mirror,
	}
}
