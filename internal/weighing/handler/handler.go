package handler

import (
	"github.com/zhenghe-fab/linescale/internal/weighing/service"
	"go.uber.org/zap"
)

// Handlers 称重主机HTTP处理器集合
type Handlers struct {
	Scale   *ScaleHandler
	Order   *OrderHandler
	Product *ProductHandler
	Monitor *MonitorHandler
	Report  *ReportHandler
}

func NewHandlers(services *service.Services, logger *zap.Logger) *Handlers {
	return &Handlers{
		Scale:   NewScaleHandler(services.Ingest, services.Dispatch, logger),
		Order:   NewOrderHandler(services.Scheduling),
		Product: NewProductHandler(services.Catalog),
		Monitor: NewMonitorHandler(services.Sync),
		Report:  NewReportHandler(services.Report, logger),
	}
}
