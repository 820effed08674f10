package repository

import (
	"gorm.io/gorm"
)

// Repositories 数据访问层集合
type Repositories struct {
	Product       *ProductRepository
	WorkOrder     *WorkOrderRepository
	ProductionLog *ProductionLogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:       NewProductRepository(db),
		WorkOrder:     NewWorkOrderRepository(db),
		ProductionLog: NewProductionLogRepository(db),
	}
}
