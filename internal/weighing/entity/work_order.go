package entity

import (
	"time"
)

// WorkOrderStatus 工单状态
const (
	WOStatusPending    = "PENDING"
	WOStatusInProgress = "IN_PROGRESS"
	WOStatusCompleted  = "COMPLETED"
	WOStatusCancelled  = "CANCELLED"
)

// WorkOrder 产线工单。Seq 在同一产线内连续且从 1 开始，由排程服务在每次
// 结构性变更后重排。CompletedQty 只允许数据库层的相对更新，允许超出
// PlannedQty（并发补报会冲量，界面上提示但不拒绝）。
type WorkOrder struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Line         string    `json:"line" gorm:"size:32;not null;index"`
	Seq          int       `json:"seq" gorm:"not null"`
	Code         string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ProductID    string    `json:"product_id" gorm:"size:64;index"`
	Display      string    `json:"display" gorm:"size:255"` // [客户] | 温度 | 品种 | 规格 | 准重
	Variety      string    `json:"variety" gorm:"size:32"`
	Density      string    `json:"density" gorm:"size:16"`
	TargetWeight float64   `json:"target_weight" gorm:"type:decimal(10,3)"`
	PlannedQty   int       `json:"planned_qty" gorm:"not null"`
	CompletedQty int       `json:"completed_qty" gorm:"not null;default:0"`
	Status       string    `json:"status" gorm:"size:20;not null;default:PENDING"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}
