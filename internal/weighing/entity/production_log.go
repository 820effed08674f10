package entity

import (
	"time"
)

// 判定结果
const (
	VerdictPass = "PASS"
	VerdictNG   = "NG"
)

// ProductionLog 称重事件日志。自增主键定义插入顺序，撤销按插入顺序取
// 该产线最近一条，不信任客户端时间戳。正常运行下只追加，删除仅发生在
// 撤销补偿动作中。
type ProductionLog struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null;index"`
	Line       string    `json:"line" gorm:"size:32;not null;index"`
	OrderCode  string    `json:"order_code" gorm:"size:50;not null;index"`
	ProductID  string    `json:"product_id" gorm:"size:64"`
	Weight     float64   `json:"weight" gorm:"type:decimal(10,3);not null"`
	Verdict    string    `json:"verdict" gorm:"size:8;not null"`
	NGReason   string    `json:"ng_reason" gorm:"size:128"`
}

func (ProductionLog) TableName() string {
	return "production_logs"
}
