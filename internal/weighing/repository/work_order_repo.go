package repository

import (
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"gorm.io/gorm"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

func (r *WorkOrderRepository) Create(wo *entity.WorkOrder) error {
	return r.db.Create(wo).Error
}

func (r *WorkOrderRepository) BatchCreate(wos []entity.WorkOrder) error {
	if len(wos) == 0 {
		return nil
	}
	return r.db.Create(&wos).Error
}

func (r *WorkOrderRepository) GetByID(id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.Where("id = ?", id).First(&wo).Error
	return &wo, err
}

func (r *WorkOrderRepository) GetByCode(code string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.Where("code = ?", code).First(&wo).Error
	return &wo, err
}

type WOListParams struct {
	Line       string
	Status     string
	ActiveOnly bool // 排除已完成/已取消
}

func (r *WorkOrderRepository) List(params WOListParams) ([]entity.WorkOrder, error) {
	query := r.db.Model(&entity.WorkOrder{})
	if params.Line != "" {
		query = query.Where("line = ?", params.Line)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ActiveOnly {
		query = query.Where("status NOT IN ?", []string{entity.WOStatusCompleted, entity.WOStatusCancelled})
	}
	var wos []entity.WorkOrder
	err := query.Order("line ASC, seq ASC, created_at ASC").Find(&wos).Error
	return wos, err
}

// DispatchRow 派单查询结果。产品容差列来自 LEFT JOIN，产品缺档时为 nil。
type DispatchRow struct {
	Code         string
	ProductID    string
	MinWeight    *float64
	TargetWeight *float64
	MaxWeight    *float64
}

// ResolveCurrent 选出产线当前工单：状态待产/生产中、未报满，排程顺序最小的
// 一张，同时联出产品容差带。无符合条件的工单时返回 nil。
func (r *WorkOrderRepository) ResolveCurrent(line string) (*DispatchRow, error) {
	var row DispatchRow
	tx := r.db.Raw(`
		SELECT w.code, w.product_id, p.min_weight, p.target_weight, p.max_weight
		FROM work_orders w
		LEFT JOIN products p ON w.product_id = p.id
		WHERE w.line = ?
		  AND w.status IN (?, ?)
		  AND w.completed_qty < w.planned_qty
		ORDER BY w.seq ASC
		LIMIT 1
	`, line, entity.WOStatusPending, entity.WOStatusInProgress).Scan(&row)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// IncrementCompleted 相对更新完成数并把待产工单转为生产中。绝不回写应用层
// 读到的快照值：多台终端并发提交同一工单时相对更新才不会丢数。
func IncrementCompleted(tx *gorm.DB, code string) error {
	return tx.Exec(`
		UPDATE work_orders
		SET completed_qty = completed_qty + 1,
		    status = CASE WHEN status = ? THEN ? ELSE status END,
		    updated_at = now()
		WHERE code = ? AND status <> ?
	`, entity.WOStatusPending, entity.WOStatusInProgress, code, entity.WOStatusCompleted).Error
}

// DecrementCompleted 撤销用的补偿回扣，下限为 0。
func DecrementCompleted(tx *gorm.DB, code string) error {
	return tx.Exec(`
		UPDATE work_orders
		SET completed_qty = GREATEST(completed_qty - 1, 0),
		    updated_at = now()
		WHERE code = ?
	`, code).Error
}

// RenumberLine 把产线全部工单的排程顺序稳定重排为 1..n。重复调用结果不变。
func (r *WorkOrderRepository) RenumberLine(line string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&entity.WorkOrder{}).
			Where("line = ?", line).
			Order("seq ASC, created_at ASC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		for i, id := range ids {
			if err := tx.Model(&entity.WorkOrder{}).
				Where("id = ?", id).
				Update("seq", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateSeq 只允许动本产线的工单：重排请求带错别条产线的id时静默忽略，
// 不能把别的产线排到一半。
func (r *WorkOrderRepository) UpdateSeq(line, id string, seq int) error {
	return r.db.Model(&entity.WorkOrder{}).
		Where("id = ? AND line = ?", id, line).
		Update("seq", seq).Error
}

func (r *WorkOrderRepository) UpdateStatus(code, status string) error {
	return r.db.Model(&entity.WorkOrder{}).Where("code = ?", code).Update("status", status).Error
}

func (r *WorkOrderRepository) DeleteByIDs(line string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("line = ? AND id IN ?", line, ids).Delete(&entity.WorkOrder{}).Error
}

func (r *WorkOrderRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.WorkOrder{}).Count(&total).Error
	return total, err
}

// DB 返回底层db用于事务
func (r *WorkOrderRepository) DB() *gorm.DB {
	return r.db
}
