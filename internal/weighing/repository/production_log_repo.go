package repository

import (
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"gorm.io/gorm"
)

type ProductionLogRepository struct {
	db *gorm.DB
}

func NewProductionLogRepository(db *gorm.DB) *ProductionLogRepository {
	return &ProductionLogRepository{db: db}
}

func (r *ProductionLogRepository) Create(log *entity.ProductionLog) error {
	return r.db.Create(log).Error
}

func (r *ProductionLogRepository) BatchCreate(logs []entity.ProductionLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Create(&logs).Error
}

// ListNewestFirst 按插入顺序倒序取全部日志，limit <= 0 时不限条数。
func (r *ProductionLogRepository) ListNewestFirst(limit int) ([]entity.ProductionLog, error) {
	query := r.db.Model(&entity.ProductionLog{}).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var logs []entity.ProductionLog
	err := query.Find(&logs).Error
	return logs, err
}

func (r *ProductionLogRepository) ListByLine(line string, limit int) ([]entity.ProductionLog, error) {
	query := r.db.Where("line = ?", line).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var logs []entity.ProductionLog
	err := query.Find(&logs).Error
	return logs, err
}

// LatestByLine 取产线最近一条日志（按自增主键，不按客户端时间戳）。
func LatestByLine(tx *gorm.DB, line string) (*entity.ProductionLog, error) {
	var log entity.ProductionLog
	err := tx.Where("line = ?", line).Order("id DESC").First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *ProductionLogRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.ProductionLog{}).Count(&total).Error
	return total, err
}

// DB 返回底层db用于事务
func (r *ProductionLogRepository) DB() *gorm.DB {
	return r.db
}
