package repository

import (
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *entity.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) BatchCreate(products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.Create(&products).Error
}

func (r *ProductRepository) GetByID(id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.Where("id = ?", id).First(&p).Error
	return &p, err
}

type ProductListParams struct {
	Customer  string
	TempGrade string
	Variety   string
	Keyword   string
}

func (r *ProductRepository) List(params ProductListParams) ([]entity.Product, error) {
	query := r.db.Model(&entity.Product{})
	if params.Customer != "" {
		query = query.Where("customer = ?", params.Customer)
	}
	if params.TempGrade != "" {
		query = query.Where("temp_grade = ?", params.TempGrade)
	}
	if params.Variety != "" {
		query = query.Where("variety = ?", params.Variety)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("id ILIKE ? OR note1 ILIKE ? OR note2 ILIKE ? OR note3 ILIKE ?", kw, kw, kw, kw)
	}
	var products []entity.Product
	err := query.Order("created_at ASC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) DeleteByIDs(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&entity.Product{}).Error
}

func (r *ProductRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.Product{}).Count(&total).Error
	return total, err
}
