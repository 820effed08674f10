package entity

import (
	"time"
)

// 温度等级选项
var TempGrades = []string{"1260", "1200", "1300", "1400", "1500", "BIOSTAR"}

// 固定包装重品种：不按密度推算重量带，直接使用固定包装重
var FixedWeightVarieties = []string{"BULK", "BUXD", "SB", "BIOSTAR"}

// 缺省容差带：产品档案缺失时派单接口返回的兜底值，保证记录通道始终可用
const (
	FallbackTargetWeight = 25.0
	FallbackMinWeight    = 0.0
	FallbackMaxWeight    = 999.0
)

// Product 产品规格档案
type Product struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	Customer     string    `json:"customer" gorm:"size:64;not null;index"`
	TempGrade    string    `json:"temp_grade" gorm:"size:16"`
	Variety      string    `json:"variety" gorm:"size:32;index"`
	Density      string    `json:"density" gorm:"size:16"` // 密度等级，固定包装重品种为 N/A
	Length       float64   `json:"length"`
	Width        float64   `json:"width"`
	Height       float64   `json:"height"`
	MinWeight    float64   `json:"min_weight" gorm:"type:decimal(10,3);not null"`
	TargetWeight float64   `json:"target_weight" gorm:"type:decimal(10,3);not null"`
	MaxWeight    float64   `json:"max_weight" gorm:"type:decimal(10,3);not null"`
	Note1        string    `json:"note1" gorm:"size:255"`
	Note2        string    `json:"note2" gorm:"size:255"`
	Note3        string    `json:"note3" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
