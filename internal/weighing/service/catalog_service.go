package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// DensityBand 密度等级对应的单位体积重量上下限 (kg/m³)
type DensityBand struct {
	Min float64
	Max float64
}

// 密度等级表：准重按标称密度推算，上下限按各等级的允差密度推算
var DensityBands = map[int]DensityBand{
	64:  {59.74, 85.00},
	80:  {74.03, 93.75},
	96:  {87.55, 115.00},
	104: {96.24, 121.88},
	112: {103.64, 131.25},
	120: {111.05, 140.63},
	128: {118.45, 150.00},
	136: {125.85, 159.38},
	144: {133.26, 168.75},
	160: {154.50, 175.50},
	192: {177.68, 220.00},
	256: {226.60, 312.00},
}

// CatalogService 产品档案：建档（按密度或固定包装重推算重量带）、查询、
// 删除、遗留CSV导入。
type CatalogService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewCatalogService(productRepo *repository.ProductRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{productRepo: productRepo, logger: logger}
}

// ProductSpec 一行规格输入
type ProductSpec struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Note1  string  `json:"note1"`
	Note2  string  `json:"note2"`
	Note3  string  `json:"note3"`
}

type BatchCreateRequest struct {
	Customer    string        `json:"customer" binding:"required"`
	TempGrade   string        `json:"temp_grade" binding:"required"`
	Variety     string        `json:"variety" binding:"required"`
	Density     int           `json:"density"`      // 常规品种的密度等级
	FixedWeight float64       `json:"fixed_weight"` // 固定包装重品种 (kg)
	Items       []ProductSpec `json:"items" binding:"required"`
}

func isFixedWeightVariety(variety string) bool {
	for _, v := range entity.FixedWeightVarieties {
		if v == variety {
			return true
		}
	}
	return false
}

// DeriveBand 由规格推算重量带。固定包装重品种：准重=包装重、上限加0.2kg；
// 常规品种：按体积与密度等级推算。推不出时三值皆0，由调用方决定是否入档。
func DeriveBand(variety string, density int, fixedWeight, length, width, height float64) (min, target, max float64) {
	if isFixedWeightVariety(variety) {
		return fixedWeight, fixedWeight, fixedWeight + 0.2
	}
	band, ok := DensityBands[density]
	if !ok || length <= 0 || width <= 0 || height <= 0 {
		return 0, 0, 0
	}
	vol := (length / 1000) * (width / 1000) * (height / 1000)
	target = roundTo(vol*float64(density), 3)
	min = roundTo(vol*band.Min, 1)
	max = roundTo(vol*band.Max, 1)
	return min, target, max
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}

// BatchCreate 批量建档。准重推不出来的行跳过，与手工录入时的空行一致。
func (s *CatalogService) BatchCreate(req BatchCreateRequest) ([]entity.Product, error) {
	density := "N/A"
	if !isFixedWeightVariety(req.Variety) {
		if _, ok := DensityBands[req.Density]; !ok {
			return nil, fmt.Errorf("未知密度等级: %d", req.Density)
		}
		density = strconv.Itoa(req.Density)
	}

	now := time.Now()
	var products []entity.Product
	for i, item := range req.Items {
		min, target, max := DeriveBand(req.Variety, req.Density, req.FixedWeight, item.Length, item.Width, item.Height)
		if target <= 0 {
			continue
		}
		products = append(products, entity.Product{
			ID:           fmt.Sprintf("%s-%s-%d-%s", req.Customer, req.Variety, i, now.Format("0405")),
			Customer:     req.Customer,
			TempGrade:    req.TempGrade,
			Variety:      req.Variety,
			Density:      density,
			Length:       item.Length,
			Width:        item.Width,
			Height:       item.Height,
			MinWeight:    min,
			TargetWeight: target,
			MaxWeight:    max,
			Note1:        item.Note1,
			Note2:        item.Note2,
			Note3:        item.Note3,
		})
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("没有可入档的规格行")
	}
	if err := s.productRepo.BatchCreate(products); err != nil {
		return nil, fmt.Errorf("写入产品档案失败: %w", err)
	}
	return products, nil
}

func (s *CatalogService) List(params repository.ProductListParams) ([]entity.Product, error) {
	return s.productRepo.List(params)
}

func (s *CatalogService) Delete(ids []string) error {
	// 被工单引用的产品也允许删：查不到档案时派单接口给兜底容差
	return s.productRepo.DeleteByIDs(ids)
}

// ImportResult 导入统计
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportCSV 导入遗留产品档案。先按 UTF-8 读，整体不是合法 UTF-8 时按
// Big5 (cp950) 重解。列序固定：產品ID,客戶名,溫度等級,品種,密度,長,寬,高,
// 下限,準重,上限,備註1,備註2,備註3。
func (s *CatalogService) ImportCSV(reader io.Reader) (*ImportResult, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取CSV失败: %w", err)
	}
	if !utf8.Valid(raw) {
		// Big5 → UTF-8
		raw, err = io.ReadAll(transform.NewReader(bytes.NewReader(raw), traditionalchinese.Big5.NewDecoder()))
		if err != nil {
			return nil, fmt.Errorf("Big5解码失败: %w", err)
		}
	}

	r := csv.NewReader(stripBOM(bytes.NewReader(raw)))
	r.FieldsPerRecord = -1

	result := &ImportResult{}
	var products []entity.Product
	lineNo := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析CSV失败: %w", err)
		}
		lineNo++
		// 第一行是表头
		if lineNo == 1 {
			continue
		}
		if len(record) < 11 || record[0] == "" {
			result.Skipped++
			continue
		}
		p := entity.Product{
			ID:           record[0],
			Customer:     record[1],
			TempGrade:    record[2],
			Variety:      record[3],
			Density:      record[4],
			Length:       parseFloatField(record[5]),
			Width:        parseFloatField(record[6]),
			Height:       parseFloatField(record[7]),
			MinWeight:    parseFloatField(record[8]),
			TargetWeight: parseFloatField(record[9]),
			MaxWeight:    parseFloatField(record[10]),
		}
		if len(record) > 11 {
			p.Note1 = record[11]
		}
		if len(record) > 12 {
			p.Note2 = record[12]
		}
		if len(record) > 13 {
			p.Note3 = record[13]
		}
		products = append(products, p)
		result.Imported++
	}
	if err := s.productRepo.BatchCreate(products); err != nil {
		return nil, fmt.Errorf("写入产品档案失败: %w", err)
	}
	return result, nil
}

func parseFloatField(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
