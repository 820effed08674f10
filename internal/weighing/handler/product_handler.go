package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"github.com/zhenghe-fab/linescale/internal/weighing/service"
)

type ProductHandler struct {
	svc *service.CatalogService
}

func NewProductHandler(svc *service.CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List GET /products 档案查询
func (h *ProductHandler) List(c *gin.Context) {
	params := repository.ProductListParams{
		Customer:  c.Query("customer"),
		TempGrade: c.Query("temp_grade"),
		Variety:   c.Query("variety"),
		Keyword:   c.Query("keyword"),
	}
	products, err := h.svc.List(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": products, "total": len(products)}})
}

// Create POST /products 批量建档
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	products, err := h.svc.BatchCreate(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": products})
}

// Delete POST /products/delete 批量删除
func (h *ProductHandler) Delete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err := h.svc.Delete(req.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// Import POST /products/import 遗留CSV档案导入（UTF-8 或 Big5）
func (h *ProductHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "缺少上传文件"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	defer f.Close()

	result, err := h.svc.ImportCSV(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": result})
}

// Options GET /product-options 建档下拉选项
func (h *ProductHandler) Options(c *gin.Context) {
	densities := make([]int, 0, len(service.DensityBands))
	for d := range service.DensityBands {
		densities = append(densities, d)
	}
	sort.Ints(densities)
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{
		"temp_grades":            entity.TempGrades,
		"fixed_weight_varieties": entity.FixedWeightVarieties,
		"density_classes":        densities,
	}})
}
