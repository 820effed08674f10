package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zhenghe-fab/linescale/internal/weighing/service"
)

type OrderHandler struct {
	svc *service.SchedulingService
}

func NewOrderHandler(svc *service.SchedulingService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Schedule POST /lines/:line/orders 批量排程
func (h *OrderHandler) Schedule(c *gin.Context) {
	var req struct {
		Items []service.ScheduleItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	wos, err := h.svc.Schedule(c.Request.Context(), c.Param("line"), req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": wos})
}

// Queue GET /lines/:line/orders 产线队列
func (h *OrderHandler) Queue(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "true"))
	wos, err := h.svc.Queue(c.Param("line"), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": wos, "total": len(wos)}})
}

// Reorder POST /lines/:line/orders/reorder 调整排程顺序
func (h *OrderHandler) Reorder(c *gin.Context) {
	var req struct {
		Items []service.ReorderItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err := h.svc.Reorder(c.Request.Context(), c.Param("line"), req.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// Delete POST /lines/:line/orders/delete 批量移除工单
func (h *OrderHandler) Delete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("line"), req.IDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// Finish POST /orders/:code/finish 生产结束
func (h *OrderHandler) Finish(c *gin.Context) {
	if err := h.svc.Finish(c.Request.Context(), c.Param("code")); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "工单不存在"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// Cancel POST /orders/:code/cancel 取消工单
func (h *OrderHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("code")); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "工单不存在"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// Undo POST /lines/:line/undo 撤销产线最近一笔称重
func (h *OrderHandler) Undo(c *gin.Context) {
	result, err := h.svc.Undo(c.Request.Context(), c.Param("line"))
	if err != nil {
		if errors.Is(err, service.ErrNothingToUndo) {
			c.JSON(http.StatusOK, gin.H{"code": 10005, "message": "没有可撤销的记录"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": result})
}
