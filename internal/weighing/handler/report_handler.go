package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zhenghe-fab/linescale/internal/weighing/service"
)

type ReportHandler struct {
	svc    *service.ReportService
	logger *zap.Logger
}

func NewReportHandler(svc *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

// Export GET /reports/export 导出生产日报
func (h *ReportHandler) Export(c *gin.Context) {
	line := c.Query("line")
	f, filename, err := h.svc.Export(line)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": "导出失败: " + err.Error()})
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.QueryEscape(filename)))
	// 响应头已提交,写入失败只能记日志
	if err := f.Write(c.Writer); err != nil {
		h.logger.Warn("报表写入响应失败", zap.String("filename", filename), zap.Error(err))
	}
}

// Archive POST /reports/archive 归档日报到对象存储
func (h *ReportHandler) Archive(c *gin.Context) {
	line := c.Query("line")
	object, err := h.svc.Archive(c.Request.Context(), line)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": "归档失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"object": object}})
}
