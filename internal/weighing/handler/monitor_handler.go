package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhenghe-fab/linescale/internal/weighing/service"
)

type MonitorHandler struct {
	sync *service.SyncService
}

func NewMonitorHandler(sync *service.SyncService) *MonitorHandler {
	return &MonitorHandler{sync: sync}
}

// Snapshot GET /monitor/snapshot 看板数据
// 渲染前先做一次同步，保证看板与库内状态一致
func (h *MonitorHandler) Snapshot(c *gin.Context) {
	h.sync.Refresh()
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": h.sync.Snapshot()})
}
