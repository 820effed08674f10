package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zhenghe-fab/linescale/internal/weighing/service"
	"go.uber.org/zap"
)

// ScaleHandler 产线终端接口。终端固件只会检查连通性，应用层错误一律放在
// 响应体里用 200 返回，不走HTTP状态码。
type ScaleHandler struct {
	ingest   *service.IngestService
	dispatch *service.DispatchService
	logger   *zap.Logger
}

func NewScaleHandler(ingest *service.IngestService, dispatch *service.DispatchService, logger *zap.Logger) *ScaleHandler {
	return &ScaleHandler{ingest: ingest, dispatch: dispatch, logger: logger}
}

// ScaleUpload 终端上报格式。weight 兼容字串与数字两种写法。
type ScaleUpload struct {
	LineName  string `json:"line_name"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Weight    any    `json:"weight"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// Upload POST /upload 接收一次称重上报
func (h *ScaleHandler) Upload(c *gin.Context) {
	var req ScaleUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	rawWeight := ""
	if req.Weight != nil {
		rawWeight = fmt.Sprint(req.Weight)
	}

	result, err := h.ingest.Submit(c.Request.Context(), service.Submission{
		Line:      req.LineName,
		OrderCode: req.OrderID,
		ProductID: req.ProductID,
		RawWeight: rawWeight,
		Verdict:   req.Status,
		Reason:    req.Reason,
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "line": result.Line, "weight": result.Weight})
}

// CurrentOrder GET /current_order/:line 派单查询。产线闲置（或查询失败）时
// 返回全空字段，终端据此显示待机。
func (h *ScaleHandler) CurrentOrder(c *gin.Context) {
	line := c.Param("line")
	cur, err := h.dispatch.Resolve(c.Request.Context(), line)
	if err != nil {
		h.logger.Warn("派单查询失败", zap.String("line", line), zap.Error(err))
	}
	if err != nil || cur == nil {
		c.JSON(http.StatusOK, gin.H{"order_id": nil, "product_id": nil})
		return
	}
	c.JSON(http.StatusOK, cur)
}
