package service

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"github.com/zhenghe-fab/linescale/internal/weighing/repository"
	"go.uber.org/zap"
)

var reportHeaders = []string{"時間", "產線", "工單號碼", "產品ID", "實測重(kg)", "判定結果", "NG原因"}

// ReportService 生产记录报表：导出xlsx供下载，可选归档到对象存储。
type ReportService struct {
	logRepo *repository.ProductionLogRepository
	mc      *minio.Client
	bucket  string
	logger  *zap.Logger
}

func NewReportService(logRepo *repository.ProductionLogRepository, mc *minio.Client, bucket string, logger *zap.Logger) *ReportService {
	return &ReportService{logRepo: logRepo, mc: mc, bucket: bucket, logger: logger}
}

// Export 生成生产日报xlsx。line 为空时导出全部产线。
func (s *ReportService) Export(line string) (*excelize.File, string, error) {
	var logs []entity.ProductionLog
	var err error
	if line == "" {
		logs, err = s.logRepo.ListNewestFirst(0)
	} else {
		logs, err = s.logRepo.ListByLine(line, 0)
	}
	if err != nil {
		return nil, "", fmt.Errorf("读取生产记录失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "生产记录"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range reportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, l := range logs {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), l.RecordedAt.Format(mirrorTimeLayout))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), l.Line)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), l.OrderCode)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), l.ProductID)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), l.Weight)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), l.Verdict)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), l.NGReason)
	}

	name := fmt.Sprintf("生产日报_%s.xlsx", time.Now().Format("20060102"))
	if line != "" {
		name = fmt.Sprintf("生产日报_%s_%s.xlsx", line, time.Now().Format("20060102"))
	}
	return f, name, nil
}

// Archive 把报表上传到对象存储，返回对象名。未配置对象存储时报错。
func (s *ReportService) Archive(ctx context.Context, line string) (string, error) {
	if s.mc == nil {
		return "", fmt.Errorf("对象存储未配置")
	}
	f, name, err := s.Export(line)
	if err != nil {
		return "", err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("序列化报表失败: %w", err)
	}
	objectName := fmt.Sprintf("reports/%s/%s", time.Now().Format("2006/01"), name)
	_, err = s.mc.PutObject(ctx, s.bucket, objectName, buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("上传报表失败: %w", err)
	}
	s.logger.Info("报表已归档", zap.String("object", objectName))
	return objectName, nil
}
