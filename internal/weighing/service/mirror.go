package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zhenghe-fab/linescale/internal/weighing/entity"
	"go.uber.org/zap"
)

const mirrorTimeLayout = "2006-01-02 15:04:05"

// utf-8-sig：镜像文件由现场用 Excel 直接打开，带 BOM 才不会乱码
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var mirrorHeader = []string{"時間", "產線", "工單號碼", "產品ID", "實測重", "判定結果", "NG原因"}

// Mirror 次级镜像：每条产线一个CSV外加一个汇总CSV，逐笔开档-追加-关档。
// 镜像永远不是权威数据，只在权威库完全为空时作为最后手段回灌。
type Mirror struct {
	dir    string
	logger *zap.Logger
}

func NewMirror(dir string, logger *zap.Logger) *Mirror {
	return &Mirror{dir: dir, logger: logger}
}

func (m *Mirror) linePath(line string) string {
	return filepath.Join(m.dir, fmt.Sprintf("db_logs_%s.csv", line))
}

func (m *Mirror) allPath() string {
	return filepath.Join(m.dir, "db_logs_All.csv")
}

// Append 把一笔称重事件追加到产线镜像与汇总镜像。失败只记日志，
// 绝不向主路径上抛。
func (m *Mirror) Append(e *entity.ProductionLog) {
	row := []string{
		e.RecordedAt.Format(mirrorTimeLayout),
		e.Line,
		e.OrderCode,
		e.ProductID,
		strconv.FormatFloat(e.Weight, 'f', 3, 64),
		e.Verdict,
		e.NGReason,
	}
	for _, path := range []string{m.linePath(e.Line), m.allPath()} {
		if err := appendCSVRow(path, row); err != nil {
			m.logger.Warn("镜像CSV写入失败", zap.String("path", path), zap.Error(err))
		}
	}
}

func appendCSVRow(path string, row []string) error {
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if newFile {
		if _, err := f.Write(utf8BOM); err != nil {
			return err
		}
	}
	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(mirrorHeader); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// LoadLogs 从汇总镜像回读事件，仅用于权威库为空时的开机回灌。
// 解析不了的行直接跳过，镜像本来就是尽力而为的副本。
func (m *Mirror) LoadLogs() ([]entity.ProductionLog, error) {
	f, err := os.Open(m.allPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var logs []entity.ProductionLog
	lineNo := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lineNo++
		if lineNo == 1 || len(record) < 7 {
			continue
		}
		ts, err := time.ParseInLocation(mirrorTimeLayout, record[0], time.Local)
		if err != nil {
			continue
		}
		weight, _ := strconv.ParseFloat(record[4], 64)
		logs = append(logs, entity.ProductionLog{
			RecordedAt: ts,
			Line:       record[1],
			OrderCode:  record[2],
			ProductID:  record[3],
			Weight:     weight,
			Verdict:    record[5],
			NGReason:   record[6],
		})
	}
	return logs, nil
}

// stripBOM 跳过文件开头的 UTF-8 BOM
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == utf8BOM[0] && buf[1] == utf8BOM[1] && buf[2] == utf8BOM[2] {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}
