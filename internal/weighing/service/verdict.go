package service

import (
	"regexp"
	"strconv"
)

// 判定分级
const (
	ClassPass     = "PASS"
	ClassFailLow  = "FAIL_LOW"
	ClassFailHigh = "FAIL_HIGH"
)

// NGMinWeight NG记录的最小秤上重量：低于此值视为空秤，不允许记NG
const NGMinWeight = 0.05

// Classify 按容差带判定实测重，上下限均含边界
func Classify(weight, min, max float64) string {
	if weight < min {
		return ClassFailLow
	}
	if weight > max {
		return ClassFailHigh
	}
	return ClassPass
}

// NGEligible 秤上有实物才允许记NG。与 Classify 相互独立：空秤读数既不合格
// 也不允许记NG，两种记录动作都不放行。
func NGEligible(weight float64) bool {
	return weight > NGMinWeight
}

// 磅秤输出里的第一段数字，例如 "ST,GS,+  12.5kg" 取 12.5
var weightPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// ExtractWeight 从上游任意格式的重量字串里抽出第一段十进制数字。
// 没有数字时回退 0.0，宁可记一笔不完美的数据也不丢事件。
func ExtractWeight(raw string) float64 {
	match := weightPattern.FindString(raw)
	if match == "" {
		return 0.0
	}
	w, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0.0
	}
	return w
}
