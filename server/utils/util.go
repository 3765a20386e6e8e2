package utils

import "math"

// CentsToAmount 分转两位小数金额
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// AmountToCents 两位小数金额转分
func AmountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
