package service

import (
	"math"
	"time"
)

// 倍数曲线常量: multiplier = 1.00 + growthRate * seconds^exponent
const (
	MultiplierBase       = 1.00
	MultiplierGrowthRate = 0.08
	MultiplierExponent   = 1.3
)

// Multiplier 根据飞行时长计算当前倍数,两位小数
// 纯函数:同一时刻所有观察者计算结果一致,与消息到达顺序无关
func Multiplier(elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	multiplier := MultiplierBase + MultiplierGrowthRate*math.Pow(seconds, MultiplierExponent)
	return math.Max(MultiplierBase, Round2(multiplier))
}

// GenerateCrashPoint 开出本局崩盘点,每局仅调用一次
// 单次均匀抽样r落入累计概率区间,各区间互斥且覆盖[0,1)
//
//	[0, 0.02)    -> 1.00 (瞬间崩盘)       2%
//	[0.02, 0.50) -> 1.01 ~ 1.99          48%
//	[0.50, 0.80) -> 2.00 ~ 5.00          30%
//	[0.80, 0.95) -> 5.00 ~ 15.00         15%
//	[0.95, 1.00) -> 15.00 ~ 30.00         5%
func GenerateCrashPoint(randFloat func() float64) float64 {
	r := randFloat()

	var crash float64
	switch {
	case r < 0.02:
		crash = 1.00
	case r < 0.50:
		crash = 1.01 + randFloat()*0.98
	case r < 0.80:
		crash = 2 + randFloat()*3
	case r < 0.95:
		crash = 5 + randFloat()*10
	default:
		crash = 15 + randFloat()*15
	}
	return math.Max(1.00, Round2(crash))
}

// Round2 保留两位小数
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
