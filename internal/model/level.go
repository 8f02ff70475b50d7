package model

import "math"

// Level 等级档位，Threshold 为达到该等级所需的累计积分
type Level struct {
	Name      string `json:"name"`
	Threshold int64  `json:"threshold"`
}

// Levels 按阈值升序排列，第一档阈值必须为 0
var Levels = []Level{
	{Name: "Beginner", Threshold: 0},
	{Name: "Active", Threshold: 500},
	{Name: "Premium", Threshold: 2000},
	{Name: "Elite", Threshold: 5000},
}

// LevelProgress 等级进度
type LevelProgress struct {
	Current            Level   `json:"current"`
	Next               *Level  `json:"next,omitempty"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

func (p LevelProgress) MaxLevel() bool {
	return p.Next == nil
}

func levelIndex(totalEarned int64) int {
	idx := 0
	for i, l := range Levels {
		if totalEarned >= l.Threshold {
			idx = i
		}
	}
	return idx
}

// LevelFor 返回阈值 <= totalEarned 的最高等级
func LevelFor(totalEarned int64) Level {
	return Levels[levelIndex(totalEarned)]
}

// ProgressFor 计算当前等级与下一等级的进度，最高等级进度固定为 100
func ProgressFor(totalEarned int64) LevelProgress {
	idx := levelIndex(totalEarned)
	current := Levels[idx]
	if idx == len(Levels)-1 {
		return LevelProgress{Current: current, ProgressPercentage: 100}
	}

	next := Levels[idx+1]
	// 低于最低档时按 0 计算
	base := current.Threshold
	if totalEarned < base {
		totalEarned = base
	}
	pct := float64(totalEarned-base) / float64(next.Threshold-base) * 100
	pct = math.Max(0, math.Min(100, pct))

	return LevelProgress{
		Current:            current,
		Next:               &next,
		ProgressPercentage: math.Round(pct*100) / 100,
	}
}

// ProgressPercentage 进度百分比，取值 [0, 100]
func ProgressPercentage(totalEarned int64) float64 {
	return ProgressFor(totalEarned).ProgressPercentage
}
