package gamification

import (
	"math"
	"sort"
)

const (
	basePointsPerLevel = 100
	levelMultiplier    = 1.5
	// MaxLevel caps the progression curve.
	MaxLevel = 100
)

var levelTitles = []struct {
	level int
	title string
}{
	{1, "Beginner"},
	{5, "Student"},
	{10, "Dedicated"},
	{15, "Persistent"},
	{20, "Knowledgeable"},
	{25, "Expert"},
	{30, "Mentor"},
	{40, "Guru"},
	{50, "Master"},
	{75, "Legend"},
	{100, "Immortal"},
}

// levelThresholds[l] is the cumulative point total required to hold level l.
// levelThresholds[0] and [1] are 0: everyone starts at level 1.
var levelThresholds = computeLevelThresholds()

func computeLevelThresholds() []int {
	thresholds := make([]int, MaxLevel+1)
	total := 0
	for l := 1; l < MaxLevel; l++ {
		total += PointsForLevelUp(l)
		thresholds[l+1] = total
	}
	return thresholds
}

// PointsForLevelUp is the cost of advancing from the given level to the
// next: 100 points at level 1, growing 1.5x every ten levels.
func PointsForLevelUp(fromLevel int) int {
	if fromLevel < 1 {
		fromLevel = 1
	}
	exp := float64(fromLevel-1) / 10.0
	return int(math.Round(basePointsPerLevel * math.Pow(levelMultiplier, exp)))
}

// PointsRequiredForLevel is the cumulative total needed to hold a level.
func PointsRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelThresholds[level]
}

// LevelForPoints maps a point total to a level. Pure, deterministic and
// non-decreasing in the total.
func LevelForPoints(totalPoints int) int {
	if totalPoints <= 0 {
		return 1
	}
	// levelThresholds is sorted; find the highest level whose threshold is
	// within the total.
	idx := sort.Search(len(levelThresholds), func(i int) bool {
		return levelThresholds[i] > totalPoints
	})
	level := idx - 1
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return level
}

// LevelTitle returns the highest applicable title for a level.
func LevelTitle(level int) string {
	title := levelTitles[0].title
	for _, t := range levelTitles {
		if level >= t.level {
			title = t.title
		} else {
			break
		}
	}
	return title
}

// LevelInfo is the current-level breakdown shown to users.
type LevelInfo struct {
	CurrentLevel           int     `json:"current_level"`
	TotalPoints            int     `json:"total_points"`
	Title                  string  `json:"title"`
	PointsInCurrentLevel   int     `json:"points_in_current_level"`
	PointsNeededForNext    int     `json:"points_needed_for_next_level"`
	ProgressInCurrentLevel float64 `json:"progress_in_current_level"`
	NextLevel              int     `json:"next_level"`
	IsMaxLevel             bool    `json:"is_max_level"`
}

func ComputeLevelInfo(totalPoints int) LevelInfo {
	level := LevelForPoints(totalPoints)
	current := PointsRequiredForLevel(level)
	next := PointsRequiredForLevel(level + 1)

	info := LevelInfo{
		CurrentLevel:         level,
		TotalPoints:          totalPoints,
		Title:                LevelTitle(level),
		PointsInCurrentLevel: totalPoints - current,
		NextLevel:            level + 1,
		IsMaxLevel:           level >= MaxLevel,
	}
	if info.IsMaxLevel {
		info.NextLevel = MaxLevel
		info.ProgressInCurrentLevel = 100
		return info
	}
	info.PointsNeededForNext = next - totalPoints
	if next > current {
		info.ProgressInCurrentLevel = math.Round(float64(totalPoints-current)/float64(next-current)*1000) / 10
	}
	return info
}
