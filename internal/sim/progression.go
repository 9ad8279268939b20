package sim

import "math"

// xpThresholds[i] is the XP required to reach level i+1.
var xpThresholds = [MaxLevel]int{
	0, 100, 250, 450, 700, 1000, 1350, 1750, 2200, 2700,
	3250, 3850, 4500, 5200, 5950, 6750, 7600, 8500, 9450, 10450,
	11500, 12600, 13750, 14950, 16200, 17500, 18850, 20250, 21700, 23200,
	24750, 26350, 28000, 29700, 31450, 33250, 35100, 37000, 38950, 40950,
	43000, 45100, 47250, 49450, 51700, 54000, 56350, 58750, 61200, 63700,
}

func CalculateLevel(xp int) int {
	level := 1
	for i, need := range xpThresholds {
		if xp >= need {
			level = i + 1
		}
	}
	return level
}

func XPForLevel(level int) int {
	if level < 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return xpThresholds[level-1]
}

// SkillPointsForLevel is the reward for reaching level.
func SkillPointsForLevel(level int) int {
	switch {
	case level <= 1 || level > MaxLevel:
		return 0
	case level == MaxLevel:
		return 3
	case level%10 == 0:
		return 2
	default:
		return 1
	}
}

func TotalSkillPointsForLevel(level int) int {
	total := 0
	for l := 2; l <= level && l <= MaxLevel; l++ {
		total += SkillPointsForLevel(l)
	}
	return total
}

type LevelProgress struct {
	Level       int     `json:"level"`
	XP          int     `json:"xp"`
	CurrentBase int     `json:"current_base"`
	NextAt      int     `json:"next_at"`
	Percent     float64 `json:"percent"`
	MaxedOut    bool    `json:"maxed_out"`
}

func ProgressFor(xp int) LevelProgress {
	level := CalculateLevel(xp)
	p := LevelProgress{Level: level, XP: xp, CurrentBase: XPForLevel(level)}
	if level >= MaxLevel {
		p.NextAt = p.CurrentBase
		p.Percent = 100
		p.MaxedOut = true
		return p
	}
	p.NextAt = XPForLevel(level + 1)
	span := p.NextAt - p.CurrentBase
	p.Percent = math.Floor(float64(xp-p.CurrentBase) / float64(span) * 100)
	return p
}

type LevelInfo struct {
	Level     int `json:"level"`
	Earned    int `json:"earned"`
	Available int `json:"available"`
}

// RecalculateLevelAndSkillPoints derives level and point totals from xp and spending alone.
func RecalculateLevelAndSkillPoints(c Company) LevelInfo {
	level := CalculateLevel(c.XP)
	earned := TotalSkillPointsForLevel(level) + c.BonusSkillPoints
	available := earned - c.SkillPointsSpent
	if available < 0 {
		available = 0
	}
	return LevelInfo{Level: level, Earned: earned, Available: available}
}

type LevelUp struct {
	OldLevel     int `json:"old_level"`
	NewLevel     int `json:"new_level"`
	PointsGained int `json:"points_gained"`
}

// syncProgression is the single place level and available points are written back.
func syncProgression(c *Company) *LevelUp {
	old := c.Level
	info := RecalculateLevelAndSkillPoints(*c)
	c.Level = info.Level
	c.SkillPoints = info.Available
	if info.Level <= old {
		return nil
	}
	return &LevelUp{
		OldLevel:     old,
		NewLevel:     info.Level,
		PointsGained: TotalSkillPointsForLevel(info.Level) - TotalSkillPointsForLevel(old),
	}
}

// GrantXP adds floor(amount*multiplier) XP. Non-positive amounts are ignored.
func GrantXP(c Company, amount int, multiplier float64) (Company, *LevelUp) {
	c = c.Clone()
	up := grantXP(&c, amount, multiplier)
	return c, up
}

func grantXP(c *Company, amount int, multiplier float64) *LevelUp {
	if multiplier <= 0 {
		multiplier = 1
	}
	if amount > 0 {
		c.XP += int(math.Floor(float64(amount) * multiplier))
	}
	return syncProgression(c)
}

// deductXP is used only by loan sacrifices and boss specials.
func deductXP(c *Company, amount int) {
	if amount <= 0 {
		return
	}
	c.XP -= amount
	if c.XP < 0 {
		c.XP = 0
	}
	syncProgression(c)
}

// GrantSkill raises a skill for free. Spending is untouched.
func GrantSkill(c Company, skillID string, levels int) Company {
	c = c.Clone()
	grantSkill(&c, skillID, levels)
	return c
}

func grantSkill(c *Company, skillID string, levels int) {
	if levels <= 0 || skillID == "" {
		return
	}
	if c.Skills == nil {
		c.Skills = map[string]int{}
	}
	c.Skills[skillID] += levels
}
