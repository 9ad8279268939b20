package sim

import "math"

// EvaluateGoal refreshes progress. A completed goal stays completed.
func EvaluateGoal(c Company, g Goal) Goal {
	var progress float64
	switch g.Type {
	case GoalReachUsers:
		progress = float64(c.Users)
	case GoalReachCash:
		progress = c.Cash
	case GoalReachQuality:
		progress = c.Quality
	case GoalReachHype:
		progress = c.Hype
	case GoalReachVirality:
		progress = c.Virality
	case GoalReachDailyRevenue:
		progress = roundCents(float64(c.Users) * RevenuePerUser(c.Quality))
	case GoalReachSkillLevel:
		progress = float64(c.TotalSkillLevels())
	case GoalSurviveDays:
		progress = float64(c.Day)
	}
	g.Progress = progress
	g.Completed = g.Completed || progress >= g.Target
	return g
}

func EvaluateAllGoals(c Company) []Goal {
	out := make([]Goal, len(c.Goals))
	for i, g := range c.Goals {
		out[i] = EvaluateGoal(c, g)
	}
	return out
}

// GoalProgressPercent is floored and capped at 100.
func GoalProgressPercent(g Goal) float64 {
	if g.Completed {
		return 100
	}
	if g.Target <= 0 {
		return 100
	}
	return math.Max(0, math.Min(100, math.Floor(g.Progress/g.Target*100)))
}
