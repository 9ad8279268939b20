package sim

import "math"

const (
	hypeDecay        = 0.05
	viralityDecay    = 0.03
	viralUserGrowth  = 0.12
	runwayDays       = 7
	severeLossFactor = 1.5
)

// RevenuePerUser is linear in quality: $0.20 at 0, $0.60 at 100.
func RevenuePerUser(quality float64) float64 {
	return 0.20 + (clampPercent(quality)/100)*0.40
}

func DailyRevenue(users int, quality, skillMultiplier, loanMultiplier float64) float64 {
	if skillMultiplier <= 0 {
		skillMultiplier = 1
	}
	if loanMultiplier <= 0 {
		loanMultiplier = 1
	}
	return float64(users) * RevenuePerUser(quality) * skillMultiplier * loanMultiplier
}

func Retention(quality float64, d DifficultyConfig) float64 {
	return clampFloat(0.50, 0.98, 0.70+quality/100*0.25+d.RetentionBonus)
}

func Churn(quality float64, d DifficultyConfig) float64 {
	return math.Max(0, 1-Retention(quality, d)+d.ChurnPenalty)
}

// DailyUserLoss never takes the base below MinUsers.
func DailyUserLoss(users int, churn float64) int {
	loss := int(math.Floor(float64(users) * churn))
	if users-loss < MinUsers {
		loss = users - MinUsers
	}
	if loss < 0 {
		return 0
	}
	return loss
}

func HypeRetentionBonus(hype float64) float64 {
	return (clampPercent(hype) / 100) * 0.05
}

func DecayHype(hype float64) float64 {
	return clampPercent(hype * (1 - hypeDecay))
}

func DecayVirality(v float64) float64 {
	return clampPercent(v * (1 - viralityDecay))
}

func ViralThreshold(marketingHypeBonus float64) float64 {
	return math.Max(20, 30-marketingHypeBonus*10)
}

type ViralResult struct {
	Triggered bool    `json:"triggered"`
	NewUsers  int     `json:"new_users"`
	HypeGain  float64 `json:"hype_gain"`
}

// ViralGrowth rolls once for a viral spike when hype clears the threshold.
func ViralGrowth(rng Rand, users int, hype, viralityBonus, hypeBonus float64) ViralResult {
	if hype < ViralThreshold(hypeBonus) {
		return ViralResult{}
	}
	chance := (hype / 100) * (1 + viralityBonus + hypeBonus)
	if rng.Float64() >= chance {
		return ViralResult{}
	}
	growth := (hype / 50) * (1 + hypeBonus)
	return ViralResult{
		Triggered: true,
		NewUsers:  int(math.Floor(float64(users) * viralUserGrowth * growth)),
		HypeGain:  math.Min(10, growth*2*(1+hypeBonus)),
	}
}

// ViralityFromStats recomputes the virality stat after a tick's growth.
func ViralityFromStats(current, hype float64, users, previousUsers int) float64 {
	v := current
	if hype > 50 {
		v += (hype - 50) / 50 * 0.5
	}
	if previousUsers > 0 && users > previousUsers {
		growthPct := float64(users-previousUsers) / float64(previousUsers) * 100
		v += math.Min(growthPct*0.1, 2)
	}
	if users > 1000 {
		v += math.Min(float64(users-1000)/10000, 1) * 0.3
	}
	return DecayVirality(v)
}

func DailyBurn(users int, d DifficultyConfig, m Multipliers) float64 {
	reduction := clampFloat(0.1, 1, 1-m.CostReduction-m.BurnReduction)
	mult := d.BurnMultiplier
	if mult <= 0 {
		mult = 1
	}
	return (100 + float64(users)*0.08) * mult * reduction
}

type BankruptcyReason string

const (
	BankruptNone       BankruptcyReason = ""
	BankruptUsers      BankruptcyReason = "user_base_collapsed"
	BankruptRunway     BankruptcyReason = "runway_exhausted"
	BankruptSevereLoss BankruptcyReason = "severe_loss"
)

func CheckBankruptcy(c Company, burn float64, d DifficultyConfig) BankruptcyReason {
	if c.Users < MinUsers {
		return BankruptUsers
	}
	if c.Cash >= 0 {
		return BankruptNone
	}
	severe := c.Cash <= -severeLossFactor*d.InitialCash
	runwayGone := math.Abs(c.Cash) >= runwayDays*burn
	if severe {
		return BankruptSevereLoss
	}
	if c.LifelineUsed {
		if runwayGone && c.Cash < -d.InitialCash {
			return BankruptRunway
		}
		return BankruptNone
	}
	if runwayGone {
		return BankruptRunway
	}
	return BankruptNone
}
