package sim

import (
	"math"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanPaid      LoanStatus = "paid"
	LoanDefaulted LoanStatus = "defaulted"
)

const (
	loanPeriodDays     = 30
	autoPayGraceDays   = 7
	defaultAfterDays   = 30
	punitiveAnomalyOdd = 0.30
)

type Sacrifice struct {
	XPPenaltyPercent      float64 `json:"xp_penalty_percent"`
	RevenueMultiplier     float64 `json:"revenue_multiplier,omitempty"`
	AnomalyChanceIncrease float64 `json:"anomaly_chance_increase,omitempty"`
}

type LoanOffer struct {
	Amount           float64   `json:"amount"`
	InterestRate     float64   `json:"interest_rate"`
	Duration         int       `json:"duration"`
	CredibilityScore float64   `json:"credibility_score"`
	Sacrifice        Sacrifice `json:"sacrifice"`
}

type Loan struct {
	ID               string     `json:"id"`
	CompanyID        string     `json:"company_id"`
	Amount           float64    `json:"amount"`
	InterestRate     float64    `json:"interest_rate"`
	Duration         int        `json:"duration"`
	StartDay         int        `json:"start_day"`
	DueDay           int        `json:"due_day"`
	PaidAmount       float64    `json:"paid_amount"`
	Status           LoanStatus `json:"status"`
	CredibilityScore float64    `json:"credibility_score"`
	Sacrifice        Sacrifice  `json:"sacrifice"`
}

// TotalOwed is principal plus flat interest.
func (l Loan) TotalOwed() float64 {
	return decimal.NewFromFloat(l.Amount).
		Mul(decimal.NewFromFloat(1 + l.InterestRate)).
		Round(2).InexactFloat64()
}

func (l Loan) Outstanding() float64 {
	out := decimal.NewFromFloat(l.TotalOwed()).Sub(decimal.NewFromFloat(l.PaidAmount))
	if out.IsNegative() {
		return 0
	}
	return out.Round(2).InexactFloat64()
}

func (l Loan) DaysOverdue(day int) int {
	if day <= l.DueDay {
		return 0
	}
	return day - l.DueDay
}

// MonthlyPayment amortizes the unpaid principal over the loan's 30-day periods.
func MonthlyPayment(l Loan) float64 {
	principal := l.Amount - l.PaidAmount
	if principal <= 0 {
		return 0
	}
	periods := l.Duration / loanPeriodDays
	if periods < 1 {
		periods = 1
	}
	r := l.InterestRate / 12
	var payment float64
	if r == 0 {
		payment = principal / float64(periods)
	} else {
		growth := math.Pow(1+r, float64(periods))
		payment = principal * r * growth / (growth - 1)
	}
	return roundCents(payment)
}

// CredibilityScore grades a company's fitness for credit on a 0-100 scale.
func CredibilityScore(c Company) float64 {
	score := 50.0 + float64(c.Day)*2
	switch {
	case c.Cash > 10000:
		score += 20
	case c.Cash > 5000:
		score += 10
	case c.Cash < 1000:
		score -= 20
	}
	switch {
	case c.Users > 1000:
		score += 15
	case c.Users > 500:
		score += 10
	case c.Users < 100:
		score -= 10
	}
	score += c.Quality / 10
	score += float64(c.XP) / 100
	score += float64(c.TotalSkillLevels()) * 2
	return clampFloat(0, 100, math.Round(score))
}

// GenerateLoanOffers always returns at least one offer.
func GenerateLoanOffers(score float64) []LoanOffer {
	offer := func(amount, rate float64, days int, xpPct, rev, anomaly float64) LoanOffer {
		return LoanOffer{
			Amount:           amount,
			InterestRate:     rate,
			Duration:         days,
			CredibilityScore: score,
			Sacrifice: Sacrifice{
				XPPenaltyPercent:      xpPct,
				RevenueMultiplier:     rev,
				AnomalyChanceIncrease: anomaly,
			},
		}
	}
	// Tiers stack: a stronger score keeps every weaker tier's offers too.
	var offers []LoanOffer
	if score >= 80 {
		offers = append(offers,
			offer(50000, 0.05, 30, 5, 0.95, 0),
			offer(30000, 0.04, 45, 3, 0.97, 0),
		)
	}
	if score >= 60 {
		offers = append(offers,
			offer(20000, 0.07, 30, 10, 0.90, 0.05),
			offer(15000, 0.06, 45, 8, 0.92, 0),
		)
	}
	if score >= 40 {
		offers = append(offers,
			offer(10000, 0.10, 30, 15, 0.85, 0.10),
			offer(7500, 0.09, 45, 12, 0.88, 0),
		)
	}
	if len(offers) == 0 {
		offers = append(offers, offer(5000, 0.15, 30, 20, 0.80, 0.15))
	}
	return offers
}

func hasActiveLoan(loans []Loan) bool {
	for _, l := range loans {
		if l.Status == LoanActive {
			return true
		}
	}
	return false
}

// AcceptLoan credits the cash and applies the sacrifice once.
func (e *Engine) AcceptLoan(c Company, offer LoanOffer, existing []Loan, loanID string) (Company, Loan, error) {
	if err := c.checkActive(); err != nil {
		return c, Loan{}, err
	}
	if offer.Amount <= 0 || offer.Duration <= 0 {
		return c, Loan{}, ErrInvalidAmount
	}
	if hasActiveLoan(existing) {
		return c, Loan{}, ErrLifelineActive
	}

	c = c.Clone()
	s := offer.Sacrifice
	if s.XPPenaltyPercent > 0 {
		deductXP(&c, int(math.Floor(float64(c.XP)*s.XPPenaltyPercent/100)))
	}
	if (s.RevenueMultiplier > 0 && s.RevenueMultiplier < 1) || s.AnomalyChanceIncrease > 0 {
		c.LoanEffectDays = offer.Duration
		c.LoanRevenueMultiplier = 1
		if s.RevenueMultiplier > 0 {
			c.LoanRevenueMultiplier = s.RevenueMultiplier
		}
		c.LoanAnomalyBonus = s.AnomalyChanceIncrease
	}
	c.Cash = roundCents(c.Cash + offer.Amount)
	c.LifelineUsed = true
	c.LoanIDs = append(c.LoanIDs, loanID)

	loan := Loan{
		ID:               loanID,
		CompanyID:        c.ID,
		Amount:           offer.Amount,
		InterestRate:     offer.InterestRate,
		Duration:         offer.Duration,
		StartDay:         c.Day,
		DueDay:           c.Day + offer.Duration,
		Status:           LoanActive,
		CredibilityScore: offer.CredibilityScore,
		Sacrifice:        s,
	}
	return c, loan, nil
}

type Payment struct {
	LoanID           string  `json:"loan_id"`
	Paid             float64 `json:"paid"`
	Remaining        float64 `json:"remaining"`
	PaidOff          bool    `json:"paid_off"`
	CredibilityBonus float64 `json:"credibility_bonus,omitempty"`
}

// PayLoan makes a manual payment. Paying off before the due day earns credibility.
func (e *Engine) PayLoan(c Company, loan Loan, amount float64) (Company, Loan, Payment, error) {
	if err := c.checkActive(); err != nil {
		return c, loan, Payment{}, err
	}
	if amount <= 0 {
		return c, loan, Payment{}, ErrInvalidAmount
	}
	if loan.Status != LoanActive {
		return c, loan, Payment{}, ErrLoanNotActive
	}
	pay := minDecimal(decimal.NewFromFloat(amount), decimal.NewFromFloat(loan.Outstanding())).Round(2).InexactFloat64()
	if c.Cash < pay {
		return c, loan, Payment{}, fail(ErrInsufficientCash, pay, c.Cash)
	}

	c = c.Clone()
	debitCash(&c, pay)
	loan.PaidAmount = roundCents(loan.PaidAmount + pay)
	receipt := Payment{LoanID: loan.ID, Paid: pay, Remaining: loan.Outstanding()}
	if receipt.Remaining <= 0 {
		loan.Status = LoanPaid
		receipt.PaidOff = true
		if left := loan.DueDay - c.Day; left > 0 {
			bonus := math.Min(10, math.Floor(float64(left)/3))
			loan.CredibilityScore = math.Min(100, loan.CredibilityScore+bonus)
			receipt.CredibilityBonus = bonus
		}
	}
	return c, loan, receipt, nil
}

type LoanEvent struct {
	LoanID      string      `json:"loan_id"`
	DaysOverdue int         `json:"days_overdue,omitempty"`
	Penalty     float64     `json:"penalty,omitempty"`
	Payment     float64     `json:"payment,omitempty"`
	Status      LoanStatus  `json:"status"`
	Anomaly     *Activation `json:"anomaly,omitempty"`
}

func installmentDue(l Loan, day int) bool {
	if day <= l.StartDay {
		return false
	}
	return (day-l.StartDay)%loanPeriodDays == 0 || day >= l.DueDay
}

// ProcessLoans charges penalties and scheduled installments for the company's active loans.
// Charges bypass the ledger's cash floor.
func (e *Engine) ProcessLoans(c Company, loans []Loan) (Company, []Loan, []LoanEvent) {
	c = c.Clone()
	out := make([]Loan, len(loans))
	copy(out, loans)
	var events []LoanEvent

	for i := range out {
		l := &out[i]
		if l.Status != LoanActive || l.CompanyID != c.ID {
			continue
		}
		ev := LoanEvent{LoanID: l.ID, Status: LoanActive}
		overdue := l.DaysOverdue(c.Day)
		ev.DaysOverdue = overdue

		if overdue > 0 {
			rate := decimal.NewFromFloat(math.Min(0.20, float64(overdue)*0.01))
			penalty := decimal.NewFromFloat(l.Amount).Mul(rate).Round(2).InexactFloat64()
			debitCash(&c, penalty)
			ev.Penalty = penalty
			l.CredibilityScore = math.Max(0, l.CredibilityScore-math.Min(5, float64(overdue)))
			if e.rng.Float64() < punitiveAnomalyOdd {
				if act := e.ContextAnomaly(c, []string{"loan", "penalty"}); act != nil {
					c = e.applyActivation(c, *act)
					ev.Anomaly = act
				}
			}
			if overdue > defaultAfterDays {
				l.Status = LoanDefaulted
				ev.Status = LoanDefaulted
				events = append(events, ev)
				continue
			}
		}

		if installmentDue(*l, c.Day) && overdue <= autoPayGraceDays {
			due := MonthlyPayment(*l)
			if outstanding := l.Outstanding(); c.Day >= l.DueDay || due <= 0 || due > outstanding {
				due = outstanding
			}
			if due > 0 && c.Cash >= due {
				debitCash(&c, due)
				l.PaidAmount = roundCents(l.PaidAmount + due)
				ev.Payment = due
				if l.Outstanding() <= 0 {
					l.Status = LoanPaid
					ev.Status = LoanPaid
				}
			}
		}
		if ev.Penalty > 0 || ev.Payment > 0 || ev.Status != LoanActive {
			events = append(events, ev)
		}
	}
	return c, out, events
}
