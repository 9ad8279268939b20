package sim

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestRevenue(t *testing.T) {
	if got := RevenuePerUser(50); !approx(got, 0.40) {
		t.Fatalf("got %v want 0.40", got)
	}
	if got := RevenuePerUser(150); !approx(got, 0.60) {
		t.Fatalf("quality above 100 must clamp, got %v", got)
	}
	if got := DailyRevenue(1000, 50, 1, 1); !approx(got, 400) {
		t.Fatalf("got %v want 400", got)
	}
	if got := DailyRevenue(1000, 50, 1, 0.9); !approx(got, 360) {
		t.Fatalf("got %v want 360", got)
	}
}

func TestChurnIsComplementOfRetention(t *testing.T) {
	tuning := DefaultTuning()
	for _, d := range Difficulties() {
		cfg := tuning.Difficulty(d)
		for q := 0.0; q <= 100; q += 10 {
			r := Retention(q, cfg)
			if r < 0.5 || r > 0.98 {
				t.Fatalf("%s q=%v retention out of range: %v", d, q, r)
			}
			want := math.Max(0, 1-r+cfg.ChurnPenalty)
			if got := Churn(q, cfg); !approx(got, want) {
				t.Fatalf("%s q=%v churn got %v want %v", d, q, got, want)
			}
		}
	}
}

func TestDailyUserLossKeepsFloor(t *testing.T) {
	if got := DailyUserLoss(6, 0.5); got != 1 {
		t.Fatalf("got %d want 1", got)
	}
	if got := DailyUserLoss(MinUsers, 0.3); got != 0 {
		t.Fatalf("got %d want 0", got)
	}
	if got := DailyUserLoss(1000, 0.1); got != 100 {
		t.Fatalf("got %d want 100", got)
	}
}

func TestViralGrowth(t *testing.T) {
	if got := ViralGrowth(&seqRand{floats: []float64{0}}, 500, 10, 0, 0); got.Triggered {
		t.Fatalf("hype below threshold must not trigger")
	}
	got := ViralGrowth(&seqRand{floats: []float64{0}}, 500, 50, 0, 0)
	if !got.Triggered || got.NewUsers != 60 || !approx(got.HypeGain, 2) {
		t.Fatalf("unexpected viral result %+v", got)
	}
	if got := ViralGrowth(&seqRand{floats: []float64{0.99}}, 500, 50, 0, 0); got.Triggered {
		t.Fatalf("roll above chance must not trigger")
	}
}

func TestViralThreshold(t *testing.T) {
	if got := ViralThreshold(0); got != 30 {
		t.Fatalf("got %v want 30", got)
	}
	if got := ViralThreshold(2); got != 20 {
		t.Fatalf("got %v want 20", got)
	}
}

func TestDecayAndVirality(t *testing.T) {
	if got := DecayHype(100); !approx(got, 95) {
		t.Fatalf("got %v want 95", got)
	}
	if got := DecayVirality(100); !approx(got, 97) {
		t.Fatalf("got %v want 97", got)
	}
	for _, tc := range []struct {
		cur, hype   float64
		users, prev int
	}{
		{cur: 100, hype: 100, users: 50_000, prev: 100},
		{cur: 0, hype: 0, users: 5, prev: 5},
		{cur: 40, hype: 80, users: 2000, prev: 1000},
	} {
		v := ViralityFromStats(tc.cur, tc.hype, tc.users, tc.prev)
		if v < 0 || v > 100 {
			t.Fatalf("virality out of range: %v", v)
		}
	}
}

func TestDailyBurn(t *testing.T) {
	normal := DefaultTuning().Difficulty(DifficultyNormal)
	if got := DailyBurn(1000, normal, Multipliers{}); !approx(got, 180) {
		t.Fatalf("got %v want 180", got)
	}
	if got := DailyBurn(0, normal, Multipliers{CostReduction: 5}); !approx(got, 10) {
		t.Fatalf("reduction must clamp to 10%%, got %v", got)
	}
	if got := DailyBurn(0, normal, Multipliers{CostReduction: 0.6, BurnReduction: 0.6}); !approx(got, 10) || got <= 0 {
		t.Fatalf("stacked reductions must keep burn positive, got %v", got)
	}
	hard := DefaultTuning().Difficulty(DifficultyHard)
	if got := DailyBurn(0, hard, Multipliers{}); !approx(got, 115) {
		t.Fatalf("got %v want 115", got)
	}
}

func TestCheckBankruptcy(t *testing.T) {
	normal := DefaultTuning().Difficulty(DifficultyNormal)
	tests := []struct {
		name     string
		cash     float64
		users    int
		burn     float64
		lifeline bool
		want     BankruptcyReason
	}{
		{name: "users collapsed", cash: 1_000_000, users: 4, burn: 100, want: BankruptUsers},
		{name: "slightly negative", cash: -1, users: 100, burn: 100, want: BankruptNone},
		{name: "runway gone", cash: -800, users: 100, burn: 100, want: BankruptRunway},
		{name: "lifeline covers runway", cash: -800, users: 100, burn: 100, lifeline: true, want: BankruptNone},
		{name: "lifeline exhausted", cash: -10_500, users: 100, burn: 100, lifeline: true, want: BankruptRunway},
		{name: "severe loss", cash: -16_000, users: 100, burn: 100, lifeline: true, want: BankruptSevereLoss},
		{name: "positive cash", cash: 10, users: 100, burn: 1000, want: BankruptNone},
	}
	for _, tc := range tests {
		c := newTestCompany()
		c.Cash = tc.cash
		c.Users = tc.users
		c.LifelineUsed = tc.lifeline
		if got := CheckBankruptcy(c, tc.burn, normal); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
