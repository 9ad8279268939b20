package game

import (
	"errors"
	"testing"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

func TestValidateName(t *testing.T) {
	valid := []string{"Acme Labs", "  Nimbus  ", "x"}
	for _, n := range valid {
		if err := ValidateName(n); err != nil {
			t.Fatalf("expected name %q to be valid: %v", n, err)
		}
	}

	invalid := []string{"", "   ", "admin empire", "The Support Co", string(make([]byte, 65))}
	for _, n := range invalid {
		if err := ValidateName(n); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected name %q to fail, got %v", n, err)
		}
	}
}

func TestValidateGoals(t *testing.T) {
	tests := []struct {
		goals []GoalInput
		ok    bool
	}{
		{goals: []GoalInput{{Type: sim.GoalReachUsers, Target: 1000}}, ok: true},
		{goals: []GoalInput{{Type: sim.GoalReachCash, Target: 1}, {Type: sim.GoalSurviveDays, Target: 90}, {Type: sim.GoalReachHype, Target: 50}}, ok: true},
		{goals: nil, ok: false},
		{goals: []GoalInput{{Type: "get_rich", Target: 1}}, ok: false},
		{goals: []GoalInput{{Type: sim.GoalReachUsers, Target: 0}}, ok: false},
		{goals: make([]GoalInput, 4), ok: false},
	}
	for i, tc := range tests {
		err := ValidateGoals(tc.goals)
		if (err == nil) != tc.ok {
			t.Fatalf("case %d: got err=%v want ok=%v", i, err, tc.ok)
		}
	}
}

func TestValidateCompanyType(t *testing.T) {
	for _, typ := range CompanyTypes() {
		if err := ValidateCompanyType(typ); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
	if err := ValidateCompanyType("crypto_casino"); !errors.Is(err, ErrUnknownCompanyType) {
		t.Fatalf("got %v want ErrUnknownCompanyType", err)
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in   string
		want sim.PlayerMove
	}{
		{in: "attack", want: sim.MoveAttack},
		{in: " Defend ", want: sim.MoveDefend},
		{in: "SPECIAL", want: sim.MoveSpecial},
	}
	for _, tc := range tests {
		got, err := ParseMove(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q err %v want %q", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseMove("flee"); !errors.Is(err, ErrUnknownMove) {
		t.Fatalf("got %v want ErrUnknownMove", err)
	}
}

func TestRedactHidesPendingOutcomes(t *testing.T) {
	c := sim.Company{PendingEvents: []sim.PendingEvent{{
		EventID: "ev",
		Choices: []sim.EventChoice{{ID: "a", Label: "Option A", Type: sim.OutcomeCriticalSuccess, Effects: sim.Effects{Cash: 100}}},
	}}}
	got := Redact(c)
	if got.PendingEvents[0].Choices[0].Type != "" || got.PendingEvents[0].Choices[0].Effects.Cash != 0 {
		t.Fatalf("outcome leaked: %+v", got.PendingEvents[0].Choices[0])
	}
	if c.PendingEvents[0].Choices[0].Type != sim.OutcomeCriticalSuccess {
		t.Fatalf("redaction mutated the original")
	}
}
