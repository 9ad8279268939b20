package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

const (
	MaxGoals      = 3
	maxNameLength = 64
)

var (
	ErrNoActiveCompany    = errors.New("no active company")
	ErrInvalidName        = errors.New("invalid company name")
	ErrUnknownCompanyType = errors.New("unknown company type")
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
	ErrInvalidGoal        = errors.New("invalid goal")
	ErrRoleAlreadyChosen  = errors.New("role already chosen")
	ErrNoBossBattle       = errors.New("no boss battle")
	ErrBattleExpired      = errors.New("boss battle turn window expired")
	ErrUnknownOffer       = errors.New("unknown loan offer")
	ErrNoActiveLoan       = errors.New("no active loan")
	ErrUnknownMove        = errors.New("unknown boss move")
)

var companyTypes = []string{"saas", "ecommerce", "mobile_app", "marketplace", "fintech", "healthtech"}

var blockedNameFragments = []string{
	"admin",
	"moderator",
	"support",
	"shit",
	"fuck",
	"bitch",
	"nazi",
}

func CompanyTypes() []string {
	return append([]string(nil), companyTypes...)
}

func ValidateCompanyType(t string) error {
	for _, v := range companyTypes {
		if v == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCompanyType, t)
}

func ValidateName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(clean) > maxNameLength {
		return fmt.Errorf("%w: too long (max %d chars)", ErrInvalidName, maxNameLength)
	}
	lower := strings.ToLower(clean)
	for _, fragment := range blockedNameFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("%w: contains blocked content", ErrInvalidName)
		}
	}
	return nil
}

type GoalInput struct {
	Type   sim.GoalType `json:"type"`
	Target float64      `json:"target"`
}

func ValidateGoals(goals []GoalInput) error {
	if len(goals) == 0 || len(goals) > MaxGoals {
		return fmt.Errorf("%w: need 1 to %d goals, got %d", ErrInvalidGoal, MaxGoals, len(goals))
	}
	for _, g := range goals {
		if !sim.ValidGoalType(g.Type) {
			return fmt.Errorf("%w: unknown type %q", ErrInvalidGoal, g.Type)
		}
		if g.Target <= 0 {
			return fmt.Errorf("%w: %s target must be > 0", ErrInvalidGoal, g.Type)
		}
	}
	return nil
}

func ParseMove(s string) (sim.PlayerMove, error) {
	switch m := sim.PlayerMove(strings.ToLower(strings.TrimSpace(s))); m {
	case sim.MoveAttack, sim.MoveDefend, sim.MoveSpecial:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMove, s)
}

// Redact hides the outcome types and effects of a company's unresolved events
// before it is shown to a player.
func Redact(c sim.Company) sim.Company {
	out := c.Clone()
	for i, ev := range out.PendingEvents {
		out.PendingEvents[i] = ev.Redacted()
	}
	return out
}
