package sim

import (
	"errors"
	"fmt"
)

var (
	ErrCompanyInactive         = errors.New("company is no longer active")
	ErrUnknownSkill            = errors.New("unknown skill")
	ErrUnknownAction           = errors.New("unknown action")
	ErrUnknownEvent            = errors.New("unknown pending event")
	ErrUnknownChoice           = errors.New("unknown choice")
	ErrSkillMaxed              = errors.New("skill already at max level")
	ErrInsufficientSkillPoints = errors.New("insufficient skill points")
	ErrInvalidAmount           = errors.New("amount must be > 0")
	ErrActionNotOffered        = errors.New("action not in today's action set")
	ErrActionAlreadyTaken      = errors.New("action already taken today")
	ErrActionLocked            = errors.New("action category locked today")
	ErrInsufficientAP          = errors.New("not enough action points")
	ErrLifelineActive          = errors.New("an active lifeline loan already exists")
	ErrLoanNotActive           = errors.New("loan is not active")
	ErrInsufficientCash        = errors.New("insufficient cash")
	ErrInsufficientXP          = errors.New("insufficient xp")
	ErrBattleNotActive         = errors.New("boss battle is not active")
	ErrUnknownBossMove         = errors.New("unknown boss move")
	ErrUnknownRole             = errors.New("unknown role")
	ErrNoBossTemplate          = errors.New("no boss template for difficulty")
	ErrDayAlreadyStarted       = errors.New("day already started")
)

// Failure is a validation failure carrying the numbers a presenter needs.
type Failure struct {
	Reason error
	Need   float64
	Have   float64
}

func (f *Failure) Error() string {
	if f.Need == 0 && f.Have == 0 {
		return f.Reason.Error()
	}
	return fmt.Sprintf("%s: need %.2f, have %.2f", f.Reason, f.Need, f.Have)
}

func (f *Failure) Unwrap() error { return f.Reason }

func fail(reason error, need, have float64) error {
	return &Failure{Reason: reason, Need: need, Have: have}
}
