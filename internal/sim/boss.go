package sim

import (
	"fmt"
	"math"
	"time"
)

type BattleStatus string

const (
	BattleActive  BattleStatus = "active"
	BattleWon     BattleStatus = "won"
	BattleLost    BattleStatus = "lost"
	BattleExpired BattleStatus = "expired"
)

type PlayerMove string

const (
	MoveAttack  PlayerMove = "attack"
	MoveDefend  PlayerMove = "defend"
	MoveSpecial PlayerMove = "special"
)

const (
	attackCashCost   = 500
	defendCashCost   = 300
	defendMitigation = 0.5
	patternLength    = 10
)

// SpecialCost selects how a special move is paid for. XP takes precedence.
type SpecialCost struct {
	XP   int     `json:"xp,omitempty"`
	Cash float64 `json:"cash,omitempty"`
}

var DefaultSpecialCost = SpecialCost{XP: 100}

type BossBattle struct {
	ID             string       `json:"id"`
	CompanyID      string       `json:"company_id"`
	TemplateID     string       `json:"template_id"`
	BossName       string       `json:"boss_name"`
	BossHealth     int          `json:"boss_health"`
	MaxHealth      int          `json:"max_health"`
	CurrentTurn    int          `json:"current_turn"`
	PlayerHealth   int          `json:"player_health"`
	Status         BattleStatus `json:"status"`
	AttackPattern  []string     `json:"attack_pattern"`
	LastBossMove   string       `json:"last_boss_move,omitempty"`
	LastPlayerMove PlayerMove   `json:"last_player_move,omitempty"`
	StartedDay     int          `json:"started_day"`
	TurnDeadline   time.Time    `json:"turn_deadline"`
	Rewards        BossRewards  `json:"rewards"`
	RewardsGranted bool         `json:"rewards_granted"`
}

func PlayerHealth(c Company) int {
	return int(math.Floor(c.Cash/1000)) + c.Users/10
}

// StartBossBattle opens the checkpoint fight. A company gets one battle per run.
func (e *Engine) StartBossBattle(c Company, existing *BossBattle, battleID string) (BossBattle, bool, error) {
	if c.Day != e.tuning.BossDay || !c.Alive {
		return BossBattle{}, false, nil
	}
	if existing != nil {
		return BossBattle{}, false, nil
	}
	tpl, ok := e.catalog.BossTemplate(c.Difficulty, c.Type)
	if !ok || len(tpl.Moves) == 0 {
		return BossBattle{}, false, fmt.Errorf("%w: %s", ErrNoBossTemplate, c.Difficulty)
	}
	return BossBattle{
		ID:            battleID,
		CompanyID:     c.ID,
		TemplateID:    tpl.ID,
		BossName:      tpl.Name,
		BossHealth:    tpl.MaxHealth,
		MaxHealth:     tpl.MaxHealth,
		CurrentTurn:   1,
		PlayerHealth:  PlayerHealth(c),
		Status:        BattleActive,
		AttackPattern: e.attackPattern(tpl),
		StartedDay:    c.Day,
		Rewards:       tpl.Rewards,
	}, true, nil
}

// attackPattern fixes the boss's moves up front: every third turn is a sabotage.
func (e *Engine) attackPattern(tpl BossTemplate) []string {
	var attacks, sabotage []string
	for _, m := range tpl.Moves {
		if m.Kind == BossMoveSabotage {
			sabotage = append(sabotage, m.ID)
		} else {
			attacks = append(attacks, m.ID)
		}
	}
	if len(attacks) == 0 {
		attacks = sabotage
	}
	if len(sabotage) == 0 {
		sabotage = attacks
	}
	pattern := make([]string, patternLength)
	for i := range pattern {
		if i%3 == 0 {
			pattern[i] = sabotage[e.rng.Intn(len(sabotage))]
		} else {
			pattern[i] = attacks[e.rng.Intn(len(attacks))]
		}
	}
	return pattern
}

type TurnResult struct {
	PlayerMove  PlayerMove   `json:"player_move"`
	DamageDealt int          `json:"damage_dealt"`
	BossMove    *BossMove    `json:"boss_move,omitempty"`
	DamageTaken int          `json:"damage_taken"`
	Mitigated   bool         `json:"mitigated"`
	Status      BattleStatus `json:"status"`
	Rewards     *BossRewards `json:"rewards,omitempty"`
	LevelUp     *LevelUp     `json:"level_up,omitempty"`
	Message     string       `json:"message"`
}

// ExecuteBossAction runs one player turn then, if the boss survives, its counter-move.
func (e *Engine) ExecuteBossAction(c Company, b BossBattle, move PlayerMove, cost SpecialCost) (Company, BossBattle, TurnResult, error) {
	if err := c.checkActive(); err != nil {
		return c, b, TurnResult{}, err
	}
	if b.Status != BattleActive {
		return c, b, TurnResult{}, ErrBattleNotActive
	}
	if move == MoveSpecial && cost.XP <= 0 && cost.Cash <= 0 {
		cost = DefaultSpecialCost
	}

	var damage int
	var cashCost float64
	var xpCost int
	switch move {
	case MoveAttack:
		cashCost = attackCashCost
		damage = 15 + int(math.Floor(c.Quality/10))
	case MoveDefend:
		cashCost = defendCashCost
		damage = 5
	case MoveSpecial:
		if cost.XP > 0 {
			xpCost = cost.XP
			damage = 30 + int(math.Floor(c.Quality/5))
		} else {
			cashCost = cost.Cash
			damage = 25 + c.Users/100
		}
	default:
		return c, b, TurnResult{}, ErrUnknownBossMove
	}
	if xpCost > c.XP {
		return c, b, TurnResult{}, fail(ErrInsufficientXP, float64(xpCost), float64(c.XP))
	}
	if cashCost > c.Cash {
		return c, b, TurnResult{}, fail(ErrInsufficientCash, cashCost, c.Cash)
	}

	c = c.Clone()
	b.AttackPattern = append([]string(nil), b.AttackPattern...)
	c.Cash = roundCents(c.Cash - cashCost)
	deductXP(&c, xpCost)

	b.BossHealth = max(0, b.BossHealth-damage)
	b.LastPlayerMove = move
	res := TurnResult{PlayerMove: move, DamageDealt: damage}

	if b.BossHealth <= 0 {
		b.Status = BattleWon
		b.PlayerHealth = PlayerHealth(c)
		c, res.LevelUp = e.grantBossRewards(c, &b)
		rewards := b.Rewards
		res.Rewards = &rewards
		res.Status = b.Status
		res.Message = fmt.Sprintf("You dealt %d damage. %s is defeated!", damage, b.BossName)
		return c, b, res, nil
	}

	bm, ok := e.bossMove(c, b)
	if ok {
		eff := bm.Effects
		if move == MoveDefend {
			eff = mitigate(eff, defendMitigation)
			res.Mitigated = true
		}
		rawCash := c.Cash + eff.Cash
		rawUsers := c.Users + eff.Users
		e.applyEffects(&c, eff, 1)

		res.BossMove = &bm
		res.DamageTaken = bossDamage(eff)
		b.LastBossMove = bm.ID
		if rawCash < 0 || rawUsers <= 0 {
			b.Status = BattleLost
			c.Alive = false
			c.Outcome = OutcomeDefeated
		}
	}
	b.PlayerHealth = PlayerHealth(c)
	b.CurrentTurn++
	res.Status = b.Status
	if ok {
		res.Message = fmt.Sprintf("You dealt %d damage. %s used %s: you took %d damage.", damage, b.BossName, bm.Name, res.DamageTaken)
	} else {
		res.Message = fmt.Sprintf("You dealt %d damage.", damage)
	}
	return c, b, res, nil
}

func (e *Engine) bossMove(c Company, b BossBattle) (BossMove, bool) {
	if len(b.AttackPattern) == 0 {
		return BossMove{}, false
	}
	tpl, ok := e.catalog.BossTemplate(c.Difficulty, c.Type)
	if !ok {
		return BossMove{}, false
	}
	id := b.AttackPattern[(b.CurrentTurn-1)%len(b.AttackPattern)]
	for _, m := range tpl.Moves {
		if m.ID == id {
			return m, true
		}
	}
	return BossMove{}, false
}

// mitigate scales the harmful parts of a bundle by (1 - frac).
func mitigate(eff Effects, frac float64) Effects {
	keep := 1 - frac
	if eff.Cash < 0 {
		eff.Cash = math.Ceil(eff.Cash * keep)
	}
	if eff.Users < 0 {
		eff.Users = int(math.Ceil(float64(eff.Users) * keep))
	}
	if eff.Quality < 0 {
		eff.Quality = math.Ceil(eff.Quality * keep)
	}
	if eff.Hype < 0 {
		eff.Hype = math.Ceil(eff.Hype * keep)
	}
	return eff
}

func bossDamage(eff Effects) int {
	d := 0.0
	if eff.Cash < 0 {
		d += math.Abs(eff.Cash) / 100
	}
	if eff.Users < 0 {
		d += math.Abs(float64(eff.Users)) / 10
	}
	return int(math.Floor(d))
}

func (e *Engine) grantBossRewards(c Company, b *BossBattle) (Company, *LevelUp) {
	if b.RewardsGranted {
		return c, nil
	}
	b.RewardsGranted = true
	r := b.Rewards
	c.Cash = roundCents(c.Cash + r.Cash)
	c.Investors = append(c.Investors, r.Investors...)
	c.Quality = clampPercent(c.Quality + r.Quality)
	c.BonusSkillPoints += r.SkillPoints
	return c, syncProgression(&c)
}

// ExpireBossBattle freezes a battle whose turn window lapsed.
func ExpireBossBattle(b BossBattle) BossBattle {
	if b.Status == BattleActive {
		b.Status = BattleExpired
	}
	return b
}

// BossTurnDeadline is when the player's next move must arrive.
func (e *Engine) BossTurnDeadline(now time.Time) time.Time {
	return now.Add(e.tuning.BossTurnTimeout)
}
