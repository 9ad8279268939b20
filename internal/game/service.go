package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KenThuan129/startup-simulation-game/internal/lock"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
	"github.com/KenThuan129/startup-simulation-game/internal/store"
)

const commitAttempts = 3

// errStale aborts a turn that no longer needs writing.
var errStale = errors.New("stale")

// Service runs game operations against stored companies. Every mutation takes
// the company lock, loads the current state, runs the engine and commits the
// resulting turn in one transaction.
type Service struct {
	store   store.Store
	locker  lock.Locker
	catalog sim.Catalog
	engine  *sim.Engine
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(st store.Store, locker lock.Locker, catalog sim.Catalog, tuning sim.Tuning, rng sim.Rand, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	if rng == nil {
		rng = sim.NewRand(time.Now().UnixNano())
	}
	return &Service{
		store:   st,
		locker:  locker,
		catalog: catalog,
		engine:  sim.NewEngine(catalog, tuning, &lockedRand{r: rng}),
		log:     logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) Tuning() sim.Tuning { return s.engine.Tuning() }

type lockedRand struct {
	mu sync.Mutex
	r  sim.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

type state struct {
	company sim.Company
	loans   []sim.Loan
	battle  *sim.BossBattle
}

func (s *Service) load(ctx context.Context, companyID string) (state, error) {
	c, err := s.store.Company(ctx, companyID)
	if err != nil {
		return state{}, err
	}
	loans, err := s.store.Loans(ctx, companyID)
	if err != nil {
		return state{}, fmt.Errorf("load loans: %w", err)
	}
	st := state{company: c, loans: loans}
	b, err := s.store.BossBattle(ctx, companyID)
	switch {
	case err == nil:
		st.battle = &b
	case !errors.Is(err, store.ErrNotFound):
		return state{}, fmt.Errorf("load boss battle: %w", err)
	}
	return st, nil
}

// mutate runs fn under the company lock and commits the turn it returns.
// A version conflict reloads and reruns fn.
func (s *Service) mutate(ctx context.Context, companyID string, fn func(st state) (store.Turn, error)) (sim.Company, error) {
	unlock, err := s.locker.Lock(ctx, "company:"+companyID)
	if err != nil {
		return sim.Company{}, err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		st, err := s.load(ctx, companyID)
		if err != nil {
			return sim.Company{}, err
		}
		turn, err := fn(st)
		if err != nil {
			return sim.Company{}, err
		}
		committed, err := s.store.Commit(ctx, turn)
		if err == nil {
			return committed, nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt+1 >= commitAttempts {
			return sim.Company{}, fmt.Errorf("commit turn: %w", err)
		}
		s.log.Warn("turn conflict, retrying", "company_id", companyID, "attempt", attempt+1)
		if err := sleepWithContext(ctx, time.Duration(attempt+1)*20*time.Millisecond); err != nil {
			return sim.Company{}, err
		}
	}
}

func (s *Service) CreateCompany(ctx context.Context, in CreateCompanyInput) (sim.Company, error) {
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		return sim.Company{}, fmt.Errorf("owner id is required")
	}
	if err := ValidateName(in.Name); err != nil {
		return sim.Company{}, err
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = "saas"
	}
	if err := ValidateCompanyType(typ); err != nil {
		return sim.Company{}, err
	}
	if !sim.ValidDifficulty(in.Difficulty) {
		return sim.Company{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, in.Difficulty)
	}
	if err := ValidateGoals(in.Goals); err != nil {
		return sim.Company{}, err
	}

	goals := make([]sim.Goal, 0, len(in.Goals))
	for _, g := range in.Goals {
		goals = append(goals, sim.Goal{ID: s.newID(), Type: g.Type, Target: g.Target})
	}
	c := sim.NewCompany(sim.NewCompanyParams{
		ID:         s.newID(),
		OwnerID:    owner,
		Name:       strings.TrimSpace(in.Name),
		Type:       typ,
		Difficulty: in.Difficulty,
		Goals:      goals,
	}, s.engine.Tuning())

	created, err := s.store.CreateCompany(ctx, c)
	if err != nil {
		return sim.Company{}, err
	}
	s.log.Info("company created", "company_id", created.ID, "owner_id", owner, "difficulty", created.Difficulty)
	return created, nil
}

func (s *Service) ChooseRole(ctx context.Context, companyID, roleID string) (sim.Company, error) {
	if _, ok := s.catalog.Role(roleID); !ok {
		return sim.Company{}, fmt.Errorf("%w: %q", sim.ErrUnknownRole, roleID)
	}
	return s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		c := st.company
		if !c.Alive {
			return store.Turn{}, sim.ErrCompanyInactive
		}
		if c.Role != "" {
			return store.Turn{}, fmt.Errorf("%w: %s", ErrRoleAlreadyChosen, c.Role)
		}
		c = c.Clone()
		c.Role = roleID
		return store.Turn{Company: c}, nil
	})
}

func (s *Service) StartDay(ctx context.Context, companyID string) (DayStartResult, error) {
	var out DayStartResult
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		next, start, err := s.engine.StartDay(st.company, st.battle, s.newID())
		if err != nil {
			return store.Turn{}, err
		}
		turn := store.Turn{Company: next}
		for _, act := range start.Anomalies {
			turn.Anomalies = append(turn.Anomalies, act.Log)
		}
		if start.Battle != nil {
			start.Battle.TurnDeadline = s.engine.BossTurnDeadline(s.now())
			turn.Battle = start.Battle
		}
		out.Start = start
		return turn, nil
	})
	if err != nil {
		return DayStartResult{}, err
	}
	out.Company = c
	s.log.Info("day started",
		"company_id", companyID,
		"day", c.Day,
		"anomalies", len(out.Start.Anomalies),
		"boss", out.Start.Battle != nil,
	)
	return out, nil
}

// TakeAction returns the queued events with their outcome types hidden.
func (s *Service) TakeAction(ctx context.Context, companyID, actionID string) (ActionResult, error) {
	var events []sim.PendingEvent
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		next, evs, err := s.engine.TakeAction(st.company, actionID)
		if err != nil {
			return store.Turn{}, err
		}
		events = evs
		return store.Turn{Company: next}, nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	out := ActionResult{Company: c, Events: make([]sim.PendingEvent, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, ev.Redacted())
	}
	return out, nil
}

func (s *Service) Choose(ctx context.Context, companyID, eventID, choiceID string) (ChoiceResult, error) {
	var res sim.Resolution
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		next, r, err := s.engine.ResolveChoice(st.company, eventID, choiceID)
		if err != nil {
			return store.Turn{}, err
		}
		res = r
		turn := store.Turn{Company: next}
		if r.Anomaly != nil {
			turn.Anomalies = append(turn.Anomalies, r.Anomaly.Log)
		}
		return turn, nil
	})
	if err != nil {
		return ChoiceResult{}, err
	}
	if res.LevelUp != nil {
		s.log.Info("level up", "company_id", companyID, "level", res.LevelUp.NewLevel)
	}
	return ChoiceResult{Company: c, Resolution: res}, nil
}

func (s *Service) EndDay(ctx context.Context, companyID string) (DayEndResult, error) {
	var end sim.DayEnd
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		next, loans, e, err := s.engine.EndDay(st.company, st.loans)
		if err != nil {
			return store.Turn{}, err
		}
		end = e
		turn := store.Turn{Company: next, Loans: loans}
		for _, ev := range e.Tick.Loans {
			if ev.Anomaly != nil {
				turn.Anomalies = append(turn.Anomalies, ev.Anomaly.Log)
			}
		}
		return turn, nil
	})
	if err != nil {
		return DayEndResult{}, err
	}
	switch {
	case end.Tick.Bankruptcy != "":
		s.log.Warn("company bankrupt", "company_id", companyID, "day", end.Tick.Day, "reason", end.Tick.Bankruptcy)
	case end.Completed:
		s.log.Info("campaign completed", "company_id", companyID, "day", end.Tick.Day)
	default:
		s.log.Debug("day ended", "company_id", companyID, "day", end.Tick.Day, "revenue", end.Tick.Revenue, "burn", end.Tick.Burn)
	}
	return DayEndResult{Company: c, End: end}, nil
}

func (s *Service) SpendSkill(ctx context.Context, companyID, skillID string, levels int) (sim.Company, error) {
	return s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		next, err := s.engine.SpendSkillPoints(st.company, skillID, levels)
		if err != nil {
			return store.Turn{}, err
		}
		return store.Turn{Company: next}, nil
	})
}

func (s *Service) AutoAllocate(ctx context.Context, companyID string) (SkillResult, error) {
	var ups []sim.SkillUpgrade
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		next, u, err := s.engine.AutoAllocate(st.company)
		if err != nil {
			return store.Turn{}, err
		}
		ups = u
		return store.Turn{Company: next}, nil
	})
	if err != nil {
		return SkillResult{}, err
	}
	return SkillResult{Company: c, Upgrades: ups}, nil
}

func (s *Service) LoanOffers(ctx context.Context, companyID string) (LoanOffers, error) {
	st, err := s.load(ctx, companyID)
	if err != nil {
		return LoanOffers{}, err
	}
	score := sim.CredibilityScore(st.company)
	_, active := activeLoan(st.loans)
	return LoanOffers{
		CredibilityScore: score,
		Offers:           sim.GenerateLoanOffers(score),
		LifelineUsed:     st.company.LifelineUsed,
		HasActiveLoan:    active,
	}, nil
}

// AcceptLoan takes offer index from a freshly computed offer list, so a stale
// list shown to the player cannot be redeemed at yesterday's terms.
func (s *Service) AcceptLoan(ctx context.Context, companyID string, offer int) (LoanResult, error) {
	var loan sim.Loan
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		offers := sim.GenerateLoanOffers(sim.CredibilityScore(st.company))
		if offer < 0 || offer >= len(offers) {
			return store.Turn{}, fmt.Errorf("%w: %d", ErrUnknownOffer, offer)
		}
		next, l, err := s.engine.AcceptLoan(st.company, offers[offer], st.loans, s.newID())
		if err != nil {
			return store.Turn{}, err
		}
		loan = l
		return store.Turn{Company: next, Loans: []sim.Loan{l}}, nil
	})
	if err != nil {
		return LoanResult{}, err
	}
	s.log.Info("loan accepted", "company_id", companyID, "loan_id", loan.ID, "amount", loan.Amount, "due_day", loan.DueDay)
	return LoanResult{Company: c, Loan: loan}, nil
}

// PayLoan pays loanID, or the active loan when loanID is empty.
func (s *Service) PayLoan(ctx context.Context, companyID, loanID string, amount float64) (LoanResult, error) {
	var (
		loan sim.Loan
		pay  sim.Payment
	)
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		var (
			target sim.Loan
			found  bool
		)
		if loanID == "" {
			target, found = activeLoan(st.loans)
			if !found {
				return store.Turn{}, ErrNoActiveLoan
			}
		} else {
			for _, l := range st.loans {
				if l.ID == loanID {
					target, found = l, true
				}
			}
			if !found {
				return store.Turn{}, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
			}
		}
		next, l, p, err := s.engine.PayLoan(st.company, target, amount)
		if err != nil {
			return store.Turn{}, err
		}
		loan, pay = l, p
		return store.Turn{Company: next, Loans: []sim.Loan{l}}, nil
	})
	if err != nil {
		return LoanResult{}, err
	}
	return LoanResult{Company: c, Loan: loan, Payment: &pay}, nil
}

func (s *Service) Loans(ctx context.Context, companyID string) ([]sim.Loan, error) {
	if _, err := s.store.Company(ctx, companyID); err != nil {
		return nil, err
	}
	return s.store.Loans(ctx, companyID)
}

func activeLoan(loans []sim.Loan) (sim.Loan, bool) {
	for _, l := range loans {
		if l.Status == sim.LoanActive {
			return l, true
		}
	}
	return sim.Loan{}, false
}

func (s *Service) BossStatus(ctx context.Context, companyID string) (sim.BossBattle, error) {
	b, err := s.store.BossBattle(ctx, companyID)
	if errors.Is(err, store.ErrNotFound) {
		return sim.BossBattle{}, ErrNoBossBattle
	}
	return b, err
}

// BossAction plays one turn. A battle whose turn window lapsed is expired and
// ErrBattleExpired returned alongside the stored result.
func (s *Service) BossAction(ctx context.Context, companyID string, move sim.PlayerMove, cost sim.SpecialCost) (BossResult, error) {
	var (
		out     BossResult
		expired bool
	)
	c, err := s.mutate(ctx, companyID, func(st state) (store.Turn, error) {
		if st.battle == nil {
			return store.Turn{}, ErrNoBossBattle
		}
		b := *st.battle
		expired = false
		if b.Status == sim.BattleActive && !b.TurnDeadline.IsZero() && s.now().After(b.TurnDeadline) {
			b = sim.ExpireBossBattle(b)
			expired = true
			out.Battle = b
			return store.Turn{Company: st.company, Battle: &b}, nil
		}
		next, nb, res, err := s.engine.ExecuteBossAction(st.company, b, move, cost)
		if err != nil {
			return store.Turn{}, err
		}
		if nb.Status == sim.BattleActive {
			nb.TurnDeadline = s.engine.BossTurnDeadline(s.now())
		}
		out.Battle, out.Turn = nb, res
		return store.Turn{Company: next, Battle: &nb}, nil
	})
	if err != nil {
		return BossResult{}, err
	}
	out.Company = c
	if expired {
		s.log.Info("boss battle expired", "company_id", companyID)
		return out, ErrBattleExpired
	}
	if out.Battle.Status != sim.BattleActive {
		s.log.Info("boss battle over", "company_id", companyID, "status", out.Battle.Status, "turns", out.Battle.CurrentTurn)
	}
	return out, nil
}

// ExpireBossBattles expires every active battle whose turn deadline has passed.
func (s *Service) ExpireBossBattles(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.ActiveBossBattlesBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, b := range due {
		_, err := s.mutate(ctx, b.CompanyID, func(st state) (store.Turn, error) {
			cur := st.battle
			if cur == nil || cur.ID != b.ID || cur.Status != sim.BattleActive || !now.After(cur.TurnDeadline) {
				return store.Turn{}, errStale
			}
			nb := sim.ExpireBossBattle(*cur)
			return store.Turn{Company: st.company, Battle: &nb}, nil
		})
		if errors.Is(err, errStale) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return expired, ctx.Err()
			}
			s.log.Error("expire boss battle failed", "company_id", b.CompanyID, "err", err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *Service) Company(ctx context.Context, companyID string) (sim.Company, error) {
	return s.store.Company(ctx, companyID)
}

func (s *Service) ActiveCompany(ctx context.Context, ownerID string) (sim.Company, error) {
	c, err := s.store.ActiveCompany(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return sim.Company{}, ErrNoActiveCompany
	}
	return c, err
}

func (s *Service) LevelInfo(ctx context.Context, companyID string) (LevelReport, error) {
	c, err := s.store.Company(ctx, companyID)
	if err != nil {
		return LevelReport{}, err
	}
	info := sim.RecalculateLevelAndSkillPoints(c)
	return LevelReport{
		LevelProgress:    sim.ProgressFor(c.XP),
		SkillPoints:      info.Available,
		EarnedPoints:     info.Earned,
		SpentPoints:      c.SkillPointsSpent,
		BonusSkillPoints: c.BonusSkillPoints,
	}, nil
}

func (s *Service) AnomalyLog(ctx context.Context, companyID string, limit int) ([]sim.AnomalyLogEntry, error) {
	if _, err := s.store.Company(ctx, companyID); err != nil {
		return nil, err
	}
	return s.store.AnomalyLog(ctx, companyID, limit)
}

// Reset abandons the owner's active company so a new one can be created.
func (s *Service) Reset(ctx context.Context, ownerID string) (sim.Company, error) {
	active, err := s.ActiveCompany(ctx, ownerID)
	if err != nil {
		return sim.Company{}, err
	}
	c, err := s.mutate(ctx, active.ID, func(st state) (store.Turn, error) {
		c := st.company.Clone()
		if !c.Alive {
			return store.Turn{}, sim.ErrCompanyInactive
		}
		c.Alive = false
		c.Outcome = sim.OutcomeAbandoned
		return store.Turn{Company: c}, nil
	})
	if err != nil {
		return sim.Company{}, err
	}
	s.log.Info("company reset", "company_id", c.ID, "owner_id", ownerID, "day", c.Day)
	return c, nil
}

// Simulate plays seeded automated runs against the service's content and tuning.
func (s *Service) Simulate(cfg sim.SimulationConfig, rec sim.Recorder) (sim.SimulationResult, error) {
	s.log.Info("simulation started", "seed", cfg.Seed, "companies", cfg.Companies, "days", cfg.Days)
	return sim.Simulate(s.catalog, s.engine.Tuning(), cfg, rec)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
