// Package calculation runs a single retirement scenario year by year: growth,
// contributions, guaranteed income, spending, long-term care, taxes and
// withdrawals.
package calculation

import (
	"context"
	"math"
	"sort"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/ltc"
	"github.com/rgehrsitz/rpmc/internal/returns"
	"github.com/rgehrsitz/rpmc/internal/sequencing"
	"github.com/rgehrsitz/rpmc/internal/socialsecurity"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// maxTaxPasses bounds the gross-up iteration between withdrawals and taxes.
	// Each pass shrinks the unpaid tax by the marginal rate, so the bound is
	// only reached on pathological inputs.
	maxTaxPasses = 64
	// taxTolerance ends the gross-up iteration once taxes move by less than a dollar
	taxTolerance = 1.0
	// shortfallTolerance is the smallest unfunded amount that counts as depletion
	shortfallTolerance = 1.0
	seniorAge          = 65
)

// member is the precomputed, scenario-independent view of one household member
type member struct {
	owner  string
	person domain.Person
	rmd    *sequencing.RMDCalculator

	claimAge     int
	ownBenefit   float64 // annual, start-year dollars
	spousalTopUp float64 // annual top-up on the other member's record
	survivor     float64 // annual benefit once widowed
}

type incomeStream struct {
	kind      string
	owner     int
	amount    float64
	startAge  int
	endAge    int
	cola      bool
	taxable   bool
	survivor  float64
	earnedTax bool
}

type spendingPhase struct {
	startAge   int
	multiplier float64
}

// Simulator runs scenarios for one immutable parameter set. It holds no
// per-scenario state and is safe for concurrent use.
type Simulator struct {
	params   domain.SimulationParameters
	returns  *returns.Model
	ltc      *ltc.Model
	taxes    *ComprehensiveTaxCalculator
	strategy sequencing.SequencingStrategy
	logger   *zap.Logger

	keepCashFlows bool
	horizon       int

	members []member
	income  []incomeStream
	phases  []spendingPhase

	start          domain.BucketAmounts
	startBasis     float64
	cashReturn     float64
	spending       float64
	essentialShare float64
	healthcare     float64
	healthInfl     float64
	survivorRatio  float64
	contribution   float64
	contribShares  domain.BucketAmounts
	wageGrowth     float64
	legacyGoal     float64
	fixedCOLA      []float64 // nil: benefits follow realised inflation
}

// Option configures a Simulator
type Option func(*Simulator)

// WithLogger sets the logger used for scenario diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCashFlows retains the full yearly cash-flow series on every result
func WithCashFlows(keep bool) Option {
	return func(s *Simulator) { s.keepCashFlows = keep }
}

// NewSimulator applies defaults, validates the parameters and precomputes
// everything that does not depend on random draws.
func NewSimulator(params domain.SimulationParameters, opts ...Option) (*Simulator, error) {
	p := params.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rm, err := returns.FromAssumptions(p.Returns)
	if err != nil {
		return nil, err
	}
	lm, err := ltc.FromAssumptions(p.LTC)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		params:         p,
		returns:        rm,
		ltc:            lm,
		taxes:          NewComprehensiveTaxCalculator(p.Tax),
		strategy:       sequencing.CreateStrategy(p.Withdrawal),
		logger:         zap.NewNop(),
		horizon:        p.Household.HorizonYears(),
		start:          domain.BucketsFromParameters(p.Buckets),
		startBasis:     p.Buckets.TaxableBasis.InexactFloat64(),
		cashReturn:     p.Returns.CashReturn.InexactFloat64(),
		spending:       p.Expenses.AnnualSpending.InexactFloat64(),
		essentialShare: p.Expenses.EssentialShare.InexactFloat64(),
		healthcare:     p.Expenses.HealthcareAnnual.InexactFloat64(),
		healthInfl:     p.Expenses.HealthcareInflation.InexactFloat64(),
		survivorRatio:  p.Expenses.SurvivorRatio.InexactFloat64(),
		contribution:   p.Contributions.AnnualAmount.InexactFloat64(),
		contribShares: domain.BucketAmounts{
			TaxDeferred: p.Contributions.TaxDeferredShare.InexactFloat64(),
			TaxFree:     p.Contributions.TaxFreeShare.InexactFloat64(),
			Taxable:     p.Contributions.TaxableShare.InexactFloat64(),
			Cash:        p.Contributions.CashShare.InexactFloat64(),
			HSA:         p.Contributions.HSAShare.InexactFloat64(),
		},
		wageGrowth: p.Returns.WageGrowth.InexactFloat64(),
		legacyGoal: p.LegacyGoal.InexactFloat64(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.members = buildMembers(p)
	s.income = buildIncome(p)
	for _, ph := range p.Expenses.Phases {
		s.phases = append(s.phases, spendingPhase{startAge: ph.StartAge, multiplier: ph.Multiplier.InexactFloat64()})
	}
	sort.Slice(s.phases, func(i, j int) bool { return s.phases[i].startAge < s.phases[j].startAge })

	if p.Returns.FixedCOLA != nil {
		s.fixedCOLA = make([]float64, s.horizon)
		for y := range s.fixedCOLA {
			s.fixedCOLA[y] = socialsecurity.ApplyCOLA(decimal.NewFromInt(1), *p.Returns.FixedCOLA, y).InexactFloat64()
		}
	}
	return s, nil
}

func buildMembers(p domain.SimulationParameters) []member {
	calc := socialsecurity.NewCalculator(socialsecurity.DefaultRules().WithWageGrowth(p.Returns.WageGrowth))
	people := p.Household.Members()
	owners := []string{domain.OwnerPrimary, domain.OwnerSpouse}
	benefits := make([]socialsecurity.ClaimBenefit, len(people))
	for i, person := range people {
		benefits[i] = calc.BenefitFor(person, p.StartYear)
	}

	members := make([]member, len(people))
	for i, person := range people {
		m := member{
			owner:      owners[i],
			person:     person,
			rmd:        sequencing.NewRMDCalculator(person.BirthYear),
			claimAge:   person.SSClaimAge,
			ownBenefit: benefits[i].Monthly.InexactFloat64() * 12,
		}
		if len(people) == 2 {
			other := benefits[1-i]
			m.spousalTopUp = calc.SpousalBenefit(other.PIA, benefits[i].PIA, person.BirthYear, person.SSClaimAge*12).InexactFloat64() * 12
			m.survivor = socialsecurity.SurvivorBenefit(other.Monthly, benefits[i].Monthly).InexactFloat64() * 12
		}
		members[i] = m
	}
	return members
}

func buildIncome(p domain.SimulationParameters) []incomeStream {
	streams := make([]incomeStream, 0, len(p.Income))
	for _, in := range p.Income {
		owner := 0
		if in.Owner == domain.OwnerSpouse {
			owner = 1
		}
		streams = append(streams, incomeStream{
			kind:      in.Kind,
			owner:     owner,
			amount:    in.AnnualAmount.InexactFloat64(),
			startAge:  in.StartAge,
			endAge:    in.EndAge,
			cola:      in.COLA,
			taxable:   in.Taxable,
			survivor:  in.SurvivorPercent.InexactFloat64(),
			earnedTax: in.Kind == domain.IncomePartTime,
		})
	}
	return streams
}

// Params returns the defaulted parameters the simulator runs with
func (s *Simulator) Params() domain.SimulationParameters { return s.params }

// Horizon returns the number of simulated years
func (s *Simulator) Horizon() int { return s.horizon }

// scenario is the mutable state of one run
type scenario struct {
	index    int
	stream   returns.Stream
	policy   sequencing.SpendingPolicy
	trackers []*ltc.Tracker

	balances domain.BucketAmounts
	basis    float64
	cpi      float64
	phase    domain.Phase // accumulation or decumulation
	depleted bool         // sticky once the need could not be met
	result   *domain.ScenarioResult
}

// RunScenario simulates one path using the given stream. The stream is owned
// by this call. Depletion is a terminal state, not an error; an error is
// returned only for numeric failure or cancellation.
func (s *Simulator) RunScenario(ctx context.Context, index int, stream returns.Stream) (*domain.ScenarioResult, error) {
	if !stream.Valid() {
		return nil, &domain.SimulationRuntimeError{Scenario: index, Year: s.params.StartYear, Message: "uninitialised random stream"}
	}
	sc := &scenario{
		index:    index,
		stream:   stream,
		policy:   sequencing.CreateSpendingPolicy(s.params.Withdrawal),
		balances: s.start,
		basis:    s.startBasis,
		cpi:      1,
		phase:    domain.PhaseAccumulation,
		result: &domain.ScenarioResult{
			Index:          index,
			Seed:           stream.Seed(),
			Mirrored:       stream.IsMirrored(),
			StartYear:      s.params.StartYear,
			YearlyBalances: make([]float64, 0, s.horizon),
		},
	}
	for _, m := range s.members {
		sc.trackers = append(sc.trackers, ltc.NewTracker(m.owner))
	}

	for y := 0; y < s.horizon; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.step(sc, y)
		if err != nil {
			return nil, err
		}
		sc.result.YearlyBalances = append(sc.result.YearlyBalances, rec.TotalBalance)
		if s.keepCashFlows {
			sc.result.CashFlows = append(sc.result.CashFlows, rec)
		}
	}

	res := sc.result
	for _, t := range sc.trackers {
		if ev := t.Event(); ev != nil {
			res.LTCEvents = append(res.LTCEvents, *ev)
		}
	}
	res.Success = !sc.depleted
	res.Terminal = domain.PhaseSuccess
	if sc.depleted {
		res.Terminal = domain.PhaseDepleted
	}
	res.EndingBalance = sc.balances.Total()
	res.EndingBalanceReal = res.EndingBalance / sc.cpi
	res.MetLegacyGoal = res.Success && res.EndingBalanceReal >= s.legacyGoal
	return res, nil
}

// step advances one year. Random draws are consumed in a fixed order: the
// market sample, then three LTC draws per living member (primary first).
func (s *Simulator) step(sc *scenario, y int) (domain.YearlyCashFlowRecord, error) {
	year := s.params.StartYear + y
	ages := make([]int, len(s.members))
	alive := make([]bool, len(s.members))
	living := 0
	for i, m := range s.members {
		ages[i] = m.person.AgeIn(s.params.StartYear, year)
		alive[i] = m.person.AliveAt(ages[i])
		if alive[i] {
			living++
		}
	}

	rec := domain.YearlyCashFlowRecord{
		YearIndex:           y,
		Year:                year,
		PrimaryAge:          ages[0],
		PrimaryLive:         alive[0],
		CumulativeInflation: sc.cpi,
	}
	if len(s.members) > 1 {
		rec.SpouseAge, rec.SpouseLive = ages[1], alive[1]
	}

	sample := s.returns.Sample(sc.stream)
	rec.PortfolioReturn = sample.Blended
	rec.Inflation = sample.Inflation

	var ltcOOP float64
	for i := range s.members {
		if !alive[i] {
			continue
		}
		out := s.ltc.Step(sc.trackers[i], sc.stream, ages[i], year, y)
		rec.LTCCost += out.Cost
		rec.LTCPremium += out.Premium
		rec.LTCBenefit += out.Benefit
		ltcOOP += out.OutOfPocket
	}
	rec.LTCOutOfPocket = ltcOOP

	// RMDs are based on the prior year-end balance
	priorTaxDeferred := sc.balances.TaxDeferred
	s.grow(sc, sample.Blended)

	if sc.phase == domain.PhaseAccumulation && s.retired(ages, alive) {
		sc.phase = domain.PhaseDecumulation
	}
	rec.Phase = sc.phase
	if sc.depleted {
		rec.Phase = domain.PhaseDepleted
	}

	if sc.phase == domain.PhaseAccumulation && !sc.depleted {
		rec.Contributions = s.contribute(sc, y)
	}

	rec.Income = s.guaranteedIncome(sc, y, ages, alive)
	wages := s.wages(ages, alive, sc.cpi)

	// Need: spending and healthcare are only drawn from the portfolio once retired
	need := rec.LTCPremium + ltcOOP
	medical := ltcOOP
	rec.SpendingMultiplier = 1
	if sc.phase == domain.PhaseDecumulation {
		ref := s.referenceAge(ages, alive)
		base := s.spending * sc.cpi * s.phaseMultiplier(ref)
		if len(s.members) > 1 && living == 1 {
			base *= s.survivorRatio
		}
		essential := base * s.essentialShare
		discretionary := base - essential
		rec.Healthcare = s.healthcare * math.Pow(1+s.healthInfl, float64(y)) * float64(living) / float64(len(s.members))

		rec.SpendingMultiplier = sc.policy.Multiplier(sequencing.PolicyInput{
			Essential:     essential + rec.Healthcare + need,
			Discretionary: discretionary,
			Income:        rec.Income.Total(),
			Portfolio:     sc.balances.Total(),
		})
		rec.Spending = essential + discretionary*rec.SpendingMultiplier
		need += rec.Spending + rec.Healthcare
		medical += rec.Healthcare
	}

	pendingRMD := 0.0
	if ref := s.oldestLiving(ages, alive); ref >= 0 {
		pendingRMD = s.members[ref].rmd.CalculateRMD(priorTaxDeferred, ages[ref])
	}

	plan, tb := s.fundYear(sc, need, medical, pendingRMD, rec.Income, wages, ages, alive)

	var withdrawn domain.BucketAmounts
	sc.balances, sc.basis, withdrawn = sequencing.ApplyPlan(sc.balances, sc.basis, plan)
	rec.Withdrawals = withdrawn
	rec.RMD = plan.RMDWithdrawn
	rec.FederalTax = tb.Federal + tb.FICA
	rec.StateTax = tb.State
	rec.CapitalGainsTax = tb.CapitalGains
	rec.Taxes = tb.Total()

	net := rec.Income.Total() + plan.TotalSourced - need - rec.Taxes
	switch {
	case net > 0 && sc.depleted:
		// a depleted path stays at zero; surplus income is spent, not saved
		rec.UnspentIncome = net
	case net > 0:
		sc.balances.Taxable += net
		sc.basis += net
		rec.Reinvested = net
	case net < 0:
		unpaid := -net - s.absorb(sc, -net, &rec.Withdrawals)
		if unpaid > shortfallTolerance {
			rec.Shortfall = unpaid
			sc.result.TotalShortfall += rec.Shortfall
			if !sc.depleted {
				s.markDepleted(sc, year, s.referenceAge(ages, alive))
			}
			rec.Phase = domain.PhaseDepleted
		}
	}

	if err := s.sanitize(sc, year); err != nil {
		return rec, err
	}
	rec.EndingBalances = sc.balances
	rec.TotalBalance = sc.balances.Total()

	sc.cpi *= 1 + sample.Inflation
	return rec, nil
}

// fundYear plans withdrawals and taxes together. Taxes depend on what is
// withdrawn and the withdrawal must cover taxes, so the request is grossed up
// until taxes settle.
func (s *Simulator) fundYear(sc *scenario, need, medical, pendingRMD float64, income domain.IncomeBreakdown, wages []float64, ages []int, alive []bool) (sequencing.WithdrawalPlan, TaxBreakdown) {
	sources := sequencing.CreateWithdrawalSources(sc.balances, sc.basis, pendingRMD)
	in := TaxInput{
		OrdinaryIncome: s.taxableIncome(ages, alive, sc.cpi),
		SocialSecurity: income.SocialSecurity,
		Wages:          wages,
		Status:         MarriedFilingJointly,
		Index:          sc.cpi,
	}
	living := 0
	for i, ok := range alive {
		if !ok {
			continue
		}
		living++
		if ages[i] >= seniorAge {
			in.Seniors++
		}
	}
	if living < 2 {
		in.Status = Single
	}
	baseOrdinary := in.OrdinaryIncome

	var (
		plan sequencing.WithdrawalPlan
		tb   TaxBreakdown
		tax  float64
	)
	for pass := 0; pass < maxTaxPasses; pass++ {
		request := need + tax - income.Total()
		if request < 0 {
			request = 0
		}
		plan = s.strategy.Plan(sources, sequencing.StrategyContext{NeedAmount: request, MedicalAmount: math.Min(medical, request)})

		in.OrdinaryIncome = baseOrdinary + plan.OrdinaryIncome
		in.CapitalGains = plan.CapitalGains
		tb = s.taxes.CalculateTotalTaxes(in)
		settled := math.Abs(tb.Total()-tax) < taxTolerance
		tax = tb.Total()
		if settled || plan.RemainingNeed > 0 {
			break
		}
	}
	return plan, tb
}

// absorb pays an amount the withdrawal plan left unfunded from whatever is
// still invested, most liquid first. It returns the amount paid.
func (s *Simulator) absorb(sc *scenario, amount float64, withdrawn *domain.BucketAmounts) float64 {
	b := &sc.balances
	paid := 0.0
	take := func(bucket, out *float64) float64 {
		v := math.Min(*bucket, amount-paid)
		if v <= 0 {
			return 0
		}
		*bucket -= v
		*out += v
		paid += v
		return v
	}
	take(&b.Cash, &withdrawn.Cash)
	if taxable := b.Taxable; taxable > 0 {
		v := take(&b.Taxable, &withdrawn.Taxable)
		sc.basis -= sc.basis * v / taxable
	}
	take(&b.TaxFree, &withdrawn.TaxFree)
	take(&b.TaxDeferred, &withdrawn.TaxDeferred)
	take(&b.HSA, &withdrawn.HSA)
	return paid
}

func (s *Simulator) grow(sc *scenario, blended float64) {
	b := &sc.balances
	b.TaxDeferred *= 1 + blended
	b.TaxFree *= 1 + blended
	b.Taxable *= 1 + blended
	b.HSA *= 1 + blended
	b.Cash *= 1 + s.cashReturn
}

func (s *Simulator) contribute(sc *scenario, y int) domain.BucketAmounts {
	if s.contribution <= 0 {
		return domain.BucketAmounts{}
	}
	amount := s.contribution * math.Pow(1+s.wageGrowth, float64(y))
	c := domain.BucketAmounts{
		TaxDeferred: amount * s.contribShares.TaxDeferred,
		TaxFree:     amount * s.contribShares.TaxFree,
		Taxable:     amount * s.contribShares.Taxable,
		Cash:        amount * s.contribShares.Cash,
		HSA:         amount * s.contribShares.HSA,
	}
	sc.balances.TaxDeferred += c.TaxDeferred
	sc.balances.TaxFree += c.TaxFree
	sc.balances.Taxable += c.Taxable
	sc.balances.Cash += c.Cash
	sc.balances.HSA += c.HSA
	sc.basis += c.Taxable
	return c
}

// retired reports whether every living member has reached retirement age
func (s *Simulator) retired(ages []int, alive []bool) bool {
	for i, m := range s.members {
		if alive[i] && ages[i] < m.person.RetirementAge {
			return false
		}
	}
	return true
}

// referenceAge is the primary's age, or the survivor's once the primary has died
func (s *Simulator) referenceAge(ages []int, alive []bool) int {
	if idx := s.firstLiving(alive); idx >= 0 {
		return ages[idx]
	}
	return ages[0]
}

// oldestLiving returns the living member whose age drives RMDs on the shared
// tax-deferred bucket
func (s *Simulator) oldestLiving(ages []int, alive []bool) int {
	idx := -1
	for i := range s.members {
		if alive[i] && (idx < 0 || ages[i] > ages[idx]) {
			idx = i
		}
	}
	return idx
}

// firstLiving returns the first living member, whose age drives spending phases
func (s *Simulator) firstLiving(alive []bool) int {
	for i := range s.members {
		if alive[i] {
			return i
		}
	}
	return -1
}

func (s *Simulator) phaseMultiplier(age int) float64 {
	m := 1.0
	for _, ph := range s.phases {
		if age >= ph.startAge {
			m = ph.multiplier
		}
	}
	return m
}

func (s *Simulator) colaIndex(sc *scenario, y int) float64 {
	if s.fixedCOLA != nil {
		return s.fixedCOLA[y]
	}
	return sc.cpi
}

func (s *Simulator) guaranteedIncome(sc *scenario, y int, ages []int, alive []bool) domain.IncomeBreakdown {
	var ib domain.IncomeBreakdown
	cola := s.colaIndex(sc, y)

	for i, m := range s.members {
		if !alive[i] || ages[i] < m.claimAge {
			continue
		}
		benefit := m.ownBenefit
		if len(s.members) > 1 {
			o := 1 - i
			if !alive[o] {
				benefit = m.survivor
			} else if ages[o] >= s.members[o].claimAge {
				benefit += m.spousalTopUp
			}
		}
		ib.SocialSecurity += benefit * cola
	}

	for _, st := range s.income {
		amount := s.streamAmount(st, ages, alive, sc.cpi)
		switch st.kind {
		case domain.IncomePension:
			ib.Pension += amount
		case domain.IncomePartTime:
			ib.Earned += amount
		case domain.IncomeAnnuity:
			ib.Annuity += amount
		default:
			ib.Other += amount
		}
	}
	return ib
}

// streamAmount is the nominal payment of a stream this year. The owner's age
// window applies even after death; survivors receive the survivor percentage.
func (s *Simulator) streamAmount(st incomeStream, ages []int, alive []bool, cpi float64) float64 {
	if st.owner >= len(s.members) {
		return 0
	}
	age := ages[st.owner]
	if age < st.startAge || (st.endAge > 0 && age > st.endAge) {
		return 0
	}
	amount := st.amount
	if st.cola {
		amount *= cpi
	}
	if alive[st.owner] {
		return amount
	}
	other := 1 - st.owner
	if len(s.members) < 2 || !alive[other] {
		return 0
	}
	return amount * st.survivor
}

func (s *Simulator) taxableIncome(ages []int, alive []bool, cpi float64) float64 {
	total := 0.0
	for _, st := range s.income {
		if st.taxable {
			total += s.streamAmount(st, ages, alive, cpi)
		}
	}
	return total
}

func (s *Simulator) wages(ages []int, alive []bool, cpi float64) []float64 {
	wages := make([]float64, len(s.members))
	for _, st := range s.income {
		if st.earnedTax && alive[st.owner] {
			wages[st.owner] += s.streamAmount(st, ages, alive, cpi)
		}
	}
	return wages
}

func (s *Simulator) markDepleted(sc *scenario, year, age int) {
	sc.depleted = true
	y, a := year, age
	sc.result.DepletionYear = &y
	sc.result.DepletionAge = &a
	s.logger.Debug("scenario depleted",
		zap.Int("scenario", sc.index),
		zap.Int("year", year),
		zap.Int("age", age))
}

// sanitize rejects non-finite balances and clamps rounding residue below zero
func (s *Simulator) sanitize(sc *scenario, year int) error {
	b := &sc.balances
	for _, v := range []*float64{&b.TaxDeferred, &b.TaxFree, &b.Taxable, &b.Cash, &b.HSA, &sc.basis} {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return &domain.SimulationRuntimeError{Scenario: sc.index, Year: year, Message: "non-finite balance"}
		}
		if *v < 0 {
			*v = 0
		}
	}
	return nil
}
