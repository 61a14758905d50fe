// Package combat implements the deterministic tick-based resolution of a
// head-to-head contest. It has no ledger or storage dependencies: given the
// same seed, levels and rules it always produces the same event log and
// winner, which is what lets a settlement be replayed and audited.
package combat

// EventKind classifies a single tick's outcome
type EventKind string

const (
	EventMiss  EventKind = "miss"
	EventBlock EventKind = "block"
	EventPunch EventKind = "punch"
	EventCrit  EventKind = "crit"
)

// Rules holds the tunable constants of the simulation. Thresholds partition
// the roll range [0,100): rolls below BlockThreshold miss, below
// PunchThreshold block, below CritThreshold punch, and everything above
// lands a critical hit. Higher rolls favour the attacker, so the
// level-advantage bias is added to the roll.
type Rules struct {
	BiasWeight     int64 // roll bonus per level of advantage
	BlockThreshold int64
	PunchThreshold int64
	CritThreshold  int64
	PunchDamage    int64
	CritDamage     int64
	MaxDuration    int // seconds before the fight is called
}

// DefaultRules returns the production simulation constants
func DefaultRules() Rules {
	return Rules{
		BiasWeight:     3,
		BlockThreshold: 20,
		PunchThreshold: 45,
		CritThreshold:  85,
		PunchDamage:    10,
		CritDamage:     25,
		MaxDuration:    180,
	}
}

// Fighter is one side of the contest
type Fighter struct {
	AccountID int64
	Level     int64
	Health    int64
}

// TickEvent is the durable record of one simulation tick
type TickEvent struct {
	Second     int
	AttackerID int64
	DefenderID int64
	Kind       EventKind
	Damage     int64
	Health1    int64
	Health2    int64
}

// Result is the outcome of a full simulation
type Result struct {
	WinnerID     int64
	LoserID      int64
	Health1      int64
	Health2      int64
	DamageTaken1 int64
	DamageTaken2 int64
	Duration     int
	Events       []TickEvent
}

// roll derives a deterministic pseudo-random value in [0,100) from the seed
// and the tick second using a linear congruential step. Any stable generator
// would do; determinism under identical inputs is the contract.
func roll(seed int64, second int) int64 {
	state := uint64(seed) ^ (uint64(second)+1)*0x9E3779B97F4A7C15
	state = state*6364136223846793005 + 1442695040888963407
	state = state*6364136223846793005 + 1442695040888963407
	return int64((state >> 33) % 100)
}

// RunTick resolves a single second of combat. Even seconds fighter 1
// attacks, odd seconds fighter 2. Returns the updated healths and the event.
func RunTick(second int, health1, health2, level1, level2, seed int64, rules Rules) (int64, int64, TickEvent) {
	attackerIsFirst := second%2 == 0

	var attackerLevel, defenderLevel int64
	if attackerIsFirst {
		attackerLevel, defenderLevel = level1, level2
	} else {
		attackerLevel, defenderLevel = level2, level1
	}

	r := roll(seed, second) + (attackerLevel-defenderLevel)*rules.BiasWeight
	if r < 0 {
		r = 0
	}
	if r > 99 {
		r = 99
	}

	var kind EventKind
	var damage int64
	switch {
	case r < rules.BlockThreshold:
		kind = EventMiss
	case r < rules.PunchThreshold:
		kind = EventBlock
	case r < rules.CritThreshold:
		kind = EventPunch
		damage = rules.PunchDamage
	default:
		kind = EventCrit
		damage = rules.CritDamage
	}

	if attackerIsFirst {
		health2 -= damage
		if health2 < 0 {
			health2 = 0
		}
	} else {
		health1 -= damage
		if health1 < 0 {
			health1 = 0
		}
	}

	event := TickEvent{
		Second:  second,
		Kind:    kind,
		Damage:  damage,
		Health1: health1,
		Health2: health2,
	}
	return health1, health2, event
}

// Checkpoint is invoked after every tick so a caller can persist the live
// state of the fight. A nil checkpoint skips persistence entirely.
type Checkpoint func(TickEvent)

// RunFullCombat simulates the whole contest tick by tick until one side's
// health reaches zero or the maximum duration elapses.
//
// Winner selection: higher remaining health wins; equal health falls back to
// whoever took less total damage; if that also ties, fighter 1 (the host
// side) wins. The rule is arbitrary but fixed, so identical inputs always
// settle identically.
func RunFullCombat(f1, f2 Fighter, seed int64, rules Rules, checkpoint Checkpoint) Result {
	h1, h2 := f1.Health, f2.Health
	start1, start2 := f1.Health, f2.Health

	result := Result{Events: make([]TickEvent, 0, rules.MaxDuration)}

	second := 0
	for ; second < rules.MaxDuration; second++ {
		var event TickEvent
		h1, h2, event = RunTick(second, h1, h2, f1.Level, f2.Level, seed, rules)
		if second%2 == 0 {
			event.AttackerID, event.DefenderID = f1.AccountID, f2.AccountID
		} else {
			event.AttackerID, event.DefenderID = f2.AccountID, f1.AccountID
		}

		result.Events = append(result.Events, event)
		if checkpoint != nil {
			checkpoint(event)
		}

		if h1 <= 0 || h2 <= 0 {
			second++
			break
		}
	}

	result.Health1 = h1
	result.Health2 = h2
	result.DamageTaken1 = start1 - h1
	result.DamageTaken2 = start2 - h2
	result.Duration = second

	switch {
	case h1 > h2:
		result.WinnerID, result.LoserID = f1.AccountID, f2.AccountID
	case h2 > h1:
		result.WinnerID, result.LoserID = f2.AccountID, f1.AccountID
	case result.DamageTaken1 < result.DamageTaken2:
		result.WinnerID, result.LoserID = f1.AccountID, f2.AccountID
	case result.DamageTaken2 < result.DamageTaken1:
		result.WinnerID, result.LoserID = f2.AccountID, f1.AccountID
	default:
		result.WinnerID, result.LoserID = f1.AccountID, f2.AccountID
	}

	return result
}
