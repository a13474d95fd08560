package domain

// Direction is a trade direction.
type Direction string

// Direction values.
const (
	DirectionBull Direction = "BULL"
	DirectionBear Direction = "BEAR"
	DirectionNone Direction = "NONE"
)

// Sign returns +1 for BULL, -1 for BEAR, 0 otherwise.
func (d Direction) Sign() float64 {
	switch d {
	case DirectionBull:
		return 1
	case DirectionBear:
		return -1
	}
	return 0
}

// Tier is a specificity level of historical pattern match,
// most specific (L3) tried first.
type Tier string

// Tier values. TierNA marks an abstained pick.
const (
	TierL3 Tier = "L3"
	TierL2 Tier = "L2"
	TierL1 Tier = "L1"
	TierL0 Tier = "L0"
	TierNA Tier = "NA"
)

// PickTiers is the fallback order walked by the picker.
var PickTiers = []Tier{TierL3, TierL2, TierL1, TierL0}

// Status is the plan state-machine state. Values are part of the
// snapshot contract consumed downstream and must not change.
type Status string

// Status values.
const (
	StatusIdle      Status = "IDLE"
	StatusArmed     Status = "ARMED"
	StatusOrderSent Status = "ORDER_SENT"
	StatusLive      Status = "LIVE"
	StatusFlat      Status = "FLAT"
	StatusAbstained Status = "ABSTAINED"
	StatusMissed    Status = "MISSED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusFlat, StatusAbstained, StatusMissed:
		return true
	}
	return false
}

// Plan is the per-symbol trade intent. Owned exclusively by the
// decision manager; mutated only by the manager and OMS callbacks.
type Plan struct {
	Mode       string
	Direction  Direction
	Confidence int // percent, [0,100]
	Level      Tier
	EntryRef   float64
	Trigger    float64
	Stop       float64
	T1         float64
	T2         float64
	Qty        int64
	Status     Status
}

// NewPlan returns a fresh pre-session plan.
func NewPlan(mode string) Plan {
	return Plan{
		Mode:      mode,
		Direction: DirectionNone,
		Level:     TierNA,
		Status:    StatusIdle,
	}
}
