package domain

// TradeRecord is the persisted outcome of one plan that reached a
// terminal state. Corresponds to the trade_records table.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Day        string // trading date, YYYY-MM-DD
	Mode       string
	Direction  Direction
	Level      Tier
	Confidence int
	Qty        int64

	EntryTime  int64 // epoch seconds; zero when never filled
	EntryPrice float64
	ExitTime   int64
	ExitPrice  float64
	ExitReason string

	RealizedPnl float64
	Status      Status // terminal: FLAT or MISSED
}

// Exit reason codes.
const (
	ExitReasonStop       = "STOP_HIT"
	ExitReasonTarget2    = "T2_HIT"
	ExitReasonEndOfDay   = "EOD_FLATTEN"
	ExitReasonKillSwitch = "KILL_SWITCH"
	ExitReasonCancelled  = "CANCELLED"
)
