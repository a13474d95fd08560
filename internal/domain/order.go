package domain

// Order is the OMS-internal record of one open paper order.
// One live order per symbol at a time; created on place_entry,
// destroyed on force_exit or a terminal fill outcome.
type Order struct {
	OrderID string
	Symbol  string
	Side    Direction
	EntryPx float64 // trigger price the order was armed at
	Qty     int64

	Filled  bool
	FillPx  float64
	StopHit bool
	T1Hit   bool
	T2Hit   bool
}
