package domain

// Snapshot is the per-symbol state contract consumed by the external
// persistence/UI layer. Field names and enumerated status values must
// be preserved exactly for downstream compatibility.
type Snapshot struct {
	Symbol        string       `json:"symbol"`
	LTP           float64      `json:"ltp"`
	Tags          TagSnapshot  `json:"tags"`
	Plan          PlanSnapshot `json:"plan"`
	UnrealizedPnl float64      `json:"unrealized_pnl"`
	RealizedPnl   float64      `json:"realized_pnl"`
	HasPosition   bool         `json:"has_position"`
}

// TagSnapshot carries the five tags as strings; empty means not locked
// or not computable.
type TagSnapshot struct {
	PDC             string `json:"pdc"`
	OL              string `json:"ol"`
	OT              string `json:"ot"`
	FirstCandleType string `json:"first_candle_type"`
	RangeStatus     string `json:"range_status"`
}

// PlanSnapshot is the wire form of a Plan.
type PlanSnapshot struct {
	Direction  string  `json:"direction"`
	Confidence int     `json:"confidence"`
	Level      string  `json:"level"`
	EntryRef   float64 `json:"entry_ref"`
	Trigger    float64 `json:"trigger"`
	Stop       float64 `json:"stop"`
	T1         float64 `json:"t1"`
	T2         float64 `json:"t2"`
	Qty        int64   `json:"qty"`
	Status     string  `json:"status"`
}

// SnapshotTags flattens a TagSet into its wire form.
func SnapshotTags(t TagSet) TagSnapshot {
	var ts TagSnapshot
	if t.PDC != nil {
		ts.PDC = string(*t.PDC)
	}
	if t.OL != nil {
		ts.OL = string(*t.OL)
	}
	if t.OT != nil {
		ts.OT = string(*t.OT)
	}
	if t.FirstCandle != nil {
		ts.FirstCandleType = string(*t.FirstCandle)
	}
	if t.Range != nil {
		ts.RangeStatus = string(*t.Range)
	}
	return ts
}

// SnapshotPlan flattens a Plan into its wire form.
func SnapshotPlan(p Plan) PlanSnapshot {
	return PlanSnapshot{
		Direction:  string(p.Direction),
		Confidence: p.Confidence,
		Level:      string(p.Level),
		EntryRef:   p.EntryRef,
		Trigger:    p.Trigger,
		Stop:       p.Stop,
		T1:         p.T1,
		T2:         p.T2,
		Qty:        p.Qty,
		Status:     string(p.Status),
	}
}
