package slots

// Slot is a concrete bookable start/end time within a single day.
type Slot struct {
	Start Clock `json:"start_time"`
	End   Clock `json:"end_time"`
}

// Overlaps reports whether two slots share any time. Touching endpoints
// (one ends exactly where the other starts) do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start < o.End && o.Start < s.End
}

// Window is a package's bookable day shape: the operating bounds, how long
// one session runs, and how far apart candidate start times sit.
type Window struct {
	Start           Clock
	End             Clock
	DurationMinutes int
	IntervalMinutes int
}

// Generate walks the operating window in interval steps and emits every slot
// that fits: a slot starting at t spans exactly the session duration and is
// only emitted while t+duration <= windowEnd. When interval < duration the
// emitted slots overlap; that is intentional, it gives customers fine-grained
// start-time choice and reconciliation resolves the contention.
func Generate(w Window) []Slot {
	if w.DurationMinutes <= 0 || w.IntervalMinutes <= 0 || w.Start >= w.End {
		return []Slot{}
	}

	out := make([]Slot, 0, int(w.End-w.Start)/w.IntervalMinutes+1)
	for t := w.Start; t.Add(w.DurationMinutes) <= w.End; t = t.Add(w.IntervalMinutes) {
		out = append(out, Slot{Start: t, End: t.Add(w.DurationMinutes)})
	}
	return out
}

// Reconcile narrows candidate slots against slots already booked: a booked
// slot removes every candidate whose span intersects it. This is an interval
// check, not a keyed lookup, so a booked 10:00-11:00 session also removes a
// 10:30 candidate even though nobody booked 10:30 itself.
func Reconcile(candidates, booked []Slot) []Slot {
	if len(booked) == 0 {
		return append([]Slot(nil), candidates...)
	}

	available := make([]Slot, 0, len(candidates))
	for _, c := range candidates {
		conflict := false
		for _, b := range booked {
			if c.Overlaps(b) {
				conflict = true
				break
			}
		}
		if !conflict {
			available = append(available, c)
		}
	}
	return available
}
