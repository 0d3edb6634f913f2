// Package grouping holds the state of the grouping control: automatic group
// count, or a manual count within bounds.
//
// The panel only reports what the user asked for. Whoever owns the data
// recomputes the grouping and eventually supplies a new snapshot; until then
// the previous snapshot stays on screen.
package grouping

import "strconv"

// Default bounds and starting count for manual grouping.
const (
	DefaultMin   = 2
	DefaultMax   = 10
	DefaultCount = 5
)

// Request is what the panel asks the data owner for.
type Request struct {
	Automatic bool
	K         int // manual group count, zero when Automatic
}

// Auto is the automatic-grouping request.
var Auto = Request{Automatic: true}

// Manual returns a request for k groups.
func Manual(k int) Request { return Request{K: k} }

// Count returns the manual count and whether one was requested. It mirrors
// the nullable integer of the wire API.
func (r Request) Count() (int, bool) {
	if r.Automatic {
		return 0, false
	}
	return r.K, true
}

func (r Request) String() string {
	if r.Automatic {
		return "auto"
	}
	return strconv.Itoa(r.K)
}

// Notify receives grouping requests. It must not block.
type Notify func(Request)

// Panel is the grouping control state.
type Panel struct {
	min, max  int
	automatic bool
	count     int
	notify    Notify
}

// NewPanel returns a panel in automatic mode with the manual count preset
// to count, clamped to [min, max]. Invalid bounds fall back to the defaults.
func NewPanel(min, max, count int, notify Notify) *Panel {
	if min < 1 || max < min {
		min, max = DefaultMin, DefaultMax
	}
	p := &Panel{min: min, max: max, automatic: true, notify: notify}
	p.count = p.clamp(count)
	return p
}

// SetNotify replaces the outward sink.
func (p *Panel) SetNotify(n Notify) { p.notify = n }

// Automatic reports whether automatic grouping is on.
func (p *Panel) Automatic() bool { return p.automatic }

// Count returns the manual group count, kept even while automatic.
func (p *Panel) Count() int { return p.count }

// Bounds returns the allowed manual range.
func (p *Panel) Bounds() (min, max int) { return p.min, p.max }

// Request returns the request matching the current state.
func (p *Panel) Request() Request {
	if p.automatic {
		return Auto
	}
	return Manual(p.count)
}

// SetAutomatic switches mode and notifies when the mode changed.
func (p *Panel) SetAutomatic(on bool) {
	if p.automatic == on {
		return
	}
	p.automatic = on
	p.emit()
}

// Toggle flips between automatic and manual.
func (p *Panel) Toggle() { p.SetAutomatic(!p.automatic) }

// SetCount stores a manual count, clamped to the bounds. It notifies only
// in manual mode and only when the stored count changed.
func (p *Panel) SetCount(k int) {
	k = p.clamp(k)
	if k == p.count {
		return
	}
	p.count = k
	if !p.automatic {
		p.emit()
	}
}

// Increment raises the manual count by one.
func (p *Panel) Increment() { p.SetCount(p.count + 1) }

// Decrement lowers the manual count by one.
func (p *Panel) Decrement() { p.SetCount(p.count - 1) }

func (p *Panel) clamp(k int) int {
	return max(p.min, min(p.max, k))
}

func (p *Panel) emit() {
	if p.notify != nil {
		p.notify(p.Request())
	}
}
