// Package interaction turns pointer events into hover, selection and pan
// gestures.
//
// Events arrive in container coordinates at a single stable target (the
// chart surface) and are resolved against the drawn points through a
// [HitTester], so every point present now or in a later snapshot behaves
// the same without per-shape bindings.
package interaction

import (
	"github.com/golang/geo/r2"
)

// DefaultDragThreshold is how far, in screen pixels, the pointer may travel
// between press and release and still count as a click.
const DefaultDragThreshold = 4

// Hit is the point under the pointer.
type Hit struct {
	ID    int
	Group string // resolved group key, empty for ungrouped points
}

// HitTester resolves a container coordinate to the topmost drawn point.
type HitTester interface {
	HitTest(p r2.Point) (Hit, bool)
}

// Viewport is the gesture side of the viewport controller.
type Viewport interface {
	BeginGesture()
	EndGesture()
	Gesturing() bool
	Drag(dx, dy float64) bool
	Wheel(notches float64, at r2.Point) bool
}

// Change reports what an event changed.
type Change uint8

const (
	// ContentChanged means hover or selection changed and the scene must be
	// rebuilt.
	ContentChanged Change = 1 << iota
	// TooltipMoved means only the tooltip anchor moved.
	TooltipMoved
	// ViewChanged means the viewport transform moved.
	ViewChanged
)

// Has reports whether c includes flag.
func (c Change) Has(flag Change) bool { return c&flag != 0 }

// State is the local hover and selection state.
type State struct {
	Selected string   // selected group key, empty for none
	Hovered  int      // hovered point id, valid when HasHover
	HasHover bool     // whether a point is hovered
	Pointer  r2.Point // last pointer position while hovering
}

// Handler owns State. It is single-writer and does no I/O.
type Handler struct {
	threshold float64
	hits      HitTester
	view      Viewport
	state     State

	pressed  bool
	dragging bool
	pressAt  r2.Point
	last     r2.Point
}

// New returns a handler. A non-positive threshold selects
// [DefaultDragThreshold].
func New(hits HitTester, view Viewport, threshold float64) *Handler {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &Handler{threshold: threshold, hits: hits, view: view}
}

// State returns a copy of the current state.
func (h *Handler) State() State { return h.state }

// Dragging reports whether the pressed pointer has turned into a pan.
func (h *Handler) Dragging() bool { return h.dragging }

// PointerDown records a press. Nothing changes until the pointer moves or is
// released.
func (h *Handler) PointerDown(p r2.Point) {
	h.pressed = true
	h.dragging = false
	h.pressAt = p
	h.last = p
}

// PointerMove handles motion. While pressed, motion past the threshold starts
// a pan gesture and hover is suppressed until it ends; otherwise the point
// under the pointer becomes the hovered point.
func (h *Handler) PointerMove(p r2.Point) Change {
	if h.pressed {
		if !h.dragging && p.Sub(h.pressAt).Norm() > h.threshold {
			h.dragging = true
			h.view.BeginGesture()
		}
		if h.dragging {
			var ch Change
			if h.clearHover() {
				ch |= ContentChanged
			}
			if h.view.Drag(p.X-h.last.X, p.Y-h.last.Y) {
				ch |= ViewChanged
			}
			h.last = p
			return ch
		}
	}
	if h.view.Gesturing() {
		return 0
	}
	return h.hover(p)
}

// PointerUp ends a press. A press that never passed the drag threshold is a
// click; one that did ends the pan and produces no click.
func (h *Handler) PointerUp(p r2.Point) Change {
	if !h.pressed {
		return 0
	}
	h.pressed = false
	if h.dragging {
		h.dragging = false
		h.view.EndGesture()
		return 0
	}
	return h.Click(p)
}

// PointerLeave clears hover and abandons any press.
func (h *Handler) PointerLeave() Change {
	if h.dragging {
		h.view.EndGesture()
	}
	h.pressed, h.dragging = false, false
	if h.clearHover() {
		return ContentChanged
	}
	return 0
}

// Wheel zooms around the pointer.
func (h *Handler) Wheel(notches float64, p r2.Point) Change {
	var ch Change
	if h.view.Wheel(notches, p) {
		ch |= ViewChanged
	}
	// The content under the pointer moved; drop the stale hover.
	if ch != 0 && h.clearHover() {
		ch |= ContentChanged
	}
	return ch
}

// Click toggles the group of the point under p, or clears the selection
// when p hits the background. Clicking an ungrouped point does nothing.
func (h *Handler) Click(p r2.Point) Change {
	hit, ok := h.hits.HitTest(p)
	if !ok {
		if h.state.Selected == "" {
			return 0
		}
		h.state.Selected = ""
		return ContentChanged
	}
	if hit.Group == "" {
		return 0
	}
	if h.state.Selected == hit.Group {
		h.state.Selected = ""
	} else {
		h.state.Selected = hit.Group
	}
	return ContentChanged
}

// Select sets the selected group directly, e.g. from a legend or a flag.
func (h *Handler) Select(group string) Change {
	if h.state.Selected == group {
		return 0
	}
	h.state.Selected = group
	return ContentChanged
}

// Retain drops the selection and hover when a new snapshot no longer has
// them. keepGroup and keepPoint report what the new snapshot contains.
func (h *Handler) Retain(keepGroup func(string) bool, keepPoint func(int) bool) {
	if h.state.Selected != "" && !keepGroup(h.state.Selected) {
		h.state.Selected = ""
	}
	if h.state.HasHover && !keepPoint(h.state.Hovered) {
		h.clearHover()
	}
}

func (h *Handler) hover(p r2.Point) Change {
	hit, ok := h.hits.HitTest(p)
	if !ok {
		if h.clearHover() {
			return ContentChanged
		}
		return 0
	}
	h.state.Pointer = p
	if h.state.HasHover && h.state.Hovered == hit.ID {
		return TooltipMoved
	}
	h.state.Hovered, h.state.HasHover = hit.ID, true
	return ContentChanged | TooltipMoved
}

func (h *Handler) clearHover() bool {
	if !h.state.HasHover {
		return false
	}
	h.state.Hovered, h.state.HasHover = 0, false
	return true
}
