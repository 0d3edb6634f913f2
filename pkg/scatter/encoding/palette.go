package encoding

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/projection"
)

// DefaultColors is the categorical palette groups cycle through.
var DefaultColors = []string{
	"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4",
	"#f9ca24", "#f0932b", "#6c5ce7", "#a29bfe",
}

// Neutral is the fill for ungrouped and orphaned points.
const Neutral = "#b8bec6"

// Palette assigns colors to group labels in first-seen order. An assignment
// never changes once made, so a label keeps its color for the life of the
// palette even when later snapshots reorder or drop groups.
type Palette struct {
	colors   []string
	assigned map[string]string
	order    []string
}

// NewPalette returns a palette over colors, which must be hex strings.
// An empty list selects [DefaultColors].
func NewPalette(colors ...string) (*Palette, error) {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	norm := make([]string, len(colors))
	for i, c := range colors {
		parsed, err := colorful.Hex(c)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "palette color %d", i)
		}
		norm[i] = parsed.Hex()
	}
	return &Palette{colors: norm, assigned: make(map[string]string)}, nil
}

// MustPalette is NewPalette for colors known to be valid.
func MustPalette(colors ...string) *Palette {
	p, err := NewPalette(colors...)
	if err != nil {
		panic(err)
	}
	return p
}

// Observe assigns colors to every group label of s that has none yet,
// walking the points first and then the centers so that assignment follows
// the snapshot's own ordering.
func (p *Palette) Observe(s *projection.Snapshot) {
	if s == nil {
		return
	}
	idx := s.Index()
	for _, pt := range s.Points {
		if c, ok := idx.Group(pt.ID); ok {
			p.Color(c.Name())
		}
	}
	for _, c := range s.Centers {
		p.Color(c.Name())
	}
}

// Color returns the color for label, assigning the next palette entry on
// first sight.
func (p *Palette) Color(label string) string {
	if c, ok := p.assigned[label]; ok {
		return c
	}
	c := p.colors[len(p.order)%len(p.colors)]
	p.assigned[label] = c
	p.order = append(p.order, label)
	return c
}

// Labels returns every label seen so far in assignment order.
func (p *Palette) Labels() []string { return p.order }

// Tint blends hex toward background by amount in [0, 1] in Lab space. It is
// used for region fills on surfaces without alpha blending.
func Tint(hex, background string, amount float64) string {
	fg, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	bg, err := colorful.Hex(background)
	if err != nil {
		return hex
	}
	return bg.BlendLab(fg, amount).Clamped().Hex()
}
