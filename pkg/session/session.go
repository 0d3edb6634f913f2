// Package session stores the state of live chart views.
//
// A view is one browser tab looking at one position. The chart itself lives
// in the connection's goroutine; the session keeps what is needed to rebuild
// it when the tab reconnects: the position, grouping request, highlight set,
// selection and transform.
//
// Two backends implement [Store]:
//   - [MemoryStore]: in-process, for a single server
//   - [RedisStore]: shared, for several servers behind a load balancer
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
)

// DefaultTTL is how long an idle view survives.
const DefaultTTL = 30 * time.Minute

// ErrExpired is returned when a view exists but has exceeded its TTL.
var ErrExpired = errors.New("view expired")

// View is the persisted state of one live view.
type View struct {
	ID        string             `json:"id"`
	Position  string             `json:"position"`
	Automatic bool               `json:"automatic"`
	Groups    int                `json:"groups,omitempty"`
	Highlight []int              `json:"highlight,omitempty"`
	Selected  string             `json:"selected,omitempty"`
	Transform viewport.Transform `json:"transform"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// New creates a view of position with a fresh id.
func New(position string, req grouping.Request, highlight []int, ttl time.Duration) *View {
	now := time.Now()
	v := &View{
		ID:        uuid.NewString(),
		Position:  position,
		Highlight: highlight,
		Transform: viewport.Identity,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	v.SetRequest(req)
	return v
}

// Request returns the view's grouping request.
func (v *View) Request() grouping.Request {
	if v.Automatic {
		return grouping.Auto
	}
	return grouping.Manual(v.Groups)
}

// SetRequest records req.
func (v *View) SetRequest(req grouping.Request) {
	v.Automatic = req.Automatic
	v.Groups, _ = req.Count()
}

// IsExpired reports whether the view outlived its TTL at now.
func (v *View) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// Touch extends the view's lifetime to now+ttl.
func (v *View) Touch(now time.Time, ttl time.Duration) {
	v.ExpiresAt = now.Add(ttl)
}

// ValidID reports whether id looks like a view id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for view storage backends.
type Store interface {
	// Get retrieves a view by id.
	// Returns nil, nil if the view doesn't exist.
	// Returns nil, ErrExpired if the view exists but has expired.
	Get(ctx context.Context, id string) (*View, error)

	// Set stores a view.
	Set(ctx context.Context, v *View) error

	// Delete removes a view.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired views and reports how many.
	Cleanup(ctx context.Context) (int, error)
}
