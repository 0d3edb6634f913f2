package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
)

// gatedSource answers each request once its gate is released. The snapshot
// carries the requested k as its OptimalK so results are identifiable.
type gatedSource struct {
	gates map[int]chan struct{}
	fail  map[int]bool
}

func (s *gatedSource) Load(ctx context.Context, req grouping.Request) (*projection.Snapshot, error) {
	if g, ok := s.gates[req.K]; ok {
		<-g
	}
	if s.fail[req.K] {
		return nil, errors.New("upstream down")
	}
	return &projection.Snapshot{OptimalK: req.K}, nil
}

func receive(t *testing.T, l *Loader) Result {
	t.Helper()
	select {
	case r := <-l.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
		return Result{}
	}
}

func TestLoaderLastWriteWins(t *testing.T) {
	slow := make(chan struct{})
	src := &gatedSource{gates: map[int]chan struct{}{3: slow}}
	l := NewLoader(src)

	first := l.Request(context.Background(), grouping.Manual(3))
	second := l.Request(context.Background(), grouping.Manual(6))
	if second != first+1 || l.Latest() != second {
		t.Fatalf("tickets = %d, %d; latest %d", first, second, l.Latest())
	}

	res := receive(t, l)
	if res.Ticket != second || res.Snapshot.OptimalK != 6 {
		t.Fatalf("delivered ticket %d k=%d, want ticket %d k=6", res.Ticket, res.Snapshot.OptimalK, second)
	}

	close(slow)
	l.Close()
	select {
	case r := <-l.Results():
		t.Errorf("stale result delivered: ticket %d", r.Ticket)
	default:
	}
}

func TestLoaderDropsFailures(t *testing.T) {
	src := &gatedSource{fail: map[int]bool{4: true}}
	l := NewLoader(src)
	defer l.Close()

	l.Request(context.Background(), grouping.Manual(2))
	if got := receive(t, l).Snapshot.OptimalK; got != 2 {
		t.Fatalf("k = %d, want 2", got)
	}

	l.Request(context.Background(), grouping.Manual(4))
	deadline := time.Now().Add(2 * time.Second)
	for l.Err() == nil {
		if time.Now().After(deadline) {
			t.Fatal("failure not recorded")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case r := <-l.Results():
		t.Errorf("failed request delivered ticket %d", r.Ticket)
	default:
	}

	l.Request(context.Background(), grouping.Manual(5))
	if got := receive(t, l).Snapshot.OptimalK; got != 5 {
		t.Errorf("k = %d, want 5", got)
	}
	if l.Err() != nil {
		t.Errorf("Err() = %v after success", l.Err())
	}
}

func TestLoaderStaticSource(t *testing.T) {
	snap := &projection.Snapshot{OptimalK: 9}
	l := NewLoader(StaticSource{Snapshot: snap}, WithRequestTimeout(time.Second))
	defer l.Close()
	l.Request(context.Background(), grouping.Auto)
	if got := receive(t, l); got.Snapshot != snap || !got.Request.Automatic {
		t.Errorf("result = %+v", got)
	}
}
