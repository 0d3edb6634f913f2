package server

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/geo/r2"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
	"github.com/matzehuels/landscape/pkg/scatter/viewport"
	"github.com/matzehuels/landscape/pkg/session"
)

const (
	writeTimeout = 10 * time.Second
	readLimit    = 64 << 10
	svgPrefix    = "landscape"
)

// clientMsg is an event from the browser.
//
//	{"type":"pointer","action":"down|move|up|leave|click","x":1,"y":2}
//	{"type":"wheel","delta":1,"x":1,"y":2}
//	{"type":"control","action":"zoom_in|zoom_out|reset|focus"}
//	{"type":"resize","width":800,"height":600}
//	{"type":"highlight","ids":[12,40]}
//	{"type":"grouping","action":"auto|manual|toggle|increment|decrement|count","k":5}
//	{"type":"select","group":"Playmakers"}
type clientMsg struct {
	Type   string  `json:"type"`
	Action string  `json:"action,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	IDs    []int   `json:"ids,omitempty"`
	K      int     `json:"k,omitempty"`
	Group  string  `json:"group,omitempty"`
}

// serverMsg is a frame sent to the browser. A "scene" replaces the whole
// SVG; a "frame" only moves the viewport group and swaps the tooltip.
type serverMsg struct {
	Type      string     `json:"type"`
	Version   uint64     `json:"version,omitempty"`
	SVG       string     `json:"svg,omitempty"`
	Transform string     `json:"transform,omitempty"`
	Tooltip   string     `json:"tooltip,omitempty"`
	Status    *statusMsg `json:"status,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
}

// statusMsg mirrors the grouping panel for the page's controls.
type statusMsg struct {
	Loading   bool   `json:"loading"`
	Automatic bool   `json:"automatic"`
	K         int    `json:"k"`
	OptimalK  int    `json:"optimal_k,omitempty"`
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	Selected  string `json:"selected,omitempty"`
}

// liveView is one websocket connection. All fields are owned by the
// connection's goroutine except conn reads, which happen in readLoop.
type liveView struct {
	s      *Server
	conn   *websocket.Conn
	view   *session.View
	chart  *scatter.Chart
	loader *fetch.Loader

	loading       bool
	pendingSelect string
	dirty         bool // view state changed since the last save

	sentVersion   uint64
	sentTransform viewport.Transform
	sentTooltip   string
	sentStatus    statusMsg
	sentErr       error
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	src, err := s.cfg.Sources(v.Position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	lv, err := s.newLiveView(ctx, conn, v, src)
	defer lv.loader.Close()
	if err != nil {
		_ = lv.send(serverMsg{Type: "error", Error: &errorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}})
		return
	}

	opened := time.Now()
	observability.View().OnViewOpen(ctx, v.ID, v.Position)
	defer func() {
		v.Transform = lv.chart.Viewport().Target()
		s.closeView(context.WithoutCancel(ctx), v, opened)
	}()

	lv.run(ctx)
}

func (s *Server) newLiveView(ctx context.Context, conn *websocket.Conn, v *session.View, src fetch.Source) (*liveView, error) {
	lv := &liveView{
		s:             s,
		conn:          conn,
		view:          v,
		pendingSelect: v.Selected,
		loader:        fetch.NewLoader(src, fetch.WithLoaderLogger(s.logger)),
	}
	chart, err := scatter.New(s.cfg.Chart,
		scatter.WithLogger(s.logger),
		scatter.WithNotify(func(req grouping.Request) { lv.request(ctx, req) }))
	if err != nil {
		return lv, err
	}
	lv.chart = chart
	chart.SetHighlight(projection.NewIDSet(v.Highlight...))
	chart.Viewport().Jump(v.Transform)

	req := v.Request()
	panel := chart.Grouping()
	if k, manual := req.Count(); manual {
		panel.SetCount(k)
		panel.SetAutomatic(false) // notifies
	} else {
		lv.request(ctx, req)
	}
	return lv, nil
}

func (lv *liveView) request(ctx context.Context, req grouping.Request) {
	lv.loading = true
	lv.view.SetRequest(req)
	lv.dirty = true
	observability.View().OnGroupingRequest(ctx, lv.view.ID, req.String())
	lv.loader.Request(ctx, req)
}

func (lv *liveView) run(ctx context.Context) {
	in := make(chan clientMsg)
	go lv.readLoop(ctx, in)

	ticker := time.NewTicker(time.Second / time.Duration(lv.s.cfg.FrameRate))
	defer ticker.Stop()

	if err := lv.flush(); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			lv.handle(msg)
		case res := <-lv.loader.Results():
			lv.loading = false
			lv.chart.SetSnapshot(res.Snapshot)
			if lv.pendingSelect != "" {
				lv.chart.Select(lv.pendingSelect)
				lv.pendingSelect = ""
			}
		case now := <-ticker.C:
			if !lv.chart.Advance(now) && lv.loader.Err() == lv.sentErr {
				continue
			}
		}
		if err := lv.flush(); err != nil {
			lv.s.logger.Debug("live view write failed", "id", lv.view.ID, "err", err)
			return
		}
		lv.save(ctx)
	}
}

// readLoop decodes client messages until the connection fails.
func (lv *liveView) readLoop(ctx context.Context, in chan<- clientMsg) {
	defer close(in)
	for {
		var msg clientMsg
		if err := lv.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				lv.s.logger.Debug("live view read failed", "id", lv.view.ID, "err", err)
			}
			return
		}
		select {
		case in <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (lv *liveView) handle(msg clientMsg) {
	p := r2.Point{X: msg.X, Y: msg.Y}
	c := lv.chart
	switch msg.Type {
	case "pointer":
		switch msg.Action {
		case "down":
			c.PointerDown(p)
		case "move":
			c.PointerMove(p)
		case "up":
			c.PointerUp(p)
		case "leave":
			c.PointerLeave()
		case "click":
			c.Click(p)
		}
	case "wheel":
		c.Wheel(msg.Delta, p)
	case "control":
		view := c.Viewport()
		switch msg.Action {
		case "zoom_in":
			view.ZoomIn()
		case "zoom_out":
			view.ZoomOut()
		case "reset":
			view.Reset()
		case "focus":
			view.Focus()
		}
	case "resize":
		if msg.Width > 0 && msg.Height > 0 {
			c.Resize(clampSize(msg.Width), clampSize(msg.Height))
		}
	case "highlight":
		ids := projection.NewIDSet(msg.IDs...)
		c.SetHighlight(ids)
		lv.view.Highlight = ids.Sorted()
		lv.dirty = true
	case "grouping":
		panel := c.Grouping()
		switch msg.Action {
		case "auto":
			panel.SetAutomatic(true)
		case "manual":
			panel.SetAutomatic(false)
		case "toggle":
			panel.Toggle()
		case "increment":
			panel.Increment()
		case "decrement":
			panel.Decrement()
		case "count":
			panel.SetCount(msg.K)
		}
	case "select":
		if msg.Group == "" || !c.SelectLabel(msg.Group) {
			c.Select("")
		}
	}
}

// flush sends whatever changed since the last flush.
func (lv *liveView) flush() error {
	scene := lv.chart.Scene()
	opts := []sink.SVGOption{sink.WithTheme(lv.s.cfg.Theme), sink.WithIDPrefix(svgPrefix)}

	if v := lv.chart.Version(); v != lv.sentVersion {
		if err := lv.send(serverMsg{Type: "scene", Version: v, SVG: string(sink.RenderSVG(scene, opts...))}); err != nil {
			return err
		}
		lv.sentVersion = v
		lv.sentTransform = scene.Transform
		lv.sentTooltip = string(sink.RenderTooltip(scene, opts...))
	} else {
		tooltip := string(sink.RenderTooltip(scene, opts...))
		if scene.Transform != lv.sentTransform || tooltip != lv.sentTooltip {
			if err := lv.send(serverMsg{Type: "frame", Transform: scene.Transform.String(), Tooltip: tooltip}); err != nil {
				return err
			}
			lv.sentTransform, lv.sentTooltip = scene.Transform, tooltip
		}
	}

	if st := lv.status(scene); st != lv.sentStatus {
		if err := lv.send(serverMsg{Type: "status", Status: &st}); err != nil {
			return err
		}
		lv.sentStatus = st
	}

	if err := lv.loader.Err(); err != nil && err != lv.sentErr {
		if err := lv.send(serverMsg{Type: "error", Error: &errorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}}); err != nil {
			return err
		}
		lv.sentErr = err
		lv.loading = false
	}
	return nil
}

func (lv *liveView) status(scene scatter.Scene) statusMsg {
	panel := lv.chart.Grouping()
	lo, hi := panel.Bounds()
	return statusMsg{
		Loading:   lv.loading,
		Automatic: panel.Automatic(),
		K:         panel.Count(),
		OptimalK:  scene.Grouping.OptimalK,
		Min:       lo,
		Max:       hi,
		Selected:  lv.chart.Interaction().Selected,
	}
}

// save persists selection changes and any flagged state.
func (lv *liveView) save(ctx context.Context) {
	if sel := lv.chart.Interaction().Selected; sel != lv.view.Selected && lv.pendingSelect == "" {
		lv.view.Selected = sel
		lv.dirty = true
	}
	if !lv.dirty {
		return
	}
	lv.view.Transform = lv.chart.Viewport().Target()
	lv.view.Touch(time.Now(), lv.s.cfg.ViewTTL)
	if err := lv.s.store.Set(ctx, lv.view); err != nil {
		lv.s.logger.Warn("saving view failed", "id", lv.view.ID, "err", err)
		return
	}
	lv.dirty = false
}

func (lv *liveView) send(msg serverMsg) error {
	_ = lv.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return lv.conn.WriteJSON(msg)
}
