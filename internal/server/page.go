package server

import (
	"html/template"
	"net/http"

	"github.com/matzehuels/landscape/pkg/errors"
)

var (
	indexTmpl = template.Must(template.New("index").Parse(indexHTML))
	viewTmpl  = template.Must(template.New("view").Parse(viewHTML))
)

type pageData struct {
	ID         string
	Position   string
	Background string
	Text       string
	Panel      string
	Font       string
}

func (s *Server) pageData() pageData {
	th := s.cfg.Theme
	return pageData{Background: th.Background, Text: th.Text, Panel: th.Panel, Font: th.Font}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, indexTmpl, s.pageData())
}

func (s *Server) handleViewPage(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data := s.pageData()
	data.ID, data.Position = v.ID, v.Position
	s.renderPage(w, viewTmpl, data)
}

func (s *Server) renderPage(w http.ResponseWriter, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := t.Execute(w, data); err != nil {
		s.logger.Error("page render failed", "page", t.Name(), "err", errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", t.Name()))
	}
}

const pageStyle = `
<style>
  html, body { margin: 0; height: 100%; background: {{.Background}}; color: {{.Text}}; font-family: {{.Font}}; }
  body { display: flex; flex-direction: column; }
  header { display: flex; gap: 12px; align-items: center; padding: 8px 12px; background: {{.Panel}}; font-size: 13px; }
  header .spacer { flex: 1; }
  button, input { background: {{.Background}}; color: {{.Text}}; border: 1px solid #555; border-radius: 4px; padding: 3px 8px; font: inherit; }
  input[type=number] { width: 4em; }
  #chart { flex: 1; position: relative; overflow: hidden; touch-action: none; user-select: none; }
  #chart svg { position: absolute; inset: 0; width: 100%; height: 100%; }
  #status { opacity: 0.7; }
  #error { color: #e5484d; }
</style>`

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>landscape</title>` + pageStyle + `
</head>
<body>
<header><strong>landscape</strong></header>
<main style="padding: 24px">
  <form id="open">
    <label>Position <input name="position" required placeholder="guards"></label>
    <label>Groups <input name="k" type="number" min="0" value="0" title="0 picks automatically"></label>
    <label>Highlight <input name="highlight" placeholder="12,40"></label>
    <button type="submit">Open</button>
  </form>
</main>
<script>
document.getElementById("open").addEventListener("submit", (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const q = new URLSearchParams();
  if (+f.get("k") > 0) q.set("k", f.get("k"));
  if (f.get("highlight")) q.set("highlight", f.get("highlight"));
  location.href = "/positions/" + encodeURIComponent(f.get("position")) + (q.toString() ? "?" + q : "");
});
</script>
</body>
</html>`

const viewHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>landscape · {{.Position}}</title>` + pageStyle + `
</head>
<body>
<header>
  <strong>{{.Position}}</strong>
  <button data-control="zoom_in" title="Zoom in">+</button>
  <button data-control="zoom_out" title="Zoom out">−</button>
  <button data-control="reset">Reset</button>
  <button data-control="focus">Focus</button>
  <label><input id="auto" type="checkbox"> Auto</label>
  <button data-grouping="decrement" title="Fewer groups">−</button>
  <input id="k" type="number" min="1">
  <button data-grouping="increment" title="More groups">+</button>
  <input id="highlight" placeholder="highlight ids">
  <span class="spacer"></span>
  <span id="status"></span>
  <span id="error"></span>
  <a href="scene.svg" download>SVG</a>
  <a href="scene.png" download>PNG</a>
</header>
<div id="chart"></div>
<script>
(() => {
  const chart = document.getElementById("chart");
  const statusEl = document.getElementById("status");
  const errorEl = document.getElementById("error");
  const auto = document.getElementById("auto");
  const k = document.getElementById("k");
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(proto + "//" + location.host + "/views/{{.ID}}/ws");
  const send = (m) => { if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(m)); };

  const point = (e) => {
    const svg = chart.querySelector("svg");
    const r = chart.getBoundingClientRect();
    let x = e.clientX - r.left, y = e.clientY - r.top;
    if (svg && svg.viewBox.baseVal && r.width > 0) {
      x *= svg.viewBox.baseVal.width / r.width;
      y *= svg.viewBox.baseVal.height / r.height;
    }
    return { x, y };
  };

  ws.addEventListener("open", () => {
    const r = chart.getBoundingClientRect();
    send({ type: "resize", width: r.width, height: r.height });
  });
  ws.addEventListener("close", () => { errorEl.textContent = "disconnected"; });
  ws.addEventListener("message", (ev) => {
    const m = JSON.parse(ev.data);
    switch (m.type) {
    case "scene":
      chart.innerHTML = m.svg;
      break;
    case "frame": {
      const vp = document.getElementById("landscape-viewport");
      if (vp) vp.setAttribute("transform", m.transform);
      const tip = document.getElementById("landscape-tooltip");
      if (tip) tip.outerHTML = m.tooltip;
      break;
    }
    case "status":
      auto.checked = m.status.automatic;
      k.min = m.status.min; k.max = m.status.max; k.value = m.status.k;
      statusEl.textContent = m.status.loading ? "loading…" :
        (m.status.automatic ? "auto" : "manual") + " · " + m.status.k + " groups";
      if (!m.status.loading) errorEl.textContent = "";
      break;
    case "error":
      errorEl.textContent = m.error.message;
      break;
    }
  });

  new ResizeObserver(() => {
    const r = chart.getBoundingClientRect();
    send({ type: "resize", width: r.width, height: r.height });
  }).observe(chart);

  chart.addEventListener("pointerdown", (e) => {
    chart.setPointerCapture(e.pointerId);
    send({ type: "pointer", action: "down", ...point(e) });
  });
  chart.addEventListener("pointermove", (e) => send({ type: "pointer", action: "move", ...point(e) }));
  chart.addEventListener("pointerup", (e) => send({ type: "pointer", action: "up", ...point(e) }));
  chart.addEventListener("pointerleave", () => send({ type: "pointer", action: "leave" }));
  chart.addEventListener("wheel", (e) => {
    e.preventDefault();
    send({ type: "wheel", delta: -Math.sign(e.deltaY), ...point(e) });
  }, { passive: false });

  document.querySelectorAll("[data-control]").forEach((b) =>
    b.addEventListener("click", () => send({ type: "control", action: b.dataset.control })));
  document.querySelectorAll("[data-grouping]").forEach((b) =>
    b.addEventListener("click", () => send({ type: "grouping", action: b.dataset.grouping })));
  auto.addEventListener("change", () => send({ type: "grouping", action: auto.checked ? "auto" : "manual" }));
  k.addEventListener("change", () => send({ type: "grouping", action: "count", k: +k.value }));
  document.getElementById("highlight").addEventListener("change", (e) => {
    const ids = e.target.value.split(/[\s,]+/).filter(Boolean).map(Number).filter(Number.isInteger);
    send({ type: "highlight", ids });
  });
})();
</script>
</body>
</html>`
