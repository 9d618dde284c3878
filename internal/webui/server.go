package webui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/cwbudde/algo-kspace/internal/config"
	"github.com/cwbudde/algo-kspace/internal/imaging"
	"github.com/cwbudde/algo-kspace/internal/session"
	"github.com/cwbudde/algo-kspace/kspace/overlay"
	"github.com/cwbudde/algo-kspace/kspace/recon"
	"github.com/cwbudde/algo-kspace/kspace/render"
	"github.com/cwbudde/algo-kspace/kspace/transform"
	"github.com/cwbudde/algo-kspace/measure/quality"
)

const maxUploadBytes = 32 << 20

// Server serves the interactive k-space viewer: HTTP endpoints for the
// rendered spectrum and reconstruction, and a websocket channel that
// feeds pointer gestures into the overlay controller and streams
// reconstruction results back out.
type Server struct {
	addr     string
	maxDim   int
	debounce time.Duration
	log      *slog.Logger
	store    *session.Store

	svc      *recon.Service
	hub      *hub
	watcher  *watcher
	upgrader websocket.Upgrader
	router   *mux.Router

	httpServer *http.Server
	pumpDone   chan struct{}
	closeOnce  sync.Once

	mu       sync.Mutex
	doc      *document
	displayW int
	displayH int
}

// document is the currently inspected image and everything derived from
// it. A new load swaps the document wholesale; the old controller is
// disabled so its pending commits die with it.
type document struct {
	name      string
	sessionID string
	grid      *transform.SampleGrid
	display   *transform.SampleGrid
	spec      *transform.Spectrum
	kspacePNG []byte
	reconPNG  []byte
	retained  float64
	metrics   quality.Metrics
	loadSeq   uint64
	lastSeq   uint64
	ctrl      *overlay.Controller
}

// New builds a server from cfg. The session store may be nil, which
// disables journaling. The reconstruction worker and the result pump
// start immediately; Close releases them whether or not Start ran.
func New(cfg *config.Config, store *session.Store, log *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		addr:     cfg.Server.Addr,
		maxDim:   cfg.Engine.MaxDim,
		debounce: cfg.Engine.Debounce(),
		log:      log,
		store:    store,
		hub:      newHub(log),
		upgrader: websocket.Upgrader{
			// Local tool; the viewer may be embedded cross-origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pumpDone: make(chan struct{}),
	}
	s.svc = recon.New(context.Background(),
		recon.WithQueueSize(cfg.Engine.QueueSize),
		recon.WithLogger(log),
	)
	go s.pump()

	s.router = mux.NewRouter()
	s.setupRoutes(s.router)

	if cfg.Server.WatchDir != "" {
		w, err := newWatcher(cfg.Server.WatchDir, log, s.watchedImage)
		if err != nil {
			log.Warn("watcher disabled", "dir", cfg.Server.WatchDir, "error", err)
		} else {
			s.watcher = w
		}
	}

	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down", "addr", s.addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		s.Close()
	}()

	s.log.Info("server listening", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Close stops the watcher, the reconstruction worker, and the websocket
// hub. Safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			s.watcher.close()
		}

		s.mu.Lock()
		if s.doc != nil {
			s.doc.ctrl.SetEnabled(false)
		}
		s.mu.Unlock()

		s.svc.Stop()
		<-s.pumpDone
		s.hub.stop()
	})
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/state", s.handleState).Methods("GET")
	r.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	r.HandleFunc("/api/metrics", s.handleMetrics).Methods("GET")
	r.HandleFunc("/api/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/api/sessions", s.handleSessions).Methods("GET")
	r.HandleFunc("/api/kspace.png", s.handleKSpacePNG).Methods("GET")
	r.HandleFunc("/api/recon.png", s.handleReconPNG).Methods("GET")
	r.HandleFunc("/api/image", s.handleUpload).Methods("POST")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
}

// LoadImage runs img through the pipeline and makes it the inspected
// document: downscale, forward transform, spectrum render, and a full
// reconstruction request. name is reported as-is in state and events.
func (s *Server) LoadImage(name string, img image.Image) error {
	grid, err := imaging.Grid(img, s.maxDim)
	if err != nil {
		return fmt.Errorf("webui: grid %s: %w", name, err)
	}
	spec, err := transform.Forward(grid)
	if err != nil {
		return fmt.Errorf("webui: transform %s: %w", name, err)
	}
	heat, err := render.SpectrumHeat(spec)
	if err != nil {
		return fmt.Errorf("webui: render spectrum %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, heat); err != nil {
		return fmt.Errorf("webui: encode spectrum %s: %w", name, err)
	}

	// Reference for display-space fidelity metrics: the original
	// samples through the same 8-bit rendering as reconstructions.
	ref, err := render.Samples(grid)
	if err != nil {
		return fmt.Errorf("webui: render reference %s: %w", name, err)
	}
	displayGrid, err := gridFromGray(ref)
	if err != nil {
		return fmt.Errorf("webui: reference grid %s: %w", name, err)
	}

	rows, cols := grid.Rows(), grid.Cols()

	s.mu.Lock()
	if s.doc != nil {
		s.doc.ctrl.SetEnabled(false)
	}
	dispW, dispH := s.displayW, s.displayH
	if dispW <= 0 || dispH <= 0 {
		dispW, dispH = cols, rows
	}
	ctrl, err := overlay.NewController(cols, rows, dispW, dispH,
		overlay.WithDebounce(s.debounce),
		overlay.WithCommitFunc(s.commitMask),
		overlay.WithSettledFunc(s.maskSettled),
		overlay.WithPreviewFunc(s.previewRadius),
	)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("webui: overlay %s: %w", name, err)
	}
	seq, err := s.svc.Load(spec)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("webui: load %s: %w", name, err)
	}
	sessionID, err := s.store.BeginSession(name, rows, cols)
	if err != nil {
		s.log.Warn("begin session", "image", name, "error", err)
	}
	s.doc = &document{
		name:      name,
		sessionID: sessionID,
		grid:      grid,
		display:   displayGrid,
		spec:      spec,
		kspacePNG: buf.Bytes(),
		retained:  1,
		loadSeq:   seq,
		ctrl:      ctrl,
	}
	ev, _ := s.loadedEventLocked()
	s.mu.Unlock()

	s.log.Info("image loaded", "image", name, "rows", rows, "cols", cols, "seq", seq)
	s.hub.send(ev)

	return nil
}

// pump consumes reconstruction results, keeps the freshest one as the
// served image, journals committed masks, and notifies clients.
func (s *Server) pump() {
	defer close(s.pumpDone)

	var latest recon.Latest
	for res := range s.svc.Results() {
		if res.Err != nil {
			s.log.Warn("reconstruction failed", "seq", res.Seq, "kind", res.Kind, "error", res.Err)
			s.hub.send(wsEvent{Type: "error", Seq: res.Seq, Error: res.Err.Error()})
			continue
		}
		if !latest.Observe(res) {
			continue
		}

		var buf bytes.Buffer
		if err := imaging.EncodePNG(&buf, res.Image); err != nil {
			s.log.Error("encode reconstruction", "seq", res.Seq, "error", err)
			continue
		}

		s.mu.Lock()
		doc := s.doc
		if doc == nil || res.Seq < doc.loadSeq {
			// Result for a document that has since been replaced.
			s.mu.Unlock()
			continue
		}
		doc.reconPNG = buf.Bytes()
		doc.lastSeq = res.Seq
		retained := 1.0
		if res.Kind == recon.KindReconstruct {
			if r, err := quality.RetainedEnergy(doc.spec, res.Mask); err == nil {
				retained = r
			}
		}
		doc.retained = retained
		if got, err := gridFromGray(res.Image); err == nil {
			if m, err := quality.Compare(doc.display, got); err == nil {
				doc.metrics = m
			}
		}
		sessionID := doc.sessionID
		s.mu.Unlock()

		if res.Kind == recon.KindReconstruct && sessionID != "" {
			if err := s.store.RecordMask(sessionID, res.Seq, res.Mask, retained); err != nil {
				s.log.Warn("journal mask", "error", err)
			}
		}

		ev := wsEvent{
			Type:     "recon",
			Seq:      res.Seq,
			Kind:     string(res.Kind),
			Retained: retained,
			Image:    dataURL(buf.Bytes()),
		}
		if res.Kind == recon.KindReconstruct {
			m := toMaskJSON(res.Mask)
			ev.Mask = &m
		}
		s.hub.send(ev)
	}
}

func (s *Server) commitMask(m transform.Mask) {
	if _, err := s.svc.Reconstruct(m); err != nil {
		s.log.Warn("reconstruct request rejected",
			"cx", m.CX, "cy", m.CY, "radius", m.Radius, "error", err)
	}
}

func (s *Server) maskSettled(m transform.Mask) {
	mj := toMaskJSON(m)
	s.hub.send(wsEvent{Type: "settled", Mask: &mj})
}

func (s *Server) previewRadius(r float64) {
	s.hub.send(wsEvent{Type: "preview", Radius: r})
}

func (s *Server) watchedImage(path string) {
	img, err := imaging.Open(path)
	if err != nil {
		s.log.Debug("skipping watched file", "path", path, "error", err)
		return
	}
	if err := s.LoadImage(filepath.Base(path), img); err != nil {
		s.log.Warn("load watched image", "path", path, "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.stateLocked()
	s.mu.Unlock()
	writeJSON(w, st)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.svc.Stats()

	s.mu.Lock()
	var retained float64
	if s.doc != nil {
		retained = s.doc.retained
	}
	s.mu.Unlock()

	writeJSON(w, statsResponse{
		Loads:           stats.Loads,
		Reconstructions: stats.Reconstructions,
		Superseded:      stats.Superseded,
		Failures:        stats.Failures,
		RepliesDropped:  stats.RepliesDropped,
		Retained:        retained,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.doc
	var resp metricsResponse
	if doc != nil {
		resp = metricsResponse{
			RMSE:        doc.metrics.RMSE,
			PSNR:        finite(doc.metrics.PSNR),
			Correlation: finite(doc.metrics.Correlation),
			Retained:    doc.retained,
			Seq:         doc.lastSeq,
		}
	}
	s.mu.Unlock()

	if doc == nil {
		http.Error(w, "no image loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var sessionID string
	if s.doc != nil {
		sessionID = s.doc.sessionID
	}
	s.mu.Unlock()

	if sessionID == "" {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}

	events, err := s.store.MaskHistory(sessionID, queryLimit(r, 50))
	if err != nil {
		http.Error(w, fmt.Sprintf("mask history: %v", err), http.StatusInternalServerError)
		return
	}

	out := make([]maskEventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, maskEventJSON{
			Seq:       ev.Seq,
			CX:        ev.Mask.CX,
			CY:        ev.Mask.CY,
			Radius:    ev.Mask.Radius,
			Retained:  ev.Retained,
			CreatedAt: ev.CreatedAt,
		})
	}
	writeJSON(w, historyResponse{Events: out, Count: len(out)})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.RecentSessions(queryLimit(r, 20))
	if err != nil {
		if errors.Is(err, session.ErrNotInitialized) {
			http.Error(w, "session journal not configured", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, fmt.Sprintf("recent sessions: %v", err), http.StatusInternalServerError)
		return
	}

	out := make([]sessionJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sessionJSON{
			ID:        rec.ID,
			ImageName: rec.ImageName,
			Rows:      rec.Rows,
			Cols:      rec.Cols,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, sessionsResponse{Sessions: out, Count: len(out)})
}

func (s *Server) handleKSpacePNG(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, func(d *document) []byte { return d.kspacePNG })
}

func (s *Server) handleReconPNG(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, func(d *document) []byte { return d.reconPNG })
}

func (s *Server) servePNG(w http.ResponseWriter, pick func(*document) []byte) {
	s.mu.Lock()
	var data []byte
	if s.doc != nil {
		data = pick(s.doc)
	}
	s.mu.Unlock()

	if len(data) == 0 {
		http.Error(w, "no image loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	img, err := imaging.Decode(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("decode image: %v", err), http.StatusBadRequest)
		return
	}

	name := filepath.Base(r.URL.Query().Get("name"))
	if name == "." || name == string(filepath.Separator) {
		name = "upload"
	}

	if err := s.LoadImage(name, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	st := s.stateLocked()
	s.mu.Unlock()
	writeJSON(w, st)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	// Snapshot before registering: after add the hub is the only
	// writer on this connection.
	if ev, ok := s.loadedEvent(); ok {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			return
		}
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatchPointer(data)
	}
}

// dispatchPointer feeds one client frame into the overlay controller.
// Malformed or unknown frames are ignored.
func (s *Server) dispatchPointer(data []byte) {
	var msg pointerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug("ignoring malformed pointer message", "error", err)
		return
	}

	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return
	}

	switch msg.Type {
	case "down":
		doc.ctrl.PointerDown(msg.X, msg.Y)
	case "move":
		doc.ctrl.PointerMove(msg.X, msg.Y)
	case "up":
		doc.ctrl.PointerUp()
	case "cancel":
		doc.ctrl.PointerCancel()
	case "resize":
		s.resizeDisplay(msg.Width, msg.Height)
	default:
		s.log.Debug("ignoring unknown pointer message", "type", msg.Type)
	}
}

func (s *Server) resizeDisplay(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width > 0 && height > 0 {
		s.displayW, s.displayH = width, height
	}
	if s.doc == nil {
		return
	}
	if err := s.doc.ctrl.SetDisplaySize(width, height); err != nil {
		s.log.Debug("ignoring display resize", "width", width, "height", height, "error", err)
	}
}

func (s *Server) loadedEvent() (wsEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedEventLocked()
}

func (s *Server) loadedEventLocked() (wsEvent, bool) {
	if s.doc == nil {
		return wsEvent{}, false
	}

	m := toMaskJSON(s.doc.ctrl.Mask())
	d := s.circleLocked()
	return wsEvent{
		Type:    "loaded",
		Name:    s.doc.name,
		Rows:    s.doc.grid.Rows(),
		Cols:    s.doc.grid.Cols(),
		Mask:    &m,
		Display: &d,
		Image:   dataURL(s.doc.kspacePNG),
	}, true
}

func (s *Server) stateLocked() stateResponse {
	if s.doc == nil {
		return stateResponse{}
	}

	m := toMaskJSON(s.doc.ctrl.Mask())
	d := s.circleLocked()
	return stateResponse{
		Loaded:    true,
		Name:      s.doc.name,
		SessionID: s.doc.sessionID,
		Rows:      s.doc.grid.Rows(),
		Cols:      s.doc.grid.Cols(),
		Mask:      &m,
		Display:   &d,
		State:     s.doc.ctrl.State().String(),
		Retained:  s.doc.retained,
		Seq:       s.doc.lastSeq,
	}
}

func (s *Server) circleLocked() circleJSON {
	cx, cy, radius := s.doc.ctrl.Display()
	hx, hy := s.doc.ctrl.Handle()
	return circleJSON{CX: cx, CY: cy, Radius: radius, HandleX: hx, HandleY: hy}
}

// gridFromGray converts a rendered grayscale image back into a sample
// grid, for display-space quality comparison.
func gridFromGray(img *image.Gray) (*transform.SampleGrid, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	data := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		off := y * img.Stride
		for _, p := range img.Pix[off : off+w] {
			data = append(data, float64(p))
		}
	}

	return transform.SampleGridFromData(h, w, data)
}

func dataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func queryLimit(r *http.Request, fallback int) int {
	limit := fallback
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	return limit
}

// finite returns nil for NaN and infinities, which encoding/json cannot
// represent.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}

	return &v
}

// pointerMessage is a client-to-server websocket frame. Type selects
// which fields matter: down and move carry x,y; resize carries
// width,height; up and cancel stand alone.
type pointerMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// wsEvent is a server-to-client notification.
type wsEvent struct {
	Type     string      `json:"type"`
	Name     string      `json:"name,omitempty"`
	Rows     int         `json:"rows,omitempty"`
	Cols     int         `json:"cols,omitempty"`
	Seq      uint64      `json:"seq,omitempty"`
	Kind     string      `json:"kind,omitempty"`
	Mask     *maskJSON   `json:"mask,omitempty"`
	Display  *circleJSON `json:"display,omitempty"`
	Radius   float64     `json:"radius,omitempty"`
	Retained float64     `json:"retained,omitempty"`
	Image    string      `json:"image,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// maskJSON mirrors transform.Mask for API payloads.
type maskJSON struct {
	CX     int `json:"cx"`
	CY     int `json:"cy"`
	Radius int `json:"radius"`
}

func toMaskJSON(m transform.Mask) maskJSON {
	return maskJSON{CX: m.CX, CY: m.CY, Radius: m.Radius}
}

// circleJSON is the overlay circle in display coordinates, with the
// resize handle position for client-side drawing.
type circleJSON struct {
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	Radius  float64 `json:"radius"`
	HandleX float64 `json:"hx"`
	HandleY float64 `json:"hy"`
}

type stateResponse struct {
	Loaded    bool        `json:"loaded"`
	Name      string      `json:"name,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Rows      int         `json:"rows,omitempty"`
	Cols      int         `json:"cols,omitempty"`
	Mask      *maskJSON   `json:"mask,omitempty"`
	Display   *circleJSON `json:"display,omitempty"`
	State     string      `json:"state,omitempty"`
	Retained  float64     `json:"retained"`
	Seq       uint64      `json:"seq"`
}

type statsResponse struct {
	Loads           uint64  `json:"loads"`
	Reconstructions uint64  `json:"reconstructions"`
	Superseded      uint64  `json:"superseded"`
	Failures        uint64  `json:"failures"`
	RepliesDropped  uint64  `json:"repliesDropped"`
	Retained        float64 `json:"retained"`
}

type metricsResponse struct {
	RMSE float64 `json:"rmse"`
	// PSNR is omitted when the reconstruction is exact.
	PSNR *float64 `json:"psnr,omitempty"`
	// Correlation is omitted when undefined (constant images).
	Correlation *float64 `json:"correlation,omitempty"`
	Retained    float64  `json:"retained"`
	Seq         uint64   `json:"seq"`
}

type maskEventJSON struct {
	Seq       uint64    `json:"seq"`
	CX        int       `json:"cx"`
	CY        int       `json:"cy"`
	Radius    int       `json:"radius"`
	Retained  float64   `json:"retained"`
	CreatedAt time.Time `json:"createdAt"`
}

type historyResponse struct {
	Events []maskEventJSON `json:"events"`
	Count  int             `json:"count"`
}

type sessionJSON struct {
	ID        string    `json:"id"`
	ImageName string    `json:"imageName"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionsResponse struct {
	Sessions []sessionJSON `json:"sessions"`
	Count    int           `json:"count"`
}
