package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"

	"github.com/barkeep/barkeep/internal/bot"
	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/event"
	"github.com/barkeep/barkeep/internal/input"
)

type HttpServer struct {
	logger    *slog.Logger
	server    *http.Server
	bot       *bot.Bot
	templates *template.Template
	wsServer  *WebSocketServer
}

var (
	//go:embed all:templates
	templatesFS embed.FS

	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type WebSocketServer struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (s *WebSocketServer) Run() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = true
			slog.Debug("WebSocket client connected", "client", client.id)
		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				slog.Debug("WebSocket client disconnected", "client", client.id)
			}
		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
		}
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := &Client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 256)}
	s.register <- client

	go s.writePump(client)
	go s.readPump(client)
}

func (s *WebSocketServer) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.send {
		w, err := client.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *WebSocketServer) readPump(client *Client) {
	defer func() {
		s.unregister <- client
		client.conn.Close()
	}()

	for {
		_, _, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			break
		}
	}
}

func New(logger *slog.Logger, b *bot.Bot, events *event.Listener) (*HttpServer, error) {
	helperFuncs := template.FuncMap{
		"bindDisplay": input.FormatBindForDisplay,
		"upper":       strings.ToUpper,
		"trim":        strings.TrimSpace,
		"secs": func(p *float64) string {
			if p == nil {
				return ""
			}
			return fmt.Sprintf("%.1fs", *p)
		},
	}
	templates, err := template.New("").Funcs(helperFuncs).ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	server := &HttpServer{
		logger:    logger,
		bot:       b,
		templates: templates,
		wsServer:  NewWebSocketServer(),
	}

	// Every tick result and lifecycle event fans out to the websocket
	// clients as a typed JSON envelope.
	events.Register(server.forwardEvent)

	return server, nil
}

type wsEnvelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func (s *HttpServer) forwardEvent(_ context.Context, e event.Event) error {
	envelope := wsEnvelope{OccurredAt: e.OccurredAt(), Payload: e}

	switch e.(type) {
	case event.TickProcessed:
		envelope.Type = "tick"
	case event.TickFailed:
		envelope.Type = "tick_failed"
	case event.RotationToggled:
		envelope.Type = "rotation_toggled"
	case event.ProfileSwitched:
		envelope.Type = "profile_switched"
	case event.CalibrationFinished:
		envelope.Type = "calibration"
	case event.SendFailed:
		envelope.Type = "send_failed"
	default:
		return nil
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", envelope.Type, err)
	}

	select {
	case s.wsServer.broadcast <- data:
	default:
	}
	return nil
}

func (s *HttpServer) Listen(ctx context.Context, port int) error {
	go s.wsServer.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.getRoot)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)
	mux.HandleFunc("/api/status", s.status)
	mux.HandleFunc("/api/config", s.configHandler)
	mux.HandleFunc("/api/toggle", s.toggle)
	mux.HandleFunc("/api/single-fire", s.singleFire)
	mux.HandleFunc("/api/profile", s.switchProfile)
	mux.HandleFunc("/api/calibrate", s.calibrate)
	mux.HandleFunc("/api/capture-bind", s.captureBind)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	cfg := config.Get()
	if cfg.Server.Ngrok.Enabled {
		return s.listenNgrok(ctx, cfg.Server.Ngrok)
	}

	s.logger.Info("Web UI listening", slog.Int("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HttpServer) listenNgrok(ctx context.Context, cfg config.NgrokConfig) error {
	opts := []ngrokconfig.HTTPEndpointOption{}
	if cfg.Domain != "" {
		opts = append(opts, ngrokconfig.WithDomain(cfg.Domain))
	}

	tun, err := ngrok.Listen(ctx,
		ngrokconfig.HTTPEndpoint(opts...),
		ngrok.WithAuthtoken(cfg.AuthToken),
	)
	if err != nil {
		return fmt.Errorf("starting ngrok tunnel: %w", err)
	}

	s.logger.Info("Web UI tunnel ready", slog.String("url", tun.URL()))
	if err := s.server.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HttpServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *HttpServer) getRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "index.gohtml", s.getStatusData()); err != nil {
		s.logger.Error("Rendering index", slog.Any("error", err))
	}
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.getStatusData())
}

// configHandler returns the live config on GET and replaces it on PUT.
// A PUT that fails validation leaves the previous config in place.
func (s *HttpServer) configHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(config.Get())
	case http.MethodPut, http.MethodPost:
		var incoming config.Config
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			http.Error(w, "invalid config payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		updated, err := config.Update(func(c *config.Config) {
			*c = incoming
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.logger.Info("Config updated via API")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *HttpServer) toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	enabled, err := s.bot.ToggleRotation()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"enabled": enabled})
}

func (s *HttpServer) singleFire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.bot.RequestSingleFire()
	w.WriteHeader(http.StatusNoContent)
}

func (s *HttpServer) switchProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing profile id", http.StatusBadRequest)
		return
	}
	if err := s.bot.SetActiveProfile(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// calibrate dispatches on the kind query param: all, slot (with slot=N)
// or buff (with roi=ID).
func (s *HttpServer) calibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch kind := r.URL.Query().Get("kind"); kind {
	case "all", "":
		err = s.bot.CalibrateAll()
	case "slot":
		var slot int
		slot, err = strconv.Atoi(r.URL.Query().Get("slot"))
		if err != nil {
			http.Error(w, "invalid slot", http.StatusBadRequest)
			return
		}
		err = s.bot.CalibrateSlot(slot)
	case "buff":
		roi := r.URL.Query().Get("roi")
		if roi == "" {
			http.Error(w, "missing roi id", http.StatusBadRequest)
			return
		}
		err = s.bot.CalibrateBuff(roi)
	default:
		http.Error(w, "unknown calibration kind "+kind, http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// captureBind arms a one-shot bind capture and long-polls until the user
// presses something, or times out after ten seconds.
func (s *HttpServer) captureBind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	captured := make(chan string, 1)
	var once sync.Once
	s.bot.ArmBindCapture(func(bind string) {
		once.Do(func() { captured <- bind })
	})

	select {
	case bind := <-captured:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"bind":    bind,
			"display": input.FormatBindForDisplay(bind),
		})
	case <-time.After(10 * time.Second):
		s.bot.CancelBindCapture()
		http.Error(w, "no key pressed", http.StatusRequestTimeout)
	case <-r.Context().Done():
		s.bot.CancelBindCapture()
	}
}
