// Command simserver exposes the vehicle simulation over websockets. Every
// connecting driver gets their own vehicle, sends control frames and
// receives state snapshots at the server tick rate.
//
// Connect with ws://host/ws?template=scout (any builtin template name);
// /healthz reports the driver count.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/akmonengine/torsion"
	"github.com/akmonengine/torsion/control"
	"github.com/akmonengine/torsion/tuning"
)

const (
	// readWait is how long a connection may stay silent before it is
	// considered dead; pongs refresh it.
	readWait  = 90 * time.Second
	writeWait = 10 * time.Second
	pingEvery = 20 * time.Second

	maxEnvelopeBytes = 4096
	sendBuffer       = 64
)

// clientEnvelope is what drivers send: control frames, resets and pings.
type clientEnvelope struct {
	Type  string       `json:"type"`
	Input *driverInput `json:"input,omitempty"`
}

type driverInput struct {
	Throttle float64 `json:"throttle"`
	Steering float64 `json:"steering"`
	Brake    float64 `json:"brake"`
	Tilt     float64 `json:"tilt"`
}

// serverEnvelope is what the server sends back: a welcome on connect,
// state snapshots every tick, pongs and error notices.
type serverEnvelope struct {
	Type     string        `json:"type"`
	Tick     uint64        `json:"tick,omitempty"`
	State    *vehicleState `json:"state,omitempty"`
	ServerMS int64         `json:"server_ms,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type vehicleState struct {
	Template  string        `json:"template"`
	Position  vec2          `json:"position"`
	Rotation  float64       `json:"rotation"`
	Velocity  vec2          `json:"velocity"`
	Speed     float64       `json:"speed"`
	Health    float64       `json:"health"`
	Fuel      float64       `json:"fuel"`
	Airborne  bool          `json:"airborne"`
	Resting   bool          `json:"resting"`
	Destroyed bool          `json:"destroyed"`
	Telemetry wireTelemetry `json:"telemetry"`
	Events    []string      `json:"events,omitempty"`
}

// wireTelemetry mirrors torsion.Telemetry for the wire, front wheel first.
type wireTelemetry struct {
	Compression         [2]float64 `json:"compression"`
	CompressionVelocity [2]float64 `json:"compression_velocity"`
	WheelForce          [2]float64 `json:"wheel_force"`
	DamperTemperature   [2]float64 `json:"damper_temperature"`
	Grounded            [2]bool    `json:"grounded"`
	RollStiffness       float64    `json:"roll_stiffness"`
	PitchStiffness      float64    `json:"pitch_stiffness"`
	DamperWork          float64    `json:"damper_work"`
	VelocityClamps      uint64     `json:"velocity_clamps"`
	AngularClamps       uint64     `json:"angular_clamps"`
	ForceClamps         uint64     `json:"force_clamps"`
}

type vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// session is one connected driver and their vehicle. The vehicle is only
// touched from the simulation goroutine; inputs from the read pump land
// in pending under mu and are drained at the next tick.
type session struct {
	id       string
	template string
	conn     *websocket.Conn
	send     chan []byte

	mu      sync.Mutex
	pending *control.Controls
	reset   bool

	vehicle *torsion.Vehicle
	events  []string
}

func (s *session) queueInput(in driverInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &control.Controls{
		Throttle: in.Throttle,
		Steering: in.Steering,
		Brake:    in.Brake,
		Tilt:     in.Tilt,
	}
}

func (s *session) queueReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset = true
}

func (s *session) drain() (input *control.Controls, reset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	input, s.pending = s.pending, nil
	reset, s.reset = s.reset, false
	return input, reset
}

// watchEvents forwards vehicle events into the session's event list,
// which rides along on the next state snapshot. Listeners fire during
// Update, so this stays on the simulation goroutine.
func (s *session) watchEvents() {
	for _, et := range []torsion.EventType{
		torsion.DAMAGE_APPLIED,
		torsion.VEHICLE_DESTROYED,
		torsion.IMPACT,
		torsion.AIRBORNE_BEGIN,
		torsion.AIRBORNE_END,
		torsion.VEHICLE_REST,
		torsion.VEHICLE_WAKE,
		torsion.FUEL_EMPTY,
	} {
		s.vehicle.Events.Subscribe(et, func(e torsion.Event) {
			s.events = append(s.events, e.Type().String())
		})
	}
}

type server struct {
	log    zerolog.Logger
	world  tuning.World
	tickHz int

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
	nextID   uint64

	tick atomic.Uint64
}

func newServer(log zerolog.Logger, world tuning.World, tickHz int) *server {
	return &server{
		log:    log,
		world:  world,
		tickHz: tickHz,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

func (s *server) register(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sess.id = fmt.Sprintf("driver-%d", s.nextID)
	s.sessions[sess.id] = sess
	s.log.Info().
		Str("driver", sess.id).
		Str("template", sess.template).
		Int("online", len(s.sessions)).
		Msg("driver connected")
}

func (s *server) unregister(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.id]; !ok {
		return
	}
	delete(s.sessions, sess.id)
	close(sess.send)
	sess.vehicle.Dispose()
	s.log.Info().
		Str("driver", sess.id).
		Int("online", len(s.sessions)).
		Msg("driver disconnected")
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("template")
	if name == "" {
		name = "scout"
	}
	tpl, ok := torsion.BuiltinTemplates()[name]
	if !ok {
		http.Error(w, "unknown template "+name, http.StatusBadRequest)
		return
	}

	vehicle, err := torsion.NewFromTemplate(tuning.ApplyOverrides(tpl))
	if err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("spawn failed")
		http.Error(w, "spawn failed", http.StatusInternalServerError)
		return
	}
	s.world.Apply(vehicle)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		vehicle.Dispose()
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := &session{
		template: name,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		vehicle:  vehicle,
	}
	sess.watchEvents()
	s.register(sess)

	welcome, _ := json.Marshal(serverEnvelope{
		Type:    "welcome",
		Message: sess.id + " driving a " + name,
	})
	sess.send <- welcome

	go s.writePump(sess)
	s.readPump(sess)
}

func (s *server) readPump(sess *session) {
	defer func() {
		s.unregister(sess)
		sess.conn.Close()
	}()

	sess.conn.SetReadLimit(maxEnvelopeBytes)
	sess.conn.SetReadDeadline(time.Now().Add(readWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn().Str("driver", sess.id).Err(err).Msg("connection dropped")
			}
			return
		}

		var env clientEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			s.sendError(sess, "malformed envelope")
			continue
		}

		switch env.Type {
		case "input":
			if env.Input == nil {
				s.sendError(sess, "input envelope without input")
				continue
			}
			sess.queueInput(*env.Input)
		case "reset":
			sess.queueReset()
		case "ping":
			pong, _ := json.Marshal(serverEnvelope{Type: "pong", ServerMS: time.Now().UnixMilli()})
			s.trySend(sess, pong)
		default:
			s.sendError(sess, "unknown envelope type "+env.Type)
		}
	}
}

func (s *server) writePump(sess *session) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sess.send:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *server) sendError(sess *session, message string) {
	payload, _ := json.Marshal(serverEnvelope{Type: "error", Message: message})
	s.trySend(sess, payload)
}

// trySend drops the frame when the send buffer is full; a stalled client
// never stalls the simulation.
func (s *server) trySend(sess *session, payload []byte) {
	select {
	case sess.send <- payload:
	default:
		s.log.Warn().Str("driver", sess.id).Msg("send buffer full, dropping frame")
	}
}

func (s *server) runSimulationLoop(ctx context.Context) {
	dt := 1.0 / float64(s.tickHz)
	ticker := time.NewTicker(time.Second / time.Duration(s.tickHz))
	defer ticker.Stop()

	s.log.Info().Int("tickHz", s.tickHz).Msg("simulation loop running")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stepSessions(dt)
		}
	}
}

// stepSessions advances every vehicle one tick and replicates its state.
// Holding the read lock keeps unregister (and its Dispose) out until the
// whole tick is done.
func (s *server) stepSessions(dt float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tick := s.tick.Add(1)
	now := time.Now().UnixMilli()
	for _, sess := range s.sessions {
		input, reset := sess.drain()
		if reset {
			if err := sess.vehicle.Reset(); err != nil {
				s.log.Error().Str("driver", sess.id).Err(err).Msg("reset failed")
			}
		}
		if input != nil {
			sess.vehicle.SetControls(*input)
		}
		sess.vehicle.Update(dt)

		payload, err := json.Marshal(serverEnvelope{
			Type:     "state",
			Tick:     tick,
			State:    snapshot(sess),
			ServerMS: now,
		})
		if err != nil {
			s.log.Error().Str("driver", sess.id).Err(err).Msg("state marshal failed")
			continue
		}
		s.trySend(sess, payload)
		sess.events = sess.events[:0]
	}
}

func snapshot(sess *session) *vehicleState {
	v := sess.vehicle
	pos, vel := v.Position(), v.Velocity()
	tel := v.Telemetry()

	state := &vehicleState{
		Template:  sess.template,
		Position:  vec2{pos.X(), pos.Y()},
		Rotation:  v.Rotation(),
		Velocity:  vec2{vel.X(), vel.Y()},
		Speed:     tel.Speed,
		Health:    tel.Health,
		Fuel:      tel.Fuel,
		Airborne:  tel.Airborne,
		Resting:   tel.Resting,
		Destroyed: tel.Destroyed,
		Telemetry: wireTelemetry{
			Compression:         tel.Compression,
			CompressionVelocity: tel.CompressionVelocity,
			WheelForce:          tel.WheelForce,
			DamperTemperature:   tel.DamperTemperature,
			Grounded:            tel.Grounded,
			RollStiffness:       tel.RollStiffness,
			PitchStiffness:      tel.PitchStiffness,
			DamperWork:          tel.DamperWork,
			VelocityClamps:      tel.VelocityClamps,
			AngularClamps:       tel.AngularClamps,
			ForceClamps:         tel.ForceClamps,
		},
	}
	if len(sess.events) > 0 {
		state.Events = append([]string(nil), sess.events...)
	}
	return state
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	online := len(s.sessions)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"drivers": online,
		"tick":    s.tick.Load(),
	})
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func main() {
	configDir := flag.String("config", ".", "directory containing the torsion.json profile")
	flag.Parse()

	if err := tuning.Load(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	profile := tuning.ServerProfile()
	if profile.TickHz <= 0 {
		profile.TickHz = 60
	}

	zerolog.SetGlobalLevel(parseLevel(profile.LogLevel))
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	srv := newServer(log, tuning.WorldProfile(), profile.TickHz)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.runSimulationLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.handleWS)
	mux.HandleFunc("/healthz", srv.handleHealth)

	httpServer := &http.Server{
		Addr:              profile.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("addr", profile.Addr).
		Int("tickHz", profile.TickHz).
		Strs("templates", torsion.TemplateNames()).
		Msg("torsion simulation server listening")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
