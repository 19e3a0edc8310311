// Package agent wires the bridge session, the command interpreter, the
// effect and pattern engines and the transports together, and owns the
// process lifecycle.
package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"huelink/internal/bridge"
	"huelink/internal/config"
	"huelink/internal/core"
	"huelink/internal/effects"
	"huelink/internal/mqtt"
	"huelink/internal/pattern"
	"huelink/internal/scheduler"
	"huelink/internal/server"
)

type Agent struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	state          *core.State
	eventBus       *core.EventBus
	commandChannel core.CommandChannel

	bridge     bridge.Controller
	effects    *effects.Engine
	patterns   *pattern.Engine
	scheduler  *scheduler.Scheduler
	handler    *CommandHandler
	server     *server.Server
	mqttClient *mqtt.Client
}

// NewAgent establishes the bridge session and builds every component.
// A bridge that cannot be reached or refuses the credential is a fatal
// condition: without a session the server is useless.
func NewAgent(cfg *config.Config) (*Agent, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Agent{
		ctx:            ctx,
		cancel:         cancel,
		config:         cfg,
		state:          core.NewState(),
		eventBus:       core.NewEventBus(),
		commandChannel: make(core.CommandChannel, 20),
	}

	bc, err := bridge.Connect(ctx, cfg.Bridge.Host, cfg.Bridge.Username, cfg.Bridge.RateLimit, cfg.Bridge.RateBurst)
	if err != nil {
		cancel()
		return nil, err
	}
	a.bridge = bc

	// Startup snapshot served by get_lights until an explicit refresh.
	lights, err := bc.Lights(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("initial light fetch failed: %w", err)
	}
	a.state.SetLights(lights)
	log.Printf("[Agent] Snapshot holds %d light(s)", len(lights))

	a.effects = effects.NewEngine(ctx, bc, a.eventBus)
	a.patterns = pattern.NewEngine(ctx, bc, cfg.PatternsDir, a.eventBus)
	a.scheduler = scheduler.NewScheduler(a.commandChannel, cfg.SchedulesFile, a.eventBus)

	a.handler = NewCommandHandler(bc, a.state, a.effects, a.patterns, a.scheduler, a.eventBus)

	a.server = server.NewServer(ctx, a.handler, a.eventBus,
		cfg.Server.Port, cfg.Server.WebSocketAddr,
		a.scheduler.Entries, a.patterns.List)

	a.mqttClient = mqtt.NewClient(ctx, cfg, a.handler)

	return a, nil
}

// Run starts the transports and blocks on the dispatch loop for
// commands raised outside a client session.
func (a *Agent) Run() {
	a.scheduler.Start()

	if a.mqttClient != nil {
		go func() {
			if err := a.mqttClient.Connect(); err != nil {
				log.Printf("[Agent] MQTT setup error: %v", err)
			}
		}()
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil {
			log.Printf("[Agent] Server error: %v", err)
			a.cancel()
		}
	}()

	log.Printf("[Agent] Ready, listening on port %s", a.config.Server.Port)
	for {
		select {
		case <-a.ctx.Done():
			log.Println("[Agent] Dispatch loop shutting down...")
			return
		case cmd := <-a.commandChannel:
			resp := a.handler.Handle(a.ctx, cmd)
			if resp.Type == "error" {
				log.Printf("[Agent] Scheduled command %s failed: %s", cmd.Type, resp.Error)
			}
		}
	}
}

// Shutdown tears everything down in dependency order.
func (a *Agent) Shutdown() {
	a.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("[Agent] Server shutdown: %v", err)
	}

	a.mqttClient.Disconnect()
	a.patterns.Stop()
	a.effects.StopAll()

	a.cancel()
}
