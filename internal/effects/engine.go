// Package effects runs time-bounded light animations: the synchronous
// flash sequence and the detached disco job.
package effects

import (
	"context"
	"log"
	"sync"
	"time"

	"huelink/internal/bridge"
	"huelink/internal/core"
)

// discoPalette is the fixed hue cycle a disco job steps through. The
// steps are issued with zero transition time; the effect depends on
// sharp changes, not fades.
var discoPalette = [][3]uint8{
	{255, 0, 0},
	{0, 255, 0},
	{0, 0, 255},
	{255, 255, 0},
	{255, 0, 255},
	{0, 255, 255},
}

const (
	defaultFlashTimes = 3
	defaultDiscoTime  = 30 * time.Second
	defaultDiscoSpeed = 500 * time.Millisecond
	defaultFlashHalf  = 500 * time.Millisecond
)

// LightSetter is the slice of the bridge controller the engine needs.
type LightSetter interface {
	SetLightState(ctx context.Context, id string, upd bridge.StateUpdate) error
}

// Job is the handle of one running disco animation. Jobs are keyed by
// target light id; starting a new job for the same light cancels the
// previous one instead of letting two tickers race on the light's state.
type Job struct {
	LightID   string
	StartedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// Engine owns the job registry and the flash sequencing.
type Engine struct {
	ctx    context.Context
	setter LightSetter
	bus    *core.EventBus

	mu   sync.Mutex
	jobs map[string]*Job

	// Half of one flash on/off cycle; fixed at 500ms in production.
	flashHalfCycle time.Duration
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithFlashHalfCycle overrides the flash half cycle, mainly so tests do
// not spend seconds sleeping.
func WithFlashHalfCycle(d time.Duration) Option {
	return func(e *Engine) { e.flashHalfCycle = d }
}

// NewEngine creates an engine bound to the agent's root context. Jobs
// stop ticking when that context is torn down.
func NewEngine(ctx context.Context, setter LightSetter, bus *core.EventBus, opts ...Option) *Engine {
	e := &Engine{
		ctx:            ctx,
		setter:         setter,
		bus:            bus,
		jobs:           make(map[string]*Job),
		flashHalfCycle: defaultFlashHalf,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Flash runs the blocking on/off sequence: `times` iterations of
// colour+on, half cycle, off, half cycle; afterwards the light is left
// on at the requested colour. Exactly 2*times+1 state calls.
func (e *Engine) Flash(ctx context.Context, lightID string, color [3]uint8, times int) error {
	if times <= 0 {
		times = defaultFlashTimes
	}

	on := bridge.StateUpdate{
		On:  bridge.Ptr(true),
		Bri: bridge.Ptr(uint8(254)),
		RGB: &color,
	}
	off := bridge.StateUpdate{On: bridge.Ptr(false)}

	for i := 0; i < times; i++ {
		if err := e.setter.SetLightState(ctx, lightID, on); err != nil {
			return err
		}
		if err := sleep(ctx, e.flashHalfCycle); err != nil {
			return err
		}
		if err := e.setter.SetLightState(ctx, lightID, off); err != nil {
			return err
		}
		if err := sleep(ctx, e.flashHalfCycle); err != nil {
			return err
		}
	}
	return e.setter.SetLightState(ctx, lightID, on)
}

// StartDisco registers a detached disco job for the light and returns
// immediately. A job already running on the same light is cancelled
// first.
func (e *Engine) StartDisco(lightID string, duration, speed time.Duration) *Job {
	if duration <= 0 {
		duration = defaultDiscoTime
	}
	if speed <= 0 {
		speed = defaultDiscoSpeed
	}

	ctx, cancel := context.WithCancel(e.ctx)
	job := &Job{
		LightID:   lightID,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	e.mu.Lock()
	if prev, ok := e.jobs[lightID]; ok {
		prev.cancel()
	}
	e.jobs[lightID] = job
	e.mu.Unlock()

	go e.runDisco(ctx, job, duration, speed)
	return job
}

// Stop cancels the job running on the light, if any. Reports whether a
// job was found.
func (e *Engine) Stop(lightID string) bool {
	e.mu.Lock()
	job, ok := e.jobs[lightID]
	e.mu.Unlock()
	if ok {
		job.cancel()
		<-job.done
	}
	return ok
}

// StopAll cancels every running job; used on shutdown.
func (e *Engine) StopAll() {
	e.mu.Lock()
	jobs := make([]*Job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}
	e.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
		<-j.done
	}
}

// Running reports whether a job is active for the light.
func (e *Engine) Running(lightID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.jobs[lightID]
	return ok
}

func (e *Engine) runDisco(ctx context.Context, job *Job, duration, speed time.Duration) {
	defer close(job.done)
	defer func() {
		e.mu.Lock()
		if e.jobs[job.LightID] == job {
			delete(e.jobs, job.LightID)
		}
		e.mu.Unlock()
		e.publish(job.LightID, "")
	}()

	log.Printf("[Effects] Disco started on light %s (duration %s, step %s)", job.LightID, duration, speed)
	e.publish(job.LightID, "disco")

	ticker := time.NewTicker(speed)
	defer ticker.Stop()

	cursor := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Effects] Disco on light %s cancelled", job.LightID)
			return
		case <-ticker.C:
			color := discoPalette[cursor%len(discoPalette)]
			cursor++

			upd := bridge.StateUpdate{
				On:             bridge.Ptr(true),
				RGB:            &color,
				TransitionTime: bridge.Ptr(uint16(0)),
			}
			if err := e.setter.SetLightState(ctx, job.LightID, upd); err != nil {
				if ctx.Err() == nil {
					log.Printf("[Effects] Disco step on light %s failed: %v", job.LightID, err)
				}
			}

			if time.Since(job.StartedAt) >= duration {
				log.Printf("[Effects] Disco on light %s completed", job.LightID)
				return
			}
		}
	}
}

func (e *Engine) publish(lightID, running string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(core.Event{
		Type: core.EffectChangedEvent,
		Payload: map[string]interface{}{
			"lightId": lightID,
			"running": running,
		},
	})
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
