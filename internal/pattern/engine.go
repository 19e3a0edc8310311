// Package pattern runs user-supplied Lua scripts that animate lights
// through the bridge. One worker goroutine executes at most one pattern
// at a time; starting a new one cancels the current script.
package pattern

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"huelink/internal/bridge"
	"huelink/internal/core"

	lua "github.com/yuin/gopher-lua"
)

// LightSetter is the slice of the bridge controller scripts can reach.
type LightSetter interface {
	SetLightState(ctx context.Context, id string, upd bridge.StateUpdate) error
}

type cmdKind int

const (
	cmdRun cmdKind = iota
	cmdStop
)

type engineCmd struct {
	kind cmdKind
	name string
	path string
}

// Engine manages the Lua scripting environment.
type Engine struct {
	ctx         context.Context
	setter      LightSetter
	patternsDir string
	bus         *core.EventBus

	cmdChan chan engineCmd

	mu      sync.RWMutex
	running string
}

// NewEngine creates the engine and starts its background worker.
func NewEngine(ctx context.Context, setter LightSetter, patternsDir string, bus *core.EventBus) *Engine {
	e := &Engine{
		ctx:         ctx,
		setter:      setter,
		patternsDir: patternsDir,
		bus:         bus,
		cmdChan:     make(chan engineCmd, 10),
	}
	go e.runLoop()
	return e
}

// runLoop processes engine commands sequentially, cancelling the current
// script before starting the next.
func (e *Engine) runLoop() {
	var currentCancel context.CancelFunc
	var scriptDone chan struct{}

	stopCurrent := func() {
		if currentCancel == nil {
			return
		}
		currentCancel()
		select {
		case <-scriptDone:
		case <-time.After(2 * time.Second):
			log.Println("[Pattern] Timeout waiting for script to stop")
		}
		currentCancel = nil
		scriptDone = nil
	}

	for {
		select {
		case <-e.ctx.Done():
			stopCurrent()
			return
		case cmd := <-e.cmdChan:
			stopCurrent()
			if cmd.kind == cmdStop {
				continue
			}

			ctx, cancel := context.WithCancel(e.ctx)
			currentCancel = cancel
			scriptDone = make(chan struct{})

			go e.execute(ctx, cmd.name, cmd.path, scriptDone)
		}
	}
}

// Run queues a pattern file for execution.
func (e *Engine) Run(name string) error {
	path, err := e.patternPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("pattern %q not found", name)
	}
	e.cmdChan <- engineCmd{kind: cmdRun, name: name, path: path}
	return nil
}

// Stop cancels the currently running script, if any.
func (e *Engine) Stop() {
	select {
	case e.cmdChan <- engineCmd{kind: cmdStop}:
	default:
		log.Println("[Pattern] Command channel full, could not send stop")
	}
}

// Current returns the name of the running pattern, or "".
func (e *Engine) Current() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) setRunning(name string) {
	e.mu.Lock()
	e.running = name
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.Publish(core.Event{
			Type:    core.PatternChangedEvent,
			Payload: map[string]interface{}{"running": name},
		})
	}
}

func (e *Engine) execute(ctx context.Context, name, path string, done chan struct{}) {
	defer close(done)

	log.Printf("[Pattern] Starting %q", name)
	e.setRunning(name)
	defer func() {
		log.Printf("[Pattern] Finished %q", name)
		e.setRunning("")
	}()

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	r := &runner{engine: e, ctx: ctx}
	r.register(L)

	if err := L.DoFile(path); err != nil {
		if ctx.Err() == context.Canceled {
			log.Printf("[Pattern] %q was cancelled", name)
		} else {
			log.Printf("[Pattern] Error executing %q: %v", name, err)
		}
	}
}

// sanitizeFilename checks for directory traversal and the .lua extension.
func sanitizeFilename(name string) (string, error) {
	if !strings.HasSuffix(name, ".lua") {
		return "", fmt.Errorf("pattern filename must end with .lua")
	}
	clean := filepath.Base(name)
	if clean == "" || clean == ".lua" || strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid pattern filename")
	}
	return clean, nil
}

func (e *Engine) patternPath(name string) (string, error) {
	clean, err := sanitizeFilename(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(e.patternsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(e.patternsDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create patterns directory: %w", err)
		}
	}
	return filepath.Join(e.patternsDir, clean), nil
}

// Code reads and returns a pattern's source.
func (e *Engine) Code(name string) (string, error) {
	path, err := e.patternPath(name)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Save writes a pattern's source.
func (e *Engine) Save(name, code string) error {
	path, err := e.patternPath(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return err
	}
	if e.bus != nil {
		e.bus.Publish(core.Event{Type: core.PatternListChangedEvent})
	}
	return nil
}

// Delete removes a pattern file.
func (e *Engine) Delete(name string) error {
	path, err := e.patternPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	if e.bus != nil {
		e.bus.Publish(core.Event{Type: core.PatternListChangedEvent})
	}
	return nil
}

// List scans the patterns directory for .lua files.
func (e *Engine) List() ([]string, error) {
	var patterns []string
	files, err := os.ReadDir(e.patternsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return patterns, nil
		}
		return nil, err
	}
	for _, f := range files {
		if !f.IsDir() && filepath.Ext(f.Name()) == ".lua" {
			patterns = append(patterns, f.Name())
		}
	}
	return patterns, nil
}
