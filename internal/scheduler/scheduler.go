// Package scheduler fires stored protocol commands on cron specs, e.g.
// turning a group off every night. Entries survive restarts through a
// JSON file.
package scheduler

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"huelink/internal/core"

	"github.com/robfig/cron/v3"
)

// entry is the persisted form of one schedule.
type entry struct {
	Spec    string `json:"spec"`
	Command string `json:"command"` // one protocol command as a JSON line
}

// Scheduler manages all cron-driven commands.
type Scheduler struct {
	cron           *cron.Cron
	store          map[cron.EntryID]entry
	commandChannel core.CommandChannel
	bus            *core.EventBus
	mu             sync.RWMutex
	schedulesFile  string
}

// NewScheduler creates a scheduler and loads persisted entries.
func NewScheduler(cmdChan core.CommandChannel, schedulesFile string, bus *core.EventBus) *Scheduler {
	s := &Scheduler{
		cron:           cron.New(),
		store:          make(map[cron.EntryID]entry),
		commandChannel: cmdChan,
		bus:            bus,
		schedulesFile:  schedulesFile,
	}
	s.load()
	return s
}

// Start begins the cron ticker.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[Scheduler] Started")
}

// Stop halts the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Scheduler] Stopped")
}

// Add registers a new schedule. The command must decode to a known
// protocol command so a broken entry is rejected up front.
func (s *Scheduler) Add(spec, command string) (int, error) {
	var cmd core.Command
	if err := json.Unmarshal([]byte(command), &cmd); err != nil {
		return 0, fmt.Errorf("schedule command is not valid JSON: %w", err)
	}
	if strings.TrimSpace(string(cmd.Type)) == "" {
		return 0, fmt.Errorf("schedule command has no type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.execute(command) })
	if err != nil {
		return 0, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	s.store[id] = entry{Spec: spec, Command: command}
	s.save()
	log.Printf("[Scheduler] Added schedule %d: %s -> %s", id, spec, command)

	s.notify()
	return int(id), nil
}

// Remove deletes a schedule by id.
func (s *Scheduler) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID := cron.EntryID(id)
	s.cron.Remove(entryID)
	delete(s.store, entryID)
	s.save()
	log.Printf("[Scheduler] Removed schedule %d", id)

	s.notify()
}

// Entries returns the stored schedules ordered by id.
func (s *Scheduler) Entries() []core.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.ScheduleEntry, 0, len(s.store))
	for id, e := range s.store {
		out = append(out, core.ScheduleEntry{ID: int(id), Spec: e.Spec, Command: e.Command})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// execute decodes the stored command line and hands it to the agent's
// dispatch loop. Responses go to the log; there is no originating client.
func (s *Scheduler) execute(command string) {
	var cmd core.Command
	if err := json.Unmarshal([]byte(command), &cmd); err != nil {
		log.Printf("[Scheduler] Skipping broken schedule command %q: %v", command, err)
		return
	}
	log.Printf("[Scheduler] Dispatching scheduled command: %s", cmd.Type)
	select {
	case s.commandChannel <- cmd:
	default:
		log.Printf("[Scheduler] Command channel full, dropping scheduled %s", cmd.Type)
	}
}

func (s *Scheduler) notify() {
	if s.bus != nil {
		s.bus.Publish(core.Event{Type: core.ScheduleListChangedEvent})
	}
}

func (s *Scheduler) save() {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		log.Printf("[Scheduler] Error marshalling schedules: %v", err)
		return
	}
	if err := os.WriteFile(s.schedulesFile, data, 0644); err != nil {
		log.Printf("[Scheduler] Error writing %s: %v", s.schedulesFile, err)
	}
}

func (s *Scheduler) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.schedulesFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Scheduler] Error reading %s: %v", s.schedulesFile, err)
		}
		return
	}

	stored := make(map[cron.EntryID]entry)
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("[Scheduler] Error unmarshalling %s: %v", s.schedulesFile, err)
		return
	}

	log.Printf("[Scheduler] Loading %d schedules from %s", len(stored), s.schedulesFile)
	for _, e := range stored {
		job := e
		newID, err := s.cron.AddFunc(job.Spec, func() { s.execute(job.Command) })
		if err != nil {
			log.Printf("[Scheduler] Error re-adding schedule from file: %v", err)
			continue
		}
		s.store[newID] = job
	}
}
