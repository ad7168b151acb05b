package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
)

// RunSnapshot is a point-in-time copy of a storyboard run's shared state.
type RunSnapshot struct {
	ID        string               `json:"id"`
	Done      bool                 `json:"done"`
	Advisory  string               `json:"advisory,omitempty"`
	Scenes    []domain.SceneResult `json:"scenes"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type runState struct {
	snapshot RunSnapshot
	slots    map[string]int
}

// Registry keeps the per-run, per-scene status map the UI polls while a
// storyboard run is in flight. Each scene owns a disjoint slot, so updates
// are a read-modify-write of one entry under the registry lock. Runs are
// in-memory only; a new run simply supersedes interest in an old one.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*runState
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*runState)}
}

// Create registers a run for the given scenes and returns its ID. Every
// scene starts pending.
func (r *Registry) Create(scenes []domain.Scene) string {
	id := uuid.NewString()
	now := time.Now()

	state := &runState{
		snapshot: RunSnapshot{
			ID:        id,
			Scenes:    make([]domain.SceneResult, 0, len(scenes)),
			CreatedAt: now,
			UpdatedAt: now,
		},
		slots: make(map[string]int, len(scenes)),
	}
	for _, scene := range scenes {
		state.slots[scene.ID] = len(state.snapshot.Scenes)
		state.snapshot.Scenes = append(state.snapshot.Scenes, domain.SceneResult{
			SceneID: scene.ID,
			Status:  domain.JobStatusPending,
		})
	}

	r.mu.Lock()
	r.runs[id] = state
	r.mu.Unlock()
	return id
}

// Update applies one scene's status transition. Unknown runs and scenes are
// ignored; a settled slot is never regressed.
func (r *Registry) Update(runID string, res domain.SceneResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.runs[runID]
	if !ok {
		return
	}
	idx, ok := state.slots[res.SceneID]
	if !ok {
		return
	}
	if state.snapshot.Scenes[idx].Status.Terminal() {
		return
	}
	state.snapshot.Scenes[idx] = res
	state.snapshot.UpdatedAt = time.Now()
}

// SetAdvisory attaches a user-visible banner message to the run.
func (r *Registry) SetAdvisory(runID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.runs[runID]; ok {
		state.snapshot.Advisory = message
		state.snapshot.UpdatedAt = time.Now()
	}
}

// Finish marks the run settled.
func (r *Registry) Finish(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.runs[runID]; ok {
		state.snapshot.Done = true
		state.snapshot.UpdatedAt = time.Now()
	}
}

// Snapshot returns a copy of the run's current state.
func (r *Registry) Snapshot(runID string) (RunSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.runs[runID]
	if !ok {
		return RunSnapshot{}, false
	}
	out := state.snapshot
	out.Scenes = append([]domain.SceneResult(nil), state.snapshot.Scenes...)
	return out, true
}
