package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docqa/internal/chromemdb"
	"docqa/internal/models"
)

// Phase is the lifecycle of one browser session.
type Phase int

const (
	NoIndex Phase = iota
	IndexReady
)

func (p Phase) String() string {
	if p == IndexReady {
		return "index_ready"
	}
	return "no_index"
}

// State is everything one browser session owns. Actions on the same State
// are serialized by mu.
type State struct {
	ID string

	mu         sync.Mutex
	phase      Phase
	index      *chromemdb.Index
	files      []string
	chunkCount int
	notice     Notice
	answer     *models.Answer

	// guarded by the owning Store
	lastUsed time.Time
}

// NewState creates a session with no index.
func NewState(id string) *State {
	return &State{ID: id}
}

// View is a read-only snapshot for rendering.
type View struct {
	ID         string
	Phase      Phase
	Files      []string
	ChunkCount int
	Notice     Notice
	Answer     *models.Answer
}

func (v View) Ready() bool { return v.Phase == IndexReady }

func (st *State) View() View {
	st.mu.Lock()
	defer st.mu.Unlock()
	return View{
		ID:         st.ID,
		Phase:      st.phase,
		Files:      append([]string(nil), st.files...),
		ChunkCount: st.chunkCount,
		Notice:     st.notice,
		Answer:     st.answer,
	}
}

// Ready reports whether questions can be answered.
func (st *State) Ready() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.phase == IndexReady
}

// Close drops the index. The State can still be used afterwards.
func (st *State) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.reset()
}

// setIndex replaces the index wholesale. Caller holds mu.
func (st *State) setIndex(ix *chromemdb.Index) {
	st.dropIndex()
	st.index = ix
	st.phase = IndexReady
	st.files = ix.Sources()
	st.chunkCount = ix.Count()
	st.answer = nil
}

// reset returns to NoIndex. Caller holds mu.
func (st *State) reset() {
	st.dropIndex()
	st.phase = NoIndex
	st.files = nil
	st.chunkCount = 0
	st.answer = nil
}

func (st *State) dropIndex() {
	if st.index == nil {
		return
	}
	if err := st.index.Close(); err != nil {
		log.Warn().Err(err).Str("session", st.ID).Msg("Error dropping index")
	}
	st.index = nil
}
