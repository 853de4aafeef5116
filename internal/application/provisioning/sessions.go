package provisioning

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okojic12722rn/banka-provisioning/internal/domain"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/entity"
)

// Session un asistente abierto por un operador (una pestaña del navegador).
type Session struct {
	ID         string
	OperatorID string
	CreatedAt  time.Time
	Workflow   *Workflow

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen último acceso a la sesión.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// HookFactory construye los hooks de una sesión recién creada.
// Los hooks pueden leer s.Workflow: ya está asignado cuando se dispara el primer evento.
type HookFactory func(s *Session) Hooks

// SessionManager guarda las sesiones en memoria. Las instancias no comparten estado entre sí.
type SessionManager struct {
	deps      Deps
	factories []HookFactory
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager construye el manager. deps.Hooks se ignora: los hooks salen de factories.
func NewSessionManager(deps Deps, factories ...HookFactory) *SessionManager {
	return &SessionManager{
		deps:      deps,
		factories: factories,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Start abre un asistente nuevo para la categoría indicada.
func (m *SessionManager) Start(category entity.Category, operatorID string) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:         uuid.New().String(),
		OperatorID: operatorID,
		CreatedAt:  now,
		lastSeen:   now,
	}
	hooks := make([]Hooks, 0, len(m.factories))
	for _, f := range m.factories {
		hooks = append(hooks, f(s))
	}
	deps := m.deps
	deps.Hooks = ChainHooks(hooks...)
	w, err := NewWorkflow(category, deps)
	if err != nil {
		return nil, err
	}
	s.Workflow = w

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get devuelve la sesión si existe y pertenece al operador.
func (m *SessionManager) Get(id, operatorID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.OperatorID != operatorID {
		return nil, domain.ErrForbidden
	}
	s.touch(m.now())
	return s, nil
}

// Remove cancela el flujo (si seguía abierto) y olvida la sesión.
func (m *SessionManager) Remove(id, operatorID string) error {
	s, err := m.Get(id, operatorID)
	if err != nil {
		return err
	}
	s.Workflow.Cancel()
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// PurgeIdle elimina las sesiones sin actividad desde antes de cutoff. Devuelve cuántas borró.
func (m *SessionManager) PurgeIdle(cutoff time.Time) int {
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range stale {
		s.Workflow.Cancel()
	}
	return len(stale)
}

// Len cantidad de sesiones abiertas.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
