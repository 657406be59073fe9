package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RelayHax/internal/hax"
)

type ConnID string

type connEntry struct {
	Channel hax.Channel
	Session *hax.Session
	Cancel  context.CancelFunc
}

// Registry tracks live intercepted connections so configuration changes reach them.
type Registry struct {
	mu      sync.RWMutex
	conns   map[ConnID]*connEntry
	toggles hax.Toggles
}

func NewRegistry(t hax.Toggles) *Registry {
	return &Registry{
		conns:   make(map[ConnID]*connEntry),
		toggles: t,
	}
}

// Open creates the session of a new connection with the current toggles.
func (r *Registry) Open(ch hax.Channel, cancel context.CancelFunc) (ConnID, *hax.Session) {
	id := ConnID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := hax.NewSession(r.toggles)
	r.conns[id] = &connEntry{Channel: ch, Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("channel", ch.String()).Msg("opened connection")
	return id, sess
}

// Close tears down the session and forgets the connection.
func (r *Registry) Close(id ConnID) {
	r.mu.Lock()
	e, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	e.Session.Close()
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("closed connection")
}

func (r *Registry) Toggles() hax.Toggles {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.toggles
}

// ApplyToggles stores t for new connections and pushes it to live ones.
func (r *Registry) ApplyToggles(t hax.Toggles) {
	r.mu.Lock()
	r.toggles = t
	sessions := make([]*hax.Session, 0, len(r.conns))
	for _, e := range r.conns {
		sessions = append(sessions, e.Session)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.SetToggles(t)
	}
	log.Info().Str("module", "app.registry").Int("sessions", len(sessions)).
		Bool("strip_passwords", t.StripPasswords).
		Bool("show_mobile_games", t.ShowMobileGames).
		Bool("show_other_versions", t.ShowOtherVersions).
		Msg("applied toggles")
}

func (r *Registry) Count(ch hax.Channel) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.conns {
		if e.Channel == ch {
			n++
		}
	}
	return n
}

// CancelAll stops every live connection, used on shutdown.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(r.conns))
	for _, e := range r.conns {
		if e.Cancel != nil {
			cancels = append(cancels, e.Cancel)
		}
	}
	r.mu.RUnlock()
	for _, c := range cancels {
		c()
	}
}
