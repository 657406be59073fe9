// Package hax holds the per-connection interception pipeline: decoding each frame,
// routing it by channel, rewriting lobby listings and observing game traffic.
package hax

import (
	"errors"
	"maps"
	"sync"

	"github.com/dkeye/RelayHax/internal/photon"
)

// ErrSessionUnavailable is returned once the owning connection has been torn down.
var ErrSessionUnavailable = errors.New("session state unavailable")

// Toggles are the externally owned rewrite switches.
type Toggles struct {
	StripPasswords    bool
	ShowMobileGames   bool
	ShowOtherVersions bool
}

// Flags is a point-in-time copy of what a lobby rewrite pass needs.
type Flags struct {
	Toggles
	GameVersion    string
	HasGameVersion bool
}

// Session is the mutable state of one intercepted connection.
type Session struct {
	mu       sync.Mutex
	closed   bool
	toggles  Toggles
	version  *string
	userID   *string
	playerID *int32
	players  map[int32]photon.Player
}

func NewSession(t Toggles) *Session {
	return &Session{
		toggles: t,
		players: make(map[int32]photon.Player),
	}
}

// SetAuthIdentity records what the client sent in its authenticate request.
// Empty values leave the previous value in place.
func (s *Session) SetAuthIdentity(appVersion, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionUnavailable
	}
	if appVersion != "" {
		s.version = &appVersion
	}
	if userID != "" {
		s.userID = &userID
	}
	return nil
}

func (s *Session) SetPlayerID(actorNr int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionUnavailable
	}
	s.playerID = &actorNr
	return nil
}

// MergePlayers adds or overwrites entries; existing actors not in players are kept.
func (s *Session) MergePlayers(players map[int32]photon.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionUnavailable
	}
	maps.Copy(s.players, players)
	return nil
}

// ApplyJoin records a successful join in a single critical section.
func (s *Session) ApplyJoin(actorNr int32, players map[int32]photon.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionUnavailable
	}
	s.playerID = &actorNr
	maps.Copy(s.players, players)
	return nil
}

// SetToggles is called when configuration is reloaded.
func (s *Session) SetToggles(t Toggles) {
	s.mu.Lock()
	s.toggles = t
	s.mu.Unlock()
}

func (s *Session) SnapshotFlags() (Flags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Flags{}, ErrSessionUnavailable
	}
	f := Flags{Toggles: s.toggles}
	if s.version != nil {
		f.GameVersion, f.HasGameVersion = *s.version, true
	}
	return f, nil
}

func (s *Session) GameVersion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == nil {
		return "", false
	}
	return *s.version, true
}

func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == nil {
		return "", false
	}
	return *s.userID, true
}

func (s *Session) PlayerID() (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID == nil {
		return 0, false
	}
	return *s.playerID, true
}

// Players returns a copy of the known actors.
func (s *Session) Players() map[int32]photon.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.players)
}

// Close marks the session as torn down; later mutations fail with ErrSessionUnavailable.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
