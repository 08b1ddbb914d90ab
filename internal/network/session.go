package network

import "sync"

// Phase is the lifecycle stage of a Session.
type Phase int

const (
	PhaseUnconfigured Phase = iota
	PhaseNetworkSelected
	PhaseConnected
)

func (p Phase) String() string {
	switch p {
	case PhaseNetworkSelected:
		return "network-selected"
	case PhaseConnected:
		return "connected"
	default:
		return "unconfigured"
	}
}

// Session holds the active network and the selected server. One session
// belongs to one Client; it is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	state     *NetworkState
	server    string
	pinned    bool
	connected bool
}

// NewSession returns an unconfigured session.
func NewSession() *Session {
	return &Session{}
}

// Network returns the active network state, or nil.
func (s *Session) Network() *NetworkState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Server returns the selected server, or "".
func (s *Session) Server() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}

// Pinned reports whether the server was chosen explicitly.
func (s *Session) Pinned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pinned
}

// Phase returns the session's lifecycle stage.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.state == nil:
		return PhaseUnconfigured
	case s.connected && s.server != "":
		return PhaseConnected
	default:
		return PhaseNetworkSelected
	}
}

// connectedTo reports whether the session is connected to network name.
func (s *Session) connectedTo(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil && s.state.Name() == name && s.connected && s.server != ""
}

// bind replaces the active network. The server selection is kept only if
// it was pinned.
func (s *Session) bind(state *NetworkState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.connected = false
	if !s.pinned {
		s.server = ""
	}
}

func (s *Session) setServer(server string, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = server
	s.pinned = pinned
}

// replaceServer swaps in a failover server unless the selection is pinned.
func (s *Session) replaceServer(server string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pinned {
		s.server = server
	}
}

func (s *Session) markConnected() {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
}
