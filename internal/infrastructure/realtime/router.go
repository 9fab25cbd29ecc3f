package realtime

import (
	"sync"
)

// Router tracks live connections and logical rooms (one per chat).
// A user may hold several connections; each is routed independently.
// The maps are reachable only through Router methods.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]map[string]struct{}    // userID -> set of sessionIDs
	rooms        map[string]map[string]*Connection // chatID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of chatIDs
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]struct{}),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers conn and starts its writer.
func (r *Router) Attach(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	set := r.userSessions[conn.UserID]
	if set == nil {
		set = make(map[string]struct{})
		r.userSessions[conn.UserID] = set
	}
	set[conn.ID] = struct{}{}
	r.mu.Unlock()

	conn.Start()
}

// Detach removes conn from every room. It returns the rooms it was in.
func (r *Router) Detach(conn *Connection) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detachLocked(conn.ID)
}

// Join adds the connection to the chat room.
func (r *Router) Join(chatID string, conn *Connection) {
	r.mu.Lock()
	r.joinLocked(chatID, conn)
	r.mu.Unlock()
}

// SetRooms replaces the connection's memberships with chatIDs.
func (r *Router) SetRooms(conn *Connection, chatIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}
	want := make(map[string]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		want[id] = struct{}{}
	}
	for room := range r.sessionRooms[conn.ID] {
		if _, keep := want[room]; !keep {
			r.leaveLocked(room, conn.ID)
		}
	}
	for room := range want {
		r.joinLocked(room, conn)
	}
}

// Leave removes the connection from the chat room.
func (r *Router) Leave(chatID string, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(chatID, conn.ID)
	r.mu.Unlock()
}

// Broadcast writes payload to every connection in the room.
// excludeUserID, when non-empty, skips all of that user's connections.
func (r *Router) Broadcast(chatID string, payload []byte, excludeUserID string) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.rooms[chatID]))
	for _, conn := range r.rooms[chatID] {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// BroadcastAll writes payload to every tracked connection except excludeUserID's.
func (r *Router) BroadcastAll(payload []byte, excludeUserID string) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// NotifyUser delivers payload to every connection of the given user.
func (r *Router) NotifyUser(userID string, payload []byte) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.userSessions[userID]))
	for id := range r.userSessions[userID] {
		if conn := r.sessions[id]; conn != nil {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// InRoom reports whether conn is subscribed to the chat room.
func (r *Router) InRoom(chatID string, conn *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[chatID][conn.ID]
	return ok
}

// Connections reports how many live connections userID holds on this node.
func (r *Router) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userSessions[userID])
}

// Members reports how many connections are subscribed to the room.
func (r *Router) Members(chatID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[chatID])
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]map[string]struct{})
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "router shutdown")
	}
}

func deliver(targets []*Connection, payload []byte) int {
	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Router) joinLocked(chatID string, conn *Connection) {
	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}
	room := r.rooms[chatID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[chatID] = room
	}
	room[conn.ID] = conn

	memberships := r.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[conn.ID] = memberships
	}
	memberships[chatID] = struct{}{}
}

func (r *Router) detachLocked(sessionID string) []string {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(r.sessions, sessionID)

	if set := r.userSessions[conn.UserID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.userSessions, conn.UserID)
		}
	}

	var left []string
	for roomID := range r.sessionRooms[sessionID] {
		left = append(left, roomID)
		r.leaveLocked(roomID, sessionID)
	}
	delete(r.sessionRooms, sessionID)
	return left
}

func (r *Router) leaveLocked(chatID string, sessionID string) {
	if sessionID == "" {
		return
	}
	if room := r.rooms[chatID]; room != nil {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(r.rooms, chatID)
		}
	}
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, chatID)
		if len(memberships) == 0 {
			delete(r.sessionRooms, sessionID)
		}
	}
}
