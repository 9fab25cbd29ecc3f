package realtime

import (
	"sync"
	"time"
)

// PresenceStatus is a snapshot of one user's presence on this node.
type PresenceStatus struct {
	UserID      string     `json:"userId"`
	Online      bool       `json:"online"`
	Connections int        `json:"connections"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
}

type presenceEntry struct {
	connections int
	lastSeen    time.Time
}

// Presence counts joined connections per user. A single goroutine owns the
// map; callers talk to it through request/reply closures.
type Presence struct {
	ops       chan func(map[string]*presenceEntry)
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

func NewPresence() *Presence {
	p := &Presence{
		ops:  make(chan func(map[string]*presenceEntry)),
		quit: make(chan struct{}),
		done: make(chan struct{}),
		now:  time.Now,
	}
	go p.loop()
	return p
}

func (p *Presence) loop() {
	defer close(p.done)
	entries := make(map[string]*presenceEntry)
	for {
		select {
		case op := <-p.ops:
			op(entries)
		case <-p.quit:
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for it. It reports false once closed.
func (p *Presence) do(fn func(map[string]*presenceEntry)) bool {
	finished := make(chan struct{})
	select {
	case p.ops <- func(entries map[string]*presenceEntry) {
		fn(entries)
		close(finished)
	}:
	case <-p.quit:
		return false
	}
	<-finished
	return true
}

// Connect records one more connection for userID. It reports whether the user
// just went from offline to online.
func (p *Presence) Connect(userID string) bool {
	var cameOnline bool
	p.do(func(entries map[string]*presenceEntry) {
		e := entries[userID]
		if e == nil {
			e = &presenceEntry{}
			entries[userID] = e
		}
		e.connections++
		e.lastSeen = p.now()
		cameOnline = e.connections == 1
	})
	return cameOnline
}

// Disconnect drops one connection for userID. It reports whether that was the
// user's last connection. Extra calls never drive the count below zero.
func (p *Presence) Disconnect(userID string) bool {
	var wentOffline bool
	p.do(func(entries map[string]*presenceEntry) {
		e := entries[userID]
		if e == nil || e.connections == 0 {
			return
		}
		e.connections--
		e.lastSeen = p.now()
		wentOffline = e.connections == 0
	})
	return wentOffline
}

// Status returns userID's presence. LastSeen is nil for users never seen by this node.
func (p *Presence) Status(userID string) PresenceStatus {
	status := PresenceStatus{UserID: userID}
	p.do(func(entries map[string]*presenceEntry) {
		e := entries[userID]
		if e == nil {
			return
		}
		seen := e.lastSeen
		status.Online = e.connections > 0
		status.Connections = e.connections
		status.LastSeen = &seen
	})
	return status
}

// Online lists the users with at least one joined connection.
func (p *Presence) Online() []string {
	var ids []string
	p.do(func(entries map[string]*presenceEntry) {
		for id, e := range entries {
			if e.connections > 0 {
				ids = append(ids, id)
			}
		}
	})
	return ids
}

// Close stops the owner goroutine. Later calls return zero values.
func (p *Presence) Close() {
	p.closeOnce.Do(func() { close(p.quit) })
	<-p.done
}
