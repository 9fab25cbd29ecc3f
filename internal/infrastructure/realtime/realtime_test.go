package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type fakeWS struct {
	mu        sync.Mutex
	frames    [][]byte
	closed    bool
	block     chan struct{}
	closeOnce sync.Once
}

func newFakeWS() *fakeWS { return &fakeWS{} }

func newBlockingWS() *fakeWS { return &fakeWS{block: make(chan struct{})} }

func (f *fakeWS) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeWS) WriteMessage(messageType int, data []byte) error {
	if f.block != nil {
		<-f.block
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return websocket.ErrCloseSent
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeWS) WriteControl(int, []byte, time.Time) error { return nil }

func (f *fakeWS) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	if f.block != nil {
		f.closeOnce.Do(func() { close(f.block) })
	}
	return nil
}

func (f *fakeWS) Frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, b := range f.frames {
		out[i] = string(b)
	}
	return out
}

func (f *fakeWS) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// testConn returns a started connection over a fake socket, tracked by r when non-nil.
func testConn(r *Router, userID string) (*Connection, *fakeWS) {
	ws := newFakeWS()
	c := newConnection(userID, ws)
	if r != nil {
		r.Attach(c)
	} else {
		c.Start()
	}
	return c, ws
}

type eventLog struct {
	mu     sync.Mutex
	events []TypingEvent
	at     []time.Time
}

func (l *eventLog) record(ev TypingEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	l.at = append(l.at, time.Now())
}

func (l *eventLog) snapshot() ([]TypingEvent, []time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]TypingEvent(nil), l.events...), append([]time.Time(nil), l.at...)
}
