package realtime

import (
	"sync"
	"time"
)

// DefaultTypingWindow is how long a typing indicator survives without a refresh.
const DefaultTypingWindow = 2 * time.Second

// TypingEvent is emitted on every Idle/Typing transition of a (user, chat) pair.
type TypingEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

type typingKey struct {
	userID string
	chatID string
}

type typingEntry struct {
	userName   string
	timer      *time.Timer
	generation uint64
}

// Typing holds the ephemeral typing state. One goroutine owns the entries and
// their timers; onChange runs on that goroutine and must not call back into Typing.
type Typing struct {
	window   time.Duration
	onChange func(TypingEvent)

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	entries   map[typingKey]*typingEntry
	nextGen   uint64
}

func NewTyping(window time.Duration, onChange func(TypingEvent)) *Typing {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	if onChange == nil {
		onChange = func(TypingEvent) {}
	}
	t := &Typing{
		window:   window,
		onChange: onChange,
		ops:      make(chan func()),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		entries:  make(map[typingKey]*typingEntry),
	}
	go t.loop()
	return t
}

func (t *Typing) loop() {
	defer close(t.done)
	for {
		select {
		case op := <-t.ops:
			op()
		case <-t.quit:
			for _, e := range t.entries {
				e.timer.Stop()
			}
			return
		}
	}
}

func (t *Typing) do(fn func()) {
	finished := make(chan struct{})
	select {
	case t.ops <- func() {
		fn()
		close(finished)
	}:
	case <-t.quit:
		return
	}
	<-finished
}

// Start marks userID as typing in chatID and (re)arms the inactivity timer.
// Only the first call of a burst emits an event.
func (t *Typing) Start(userID, userName, chatID string) {
	if userID == "" || chatID == "" {
		return
	}
	key := typingKey{userID: userID, chatID: chatID}
	t.do(func() {
		t.nextGen++
		gen := t.nextGen
		if e, ok := t.entries[key]; ok {
			e.timer.Stop()
			e.generation = gen
			e.userName = userName
			e.timer = time.AfterFunc(t.window, func() { t.expire(key, gen) })
			return
		}
		t.entries[key] = &typingEntry{
			userName:   userName,
			generation: gen,
			timer:      time.AfterFunc(t.window, func() { t.expire(key, gen) }),
		}
		t.onChange(TypingEvent{UserID: userID, UserName: userName, ChatID: chatID, IsTyping: true})
	})
}

// Stop clears the indicator for (userID, chatID). It is a no-op when idle.
func (t *Typing) Stop(userID, chatID string) {
	key := typingKey{userID: userID, chatID: chatID}
	t.do(func() { t.clearLocked(key) })
}

// ClearUser removes every indicator owned by userID, emitting a stop event for each.
// It returns the chats that were cleared.
func (t *Typing) ClearUser(userID string) []string {
	var cleared []string
	t.do(func() {
		for key := range t.entries {
			if key.userID != userID {
				continue
			}
			cleared = append(cleared, key.chatID)
			t.clearLocked(key)
		}
	})
	return cleared
}

// Active lists the users currently typing in chatID.
func (t *Typing) Active(chatID string) []string {
	var users []string
	t.do(func() {
		for key := range t.entries {
			if key.chatID == chatID {
				users = append(users, key.userID)
			}
		}
	})
	return users
}

// expire runs from a timer goroutine. A refresh that happened after the timer
// was armed bumps the generation, so a late fire is ignored.
func (t *Typing) expire(key typingKey, gen uint64) {
	t.do(func() {
		e, ok := t.entries[key]
		if !ok || e.generation != gen {
			return
		}
		t.clearLocked(key)
	})
}

func (t *Typing) clearLocked(key typingKey) {
	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(t.entries, key)
	t.onChange(TypingEvent{UserID: key.userID, UserName: e.userName, ChatID: key.chatID, IsTyping: false})
}

// Close stops the owner goroutine and every pending timer. No events are emitted afterwards.
func (t *Typing) Close() {
	t.closeOnce.Do(func() { close(t.quit) })
	<-t.done
}
