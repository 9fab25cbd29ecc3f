package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceTransitions(t *testing.T) {
	p := NewPresence()
	defer p.Close()

	assert.False(t, p.Status("a").Online)
	assert.Nil(t, p.Status("a").LastSeen)

	assert.True(t, p.Connect("a"))
	assert.False(t, p.Connect("a"))
	assert.Equal(t, 2, p.Status("a").Connections)

	assert.False(t, p.Disconnect("a"))
	assert.True(t, p.Status("a").Online)
	assert.True(t, p.Disconnect("a"))

	st := p.Status("a")
	assert.False(t, st.Online)
	assert.NotNil(t, st.LastSeen)

	// Extra disconnects never go negative or report a second offline.
	assert.False(t, p.Disconnect("a"))
	assert.True(t, p.Connect("a"))
}

func TestPresenceConcurrentConnects(t *testing.T) {
	p := NewPresence()
	defer p.Close()

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		online  int
		offline int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Connect("u") {
				mu.Lock()
				online++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, online)
	assert.Equal(t, n, p.Status("u").Connections)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Disconnect("u") {
				mu.Lock()
				offline++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, offline)
	assert.Empty(t, p.Online())
}

func TestPresenceAfterClose(t *testing.T) {
	p := NewPresence()
	p.Close()
	p.Close()
	assert.False(t, p.Connect("a"))
	assert.False(t, p.Status("a").Online)
}
