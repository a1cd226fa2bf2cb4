package expedition

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerLocks_SerialisesOnePlayer(t *testing.T) {
	locks := newPlayerLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("p1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.held(), "released entries are dropped")
}

func TestPlayerLocks_IndependentPlayers(t *testing.T) {
	locks := newPlayerLocks()
	unlockA := locks.lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.lock("b")
		unlockB()
		close(done)
	}()
	<-done
	assert.Equal(t, 1, locks.held())
	unlockA()
	assert.Zero(t, locks.held())
}
