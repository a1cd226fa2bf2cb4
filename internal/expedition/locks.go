package expedition

import "sync"

// playerLocks hands out one mutex per player ID. Entries are dropped once no
// caller holds or waits on them.
type playerLocks struct {
	mu    sync.Mutex
	locks map[string]*playerLock
}

type playerLock struct {
	sync.Mutex
	refs int
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{locks: make(map[string]*playerLock)}
}

// lock blocks until playerID's mutex is held and returns its release func.
func (p *playerLocks) lock(playerID string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[playerID]
	if !ok {
		l = &playerLock{}
		p.locks[playerID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, playerID)
		}
		p.mu.Unlock()
	}
}

// held reports how many players currently have a live lock entry.
func (p *playerLocks) held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
