package globals

import "sync"

var ApiReloadChan = make(chan bool)
var MetricsReloadChan = make(chan bool)

var reloadLock = &sync.Mutex{}
var reloadsStopped = false

// RequestReload delivers a reload signal unless shutdown has already begun.
// The reload goroutines close their channels when they exit, so an unguarded
// send from a late config change would panic.
func RequestReload(ch chan bool) {
	reloadLock.Lock()
	defer reloadLock.Unlock()
	if reloadsStopped {
		return
	}
	ch <- true
}

// StopReloads tells each reload goroutine to exit and drops any reload
// requests from then on.
func StopReloads(chans ...chan bool) {
	reloadLock.Lock()
	defer reloadLock.Unlock()
	if reloadsStopped {
		return
	}
	reloadsStopped = true
	for _, ch := range chans {
		ch <- false
	}
}
