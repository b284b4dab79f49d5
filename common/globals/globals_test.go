package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestReload_DroppedAfterStop(t *testing.T) {
	ch := make(chan bool)
	reloads := 0
	done := make(chan struct{})

	// Mirrors the reload goroutines in cmd: they close their channel on exit
	go func() {
		defer close(ch)
		for {
			if <-ch {
				reloads++
			} else {
				close(done)
				return
			}
		}
	}()

	RequestReload(ch)
	StopReloads(ch)
	<-done

	// The consumer is gone and its channel closing; the request must be
	// dropped instead of sent
	assert.NotPanics(t, func() { RequestReload(ch) })
	assert.NotPanics(t, func() { StopReloads(ch) })
	assert.Equal(t, 1, reloads)
}
