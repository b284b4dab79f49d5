package main

import (
	"github.com/openrank/score-publisher/api"
	"github.com/openrank/score-publisher/common/globals"
	"github.com/openrank/score-publisher/metrics"
)

func setupReloads() {
	reloadApiOnChan(globals.ApiReloadChan)
	reloadMetricsOnChan(globals.MetricsReloadChan)
}

func stopReloads() {
	// send stop signal to reload fns
	globals.StopReloads(globals.ApiReloadChan, globals.MetricsReloadChan)
}

func reloadApiOnChan(reloadChan chan bool) {
	go func() {
		defer close(reloadChan)
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				api.Reload()
			} else {
				return // received stop
			}
		}
	}()
}

func reloadMetricsOnChan(reloadChan chan bool) {
	go func() {
		defer close(reloadChan)
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				metrics.Reload()
			} else {
				return // received stop
			}
		}
	}()
}
