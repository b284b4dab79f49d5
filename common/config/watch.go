package config

import (
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/openrank/score-publisher/common/globals"
)

func Watch() *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Fatal(err)
	}

	err = watcher.Add(Path)
	if err != nil {
		logrus.Fatal(err)
	}

	go func() {
		debounced := debounce.New(1 * time.Second)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				debounced(onFileChanged)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Error("error in config watcher:", err)
			}
		}
	}()

	return watcher
}

func onFileChanged() {
	logrus.Info("Config file change detected - reloading")
	configNow := Get()
	configNew, err := reloadConfig()
	if err != nil {
		logrus.Error("Error reloading configuration - ignoring")
		logrus.Error(err)
		return
	}

	logrus.Info("Applying reloaded config live")
	instance = configNew

	apiEnableChange := configNew.Api.Enabled != configNow.Api.Enabled
	apiBindAddressChange := configNew.Api.BindAddress != configNow.Api.BindAddress
	apiBindPortChange := configNew.Api.Port != configNow.Api.Port
	if apiEnableChange || apiBindAddressChange || apiBindPortChange {
		logrus.Warn("Status API configuration changed - remounting")
		globals.RequestReload(globals.ApiReloadChan)
	}

	metricsEnableChange := configNew.Metrics.Enabled != configNow.Metrics.Enabled
	metricsBindAddressChange := configNew.Metrics.BindAddress != configNow.Metrics.BindAddress
	metricsBindPortChange := configNew.Metrics.Port != configNow.Metrics.Port
	if metricsEnableChange || metricsBindAddressChange || metricsBindPortChange {
		logrus.Warn("Metrics configuration changed - remounting")
		globals.RequestReload(globals.MetricsReloadChan)
	}

	publisherChange := configNew.Publisher != configNow.Publisher
	s3Change := configNew.S3 != configNow.S3
	if publisherChange || s3Change {
		logrus.Info("Publisher configuration changed - the next cycle will pick it up")
	}

	logChange := configNew.General != configNow.General
	if logChange {
		logrus.Warn("Log configuration changed - restart the publisher to apply changes")
	}
}
