package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/openrank/score-publisher/api"
	"github.com/openrank/score-publisher/common/config"
	"github.com/openrank/score-publisher/common/logging"
	"github.com/openrank/score-publisher/common/runtime"
	"github.com/openrank/score-publisher/common/version"
	"github.com/openrank/score-publisher/metrics"
	"github.com/openrank/score-publisher/tasks"
)

func main() {
	configPath := flag.String("config", "score-publisher.yaml", "The path to the configuration")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Parse()

	if *versionFlag {
		version.Print(false)
		return // exit 0
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("SCORE_PUBLISHER_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	config.Path = *configPath
	if config.Get().Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.Get().Sentry.Dsn,
			Environment: config.Get().Sentry.Environment,
			Debug:       config.Get().Sentry.Debug,
			Release:     fmt.Sprintf("%s-%s", version.Version, version.GitCommit),
		})
		if err != nil {
			panic(err)
		}
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	err := logging.Setup(
		config.Get().General.LogDirectory,
		config.Get().General.LogColors,
		config.Get().General.JsonLogs,
		config.Get().General.LogLevel,
	)
	if err != nil {
		panic(err)
	}

	logrus.Info("Starting up...")
	runtime.RunStartupSequence()

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)
	setupReloads()

	logrus.Info("Starting score publisher...")
	metrics.Init()
	publisher := tasks.NewPublisher()
	publisher.Start()
	api.Init(publisher)

	// Wait for a stop signal, then unwind everything
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logrus.Warn("Stop signal received")

	logrus.Info("Stopping publisher...")
	publisher.Stop()

	logrus.Info("Stopping status API...")
	api.Stop()

	logrus.Info("Stopping metrics...")
	metrics.Stop()

	logrus.Info("Stopping reload watchers...")
	stopReloads()

	logrus.Info("Goodbye!")
}
