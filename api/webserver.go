package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/openrank/score-publisher/common/config"
	"github.com/openrank/score-publisher/tasks"
)

var srv *http.Server
var publisher *tasks.Publisher

// Init mounts the read-only status API. It reports on the given publisher
// and does nothing when disabled in the config.
func Init(p *tasks.Publisher) {
	publisher = p
	if !config.Get().Api.Enabled {
		logrus.Info("Status API disabled")
		return
	}

	rtr := mux.NewRouter()
	rtr.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	rtr.HandleFunc("/api/v1/status", statusHandler).Methods(http.MethodGet)

	address := net.JoinHostPort(config.Get().Api.BindAddress, strconv.Itoa(config.Get().Api.Port))
	srv = &http.Server{Addr: address, Handler: rtr}
	go func() {
		logrus.WithField("address", address).Info("Started status API. Listening at http://" + address)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			logrus.Fatal(err)
		}
	}()
}

func Reload() {
	Stop()
	Init(publisher)
}

func Stop() {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			panic(err)
		}
		srv = nil
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func statusHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(publisher.Status()); err != nil {
		logrus.Error("Error writing status response: ", err)
	}
}
