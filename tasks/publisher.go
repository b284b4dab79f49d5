package tasks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openrank/score-publisher/common"
	"github.com/openrank/score-publisher/common/config"
	"github.com/openrank/score-publisher/common/rcontext"
	"github.com/openrank/score-publisher/datastores"
	"github.com/openrank/score-publisher/manifests"
	"github.com/openrank/score-publisher/metrics"
	"github.com/openrank/score-publisher/pipeline"
	"github.com/openrank/score-publisher/util"
)

const EpochIndexKey = "api/scores/list.json"
const IndexerCacheKey = "api/scores/indexer-scores"

// Status is a point-in-time snapshot for the status API.
type Status struct {
	CurrentEpoch    int64 `json:"currentEpoch"`
	ManifestCount   int   `json:"manifestCount"`
	LastCycleMillis int64 `json:"lastCycleMs"`
}

// Publisher owns the manifest store and runs the publish cycle forever:
// scan the score directory, pick the current epoch, push everything new to
// the object store, publish the epoch index, sleep, repeat.
type Publisher struct {
	store   *manifests.Store
	connect pipeline.ConnectFunc
	stopCh  chan bool

	statusLock sync.Mutex
	status     Status
}

func NewPublisher() *Publisher {
	return &Publisher{
		store: manifests.NewStore(),
		connect: func() (pipeline.Uploader, error) {
			return datastores.ConnectS3(config.Get().S3)
		},
		stopCh: make(chan bool),
	}
}

func (p *Publisher) Start() {
	go func() {
		ctx := rcontext.Initial().LogWithFields(logrus.Fields{"task": "publish_scores"})
		for {
			if err := p.runCycle(ctx, config.Get().Publisher); err != nil {
				sentry.CaptureException(err)
				sentry.Flush(2 * time.Second)
				ctx.Log.Fatal("Publish cycle failed: ", err)
			}

			interval := time.Duration(config.Get().Publisher.ScanIntervalSeconds) * time.Second
			select {
			case <-p.stopCh:
				ctx.Log.Info("Publisher stopped")
				return
			case <-time.After(interval):
			}
		}
	}()
}

// Stop blocks until the publisher acknowledges, which may take until the
// cycle in flight finishes its drain and cleanup.
func (p *Publisher) Stop() {
	p.stopCh <- true
}

func (p *Publisher) Status() Status {
	p.statusLock.Lock()
	defer p.statusLock.Unlock()
	return p.status
}

// runCycle is one full pass. The pipeline drain and the scratch workspace
// removal are deferred so they run on every exit path, including errors.
func (p *Publisher) runCycle(ctx rcontext.RequestContext, cfg config.PublisherConfig) error {
	ctx.Log.Info("Starting a publish cycle")
	started := time.Now()

	pl := pipeline.Start(ctx, cfg.NumWorkers, p.connect)
	scratch, err := os.MkdirTemp("", "score-publisher")
	if err != nil {
		pl.Drain()
		return errors.Wrap(err, "cannot create scratch workspace")
	}
	defer func() {
		pl.Drain()
		if removeErr := os.RemoveAll(scratch); removeErr != nil {
			ctx.Log.Warn("Cannot remove scratch workspace: ", removeErr)
		}
	}()

	discoverer := manifests.NewDiscoverer(p.store, pl, scratch)
	if err = discoverer.Scan(ctx, cfg.Directory); err != nil {
		return err
	}

	epoch, timestamps, err := p.store.SelectCurrentEpoch()
	if errors.Is(err, common.ErrEmptyStore) {
		ctx.Log.Info("No manifests registered yet - nothing to publish")
		return nil
	} else if err != nil {
		return err
	}

	indexPath := filepath.Join(scratch, "list.json")
	if err = writeEpochIndex(indexPath, timestamps); err != nil {
		return err
	}
	pl.Enqueue(pipeline.Job{LocalPath: indexPath, RemoteKey: EpochIndexKey})
	pl.Enqueue(pipeline.Job{LocalPath: cfg.IndexerCache, RemoteKey: IndexerCacheKey})

	p.statusLock.Lock()
	p.status = Status{
		CurrentEpoch:    epoch,
		ManifestCount:   p.store.Count(),
		LastCycleMillis: util.NowMillis(),
	}
	p.statusLock.Unlock()

	metrics.PublishCycles.Inc()
	metrics.PublishCycleTime.Observe(time.Since(started).Seconds())
	ctx.Log.WithFields(logrus.Fields{"epoch": epoch, "manifests": len(timestamps)}).Info("Finished a publish cycle")
	return nil
}

// writeEpochIndex serializes the epoch's timestamps, ascending, as strings.
func writeEpochIndex(path string, timestamps []int64) error {
	list := make([]string, 0, len(timestamps))
	for _, ts := range timestamps {
		list = append(list, strconv.FormatInt(ts, 10))
	}

	body, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, body, 0644), "cannot write epoch index")
}
