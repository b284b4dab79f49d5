package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/openrank/score-publisher/common/rcontext"
	"github.com/openrank/score-publisher/metrics"
)

// Job is one file to push to the object store. Jobs carry no identity beyond
// the pair itself - de-duplication happens upstream in the manifest store.
type Job struct {
	LocalPath string
	RemoteKey string
}

type Uploader interface {
	Bucket() string
	Upload(ctx context.Context, localPath string, key string) error
}

// ConnectFunc is invoked at most once per worker, on that worker's first job.
type ConnectFunc func() (Uploader, error)

// Pipeline is a bounded queue of upload jobs consumed by a fixed pool of
// workers. A pipeline lives for exactly one publish cycle: Start it, feed it
// with Enqueue, then Drain it and throw it away.
type Pipeline struct {
	jobs    chan Job
	workers sync.WaitGroup
}

const queueFactor = 4

func Start(ctx rcontext.RequestContext, numWorkers int, connect ConnectFunc) *Pipeline {
	p := &Pipeline{
		jobs: make(chan Job, numWorkers*queueFactor),
	}
	for i := 0; i < numWorkers; i++ {
		workerCtx := ctx.LogWithFields(logrus.Fields{"worker": fmt.Sprintf("uploader-%d", i)})
		p.workers.Add(1)
		go p.runWorker(workerCtx, connect)
	}
	return p
}

// Enqueue blocks while the queue is full, applying backpressure to the
// caller. This caps how far discovery can race ahead of the uploads and
// bounds peak scratch disk usage.
func (p *Pipeline) Enqueue(job Job) {
	p.jobs <- job
	metrics.UploadQueueDepth.Inc()
}

// Drain signals that no more jobs are coming and blocks until every worker
// has exited. Upload failures inside workers were already logged and do not
// surface here.
func (p *Pipeline) Drain() {
	close(p.jobs)
	p.workers.Wait()
}

func (p *Pipeline) runWorker(ctx rcontext.RequestContext, connect ConnectFunc) {
	defer p.workers.Done()
	defer func() {
		if r := recover(); r != nil {
			ctx.Log.Error("Panic in upload worker: ", r)
			if err, ok := r.(error); ok {
				sentry.CaptureException(err)
			}
		}
	}()

	var uploader Uploader
	for job := range p.jobs {
		metrics.UploadQueueDepth.Dec()

		if uploader == nil {
			conn, err := connect()
			if err != nil {
				metrics.Uploads.With(prometheus.Labels{"outcome": "failure"}).Inc()
				ctx.Log.WithFields(logrus.Fields{"path": job.LocalPath, "key": job.RemoteKey}).Error("Cannot connect to the object store: ", err)
				sentry.CaptureException(err)
				continue
			}
			uploader = conn
		}

		log := ctx.Log.WithFields(logrus.Fields{
			"path":   job.LocalPath,
			"key":    job.RemoteKey,
			"bucket": uploader.Bucket(),
		})
		if err := uploader.Upload(ctx, job.LocalPath, job.RemoteKey); err != nil {
			metrics.Uploads.With(prometheus.Labels{"outcome": "failure"}).Inc()
			log.Error("Upload failed: ", err)
			sentry.CaptureException(err)
			continue
		}

		metrics.Uploads.With(prometheus.Labels{"outcome": "success"}).Inc()
		if info, err := os.Stat(job.LocalPath); err == nil {
			log = log.WithField("size", humanize.Bytes(uint64(info.Size())))
		}
		log.Info("Uploaded")
	}

	ctx.Log.Debug("Upload worker finished")
}
