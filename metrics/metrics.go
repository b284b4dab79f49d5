package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var PublishCycles = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "scores_publish_cycles_total",
})
var PublishCycleTime = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name: "scores_publish_cycle_time_seconds",
})
var ManifestsRegistered = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "scores_manifests_registered_total",
})
var ManifestsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "scores_manifests_skipped_total",
}, []string{"reason"})
var Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "scores_uploads_total",
}, []string{"outcome"})
var UploadQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "scores_upload_queue_depth",
})
var S3Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "scores_s3_operations_total",
}, []string{"operation"})

func init() {
	prometheus.MustRegister(PublishCycles)
	prometheus.MustRegister(PublishCycleTime)
	prometheus.MustRegister(ManifestsRegistered)
	prometheus.MustRegister(ManifestsSkipped)
	prometheus.MustRegister(Uploads)
	prometheus.MustRegister(UploadQueueDepth)
	prometheus.MustRegister(S3Operations)
}
