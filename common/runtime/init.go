package runtime

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/openrank/score-publisher/common/config"
	"github.com/openrank/score-publisher/common/version"
	"github.com/openrank/score-publisher/datastores"
)

func RunStartupSequence() {
	version.Print(true)
	CheckObjectStore()
}

func CheckObjectStore() {
	logrus.Info("Checking object store...")
	s3, err := datastores.ConnectS3(config.Get().S3)
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = s3.EnsureBucketExists(ctx); err != nil {
		// Not fatal: the first cycle will surface real upload errors with
		// per-object context anyway.
		logrus.Warn("Bucket check failed: ", err)
	}
}
