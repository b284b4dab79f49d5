package datastores

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openrank/score-publisher/common"
	"github.com/openrank/score-publisher/common/config"
	"github.com/openrank/score-publisher/metrics"
)

type S3 struct {
	client       *minio.Client
	bucket       string
	storageClass string
}

// ConnectS3 builds a new client from the given config. Callers are expected
// to hold on to the returned handle for as long as they need it - typically
// one upload worker holds one handle for one cycle.
func ConnectS3(cfg config.S3Config) (*S3, error) {
	storageClass := cfg.StorageClass
	if storageClass == "" {
		storageClass = "STANDARD"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Region: cfg.Region,
		Secure: cfg.Ssl,
		Creds:  credentials.NewStaticV4(cfg.AccessKeyId, cfg.AccessSecret, ""),
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create S3 client")
	}

	return &S3{
		client:       client,
		bucket:       cfg.BucketName,
		storageClass: storageClass,
	}, nil
}

func (s *S3) Bucket() string {
	return s.bucket
}

func (s *S3) Upload(ctx context.Context, localPath string, key string) error {
	metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject"}).Inc()
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		StorageClass: s.storageClass,
	})
	return err
}

func (s *S3) EnsureBucketExists(ctx context.Context) error {
	metrics.S3Operations.With(prometheus.Labels{"operation": "BucketExists"}).Inc()
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return common.ErrBucketNotFound
	}
	return nil
}
