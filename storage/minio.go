package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/irc-library/maktaba/config"
)

// MinioHost stores covers in an S3-compatible bucket.
type MinioHost struct {
	client *minio.Client
	bucket string
	public string
}

func NewMinioHost(opts *config.Options) (*MinioHost, error) {
	client, err := minio.New(opts.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.MinioAccessKey, opts.MinioSecretKey, ""),
		Secure: opts.MinioUseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to init minio client")
	}

	scheme := "http"
	if opts.MinioUseSSL {
		scheme = "https"
	}
	return &MinioHost{
		client: client,
		bucket: opts.MinioBucket,
		public: fmt.Sprintf("%s://%s/%s", scheme, opts.MinioEndpoint, opts.MinioBucket),
	}, nil
}

// EnsureBucket makes sure the cover bucket exists before first use.
func (h *MinioHost) EnsureBucket(ctx context.Context) error {
	exists, err := h.client.BucketExists(ctx, h.bucket)
	if err != nil {
		return errors.Wrapf(err, "failed to check bucket %s", h.bucket)
	}
	if !exists {
		if err := h.client.MakeBucket(ctx, h.bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrapf(err, "failed to make bucket %s", h.bucket)
		}
	}
	return nil
}

func (h *MinioHost) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := h.client.PutObject(ctx, h.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload cover %s", name)
	}
	return h.public + "/" + name, nil
}
