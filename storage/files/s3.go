package files

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
)

// S3Storage keeps uploaded blobs in an S3 bucket, optionally under a key
// prefix.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ core.FileStorage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, conf *core.Config) (*S3Storage, error) {
	if conf.Uploads.S3Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}
	region := conf.Uploads.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return &S3Storage{
		client: s3.NewFromConfig(awsCfg),
		bucket: conf.Uploads.S3Bucket,
		prefix: conf.Uploads.S3Prefix,
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, path string, content io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   content,
	})
	return errors.Wrap(err, "putting object")
}

func (s *S3Storage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "getting object")
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	return errors.Wrap(err, "deleting object")
}

func (s *S3Storage) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + path
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
