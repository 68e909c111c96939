package main

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// maxS3Keys is the page size used when listing a bucket
const maxS3Keys = 1000

// BlobStore is where billing reports and their manifests are kept.
type BlobStore interface {
	// List returns every key starting with prefix, in lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get opens the object stored under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// S3Store reads billing reports from an S3 bucket
type S3Store struct {
	client s3iface.S3API
	bucket string
}

// NewS3Store creates an S3Store for the bucket, talking to the bucket's own
// region. regionHint is the region used to look that up.
func NewS3Store(ctx context.Context, sess *session.Session, bucket, regionHint string) (*S3Store, error) {
	region, err := s3manager.GetBucketRegion(ctx, sess, bucket, regionHint)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get region of bucket %s", bucket)
	}
	log.WithFields(log.Fields{
		"bucket": bucket,
		"region": region,
	}).Debug("Found bucket region")
	return newS3StoreWithClient(s3.New(sess, aws.NewConfig().WithRegion(region)), bucket), nil
}

func newS3StoreWithClient(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// List returns the keys of all objects in the bucket under prefix
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(maxS3Keys),
	}, func(out *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range out.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't list bucket %s", s.bucket)
	}
	return keys, nil
}

// Get downloads the object stored under key
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get s3://%s/%s", s.bucket, key)
	}
	return obj.Body, nil
}

// parseS3Path splits "s3://bucket/some/prefix" into the bucket name and the
// key prefix, without a leading slash.
func parseS3Path(path string) (bucket, prefix string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.Errorf("%q is not an s3://bucket/prefix path", path)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
