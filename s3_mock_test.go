package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

func newMockS3() *mockS3 {
	return &mockS3{
		buckets: map[string]map[string][]byte{},
	}
}

// mockS3 mimics an S3 blob store for testing.
type mockS3 struct {
	sync.RWMutex
	buckets map[string]map[string][]byte
	s3iface.S3API
}

func (m *mockS3) put(bucket, key string, data []byte) {
	m.Lock()
	defer m.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = map[string][]byte{}
		m.buckets[bucket] = b
	}
	b[key] = data
}

func (m *mockS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.RLock()
	defer m.RUnlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, fmt.Errorf("bucket '%s' does not exist", *in.Bucket)
	}
	data, ok := bucket[*in.Key]
	if !ok {
		return nil, fmt.Errorf("key '%s' does not exist in bucket '%s'", *in.Key, *in.Bucket)
	}
	return &s3.GetObjectOutput{
		Body: ioutil.NopCloser(bytes.NewBuffer(data)),
	}, nil
}

// ListObjectsV2PagesWithContext returns the matching keys in order, in pages
// of MaxKeys.
func (m *mockS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	m.RLock()
	defer m.RUnlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return fmt.Errorf("bucket '%s' does not exist", *in.Bucket)
	}
	var keys []string
	for key := range bucket {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	pageSize := int(aws.Int64Value(in.MaxKeys))
	if pageSize <= 0 {
		pageSize = 1000
	}
	for start := 0; ; start += pageSize {
		end := start + pageSize
		if end > len(keys) {
			end = len(keys)
		}
		var objects []*s3.Object
		for _, key := range keys[start:end] {
			objects = append(objects, &s3.Object{Key: aws.String(key)})
		}
		out := new(s3.ListObjectsV2Output)
		out.SetContents(objects)
		lastPage := end == len(keys)
		if !fn(out, lastPage) || lastPage {
			return nil
		}
	}
}
