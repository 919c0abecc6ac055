// Package minio serves graph databases from MinIO or any S3-compatible
// object store reachable over its native client.
package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/manifoldscan/fetch"
)

// Store implements fetch.Store over a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ fetch.Store = (*Store)(nil)

// New creates a Store reading from bucket. prefix is prepended to all
// object names, e.g. "graphs/".
func New(client *minio.Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open verifies the object exists and returns a ranged reader over it.
func (s *Store) Open(ctx context.Context, name string) (fetch.Object, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("minio object %q: %w", key, fetch.ErrNotFound)
		}
		return nil, fmt.Errorf("stat minio object %q: %w", key, err)
	}

	return &object{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

type object struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (o *object) Size() int64 {
	return o.size
}

func (o *object) Close() error {
	return nil
}

// ReadAt fetches the requested window with a ranged GetObject.
func (o *object) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= o.size {
		end = o.size - 1
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, fmt.Errorf("range %d-%d of %q: %w", off, end, o.key, err)
	}

	obj, err := o.client.GetObject(context.Background(), o.bucket, o.key, opts)
	if err != nil {
		return 0, fmt.Errorf("get minio object %q: %w", o.key, err)
	}
	defer func() { _ = obj.Close() }()

	want := int(end - off + 1)
	n, err := io.ReadFull(obj, p[:want])
	if err != nil {
		return n, fmt.Errorf("read minio object %q: %w", o.key, err)
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}
