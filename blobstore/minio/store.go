package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/lexseg/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type options struct {
	prefix    string
	accessKey string
	secretKey string
	region    string
	secure    bool
}

// Option configures New.
type Option func(*options)

// WithPrefix prepends prefix to every object name.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithCredentials sets static V4 credentials.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithRegion sets the bucket region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithSecure enables HTTPS.
func WithSecure(secure bool) Option {
	return func(o *options) { o.secure = secure }
}

// Store implements blobstore.BlobStore on a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New connects to endpoint and returns a store on bucket.
func New(endpoint, bucket string, optFns ...Option) (*Store, error) {
	o := options{}
	for _, fn := range optFns {
		fn(&o)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.accessKey, o.secretKey, ""),
		Secure: o.secure,
		Region: o.region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	return NewStore(client, bucket, o.prefix), nil
}

// NewStore wraps an existing client. rootPrefix is prepended to all names.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Open stats the object and returns a ranged reader.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, key)
		}
		return nil, err
	}

	return &minioBlob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

// Put uploads data in one request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Create streams a new object of unknown size.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	w := &writableBlob{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the names of all objects starting with prefix, relative to
// the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	root := strings.TrimSuffix(s.prefix, "/")
	fullPrefix := s.key(prefix)
	if prefix == "" && root != "" {
		fullPrefix = root + "/"
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := relativeName(obj.Key, root); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func relativeName(key, root string) string {
	if root == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, root), "/")
}

type minioBlob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *minioBlob) Size() int64 { return b.size }

func (b *minioBlob) Close() error { return nil }

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= b.size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), b.size) - 1

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	want := int(end - off + 1)
	n, err := io.ReadFull(obj, p[:want])
	if err != nil {
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

var errUploadAborted = errors.New("minio: upload aborted")

type writableBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu     sync.Mutex
	closed bool
	err    error
}

func (w *writableBlob) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *writableBlob) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.err
	}
	w.closed = true
	if err := w.pw.Close(); err != nil {
		w.err = err
		return err
	}
	w.err = <-w.done
	return w.err
}

// Abort fails the streaming upload so that no object is created.
func (w *writableBlob) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.pw.CloseWithError(errUploadAborted)
	<-w.done
	w.err = errUploadAborted
	return nil
}
