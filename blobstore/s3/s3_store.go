package s3

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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/lexseg/blobstore"
)

// Client is the subset of the S3 API used by Store.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ Client = (*s3.Client)(nil)

// UploadConfig tunes multipart uploads of new segments.
type UploadConfig struct {
	// PartSize is the part size for multipart uploads. Default: 8 MiB.
	PartSize int64
	// Concurrency is the number of parts uploaded in parallel. Default: 5.
	Concurrency int
	// EnableChecksum requests CRC32C integrity validation. Default: true.
	EnableChecksum bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

type options struct {
	prefix       string
	region       string
	endpoint     string
	usePathStyle bool
	upload       UploadConfig
}

// Option configures a Store.
type Option func(*options)

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion overrides the region from the shared AWS config. Only used by New.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the client at a custom endpoint with path-style
// addressing, e.g. LocalStack. Only used by New.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
		o.usePathStyle = true
	}
}

// WithUploadConfig overrides the multipart upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) { o.upload = cfg }
}

// Store implements blobstore.BlobStore on an S3 bucket.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	upload   UploadConfig
	uploader *manager.Uploader
}

// New creates a store using the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	o := options{upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
		so.UsePathStyle = o.usePathStyle
	})
	return NewStore(client, bucket, optFns...), nil
}

// NewStore creates a store on an existing client.
func NewStore(client Client, bucket string, optFns ...Option) *Store {
	o := options{upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&o)
	}
	return &Store{
		client: client,
		bucket: bucket,
		prefix: o.prefix,
		upload: o.upload,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			if o.upload.PartSize > 0 {
				u.PartSize = o.upload.PartSize
			}
			if o.upload.Concurrency > 0 {
				u.Concurrency = o.upload.Concurrency
			}
		}),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

// Open checks that the object exists and returns a ranged reader.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, key)
		}
		return nil, err
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Create streams a new object through the upload manager.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   pr,
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	w := &writableBlob{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := s.uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	_, err := s.client.PutObject(ctx, input)
	return err
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the names of all objects under the store prefix starting with
// prefix, relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if prefix == "" && s.prefix != "" {
		fullPrefix = strings.TrimSuffix(s.prefix, "/") + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	root := strings.TrimSuffix(s.prefix, "/")
	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if root != "" {
				name = strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Close() error { return nil }

func (b *s3Blob) Size() int64 { return b.size }

func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("s3: negative offset %d", off)
	}
	if off >= b.size {
		return 0, io.EOF
	}

	end := min(off+int64(len(p)), b.size) - 1
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	want := int(end - off + 1)
	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, err
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

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

// Abort fails the upload. The upload manager aborts the multipart upload, so
// no object is created.
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

var errUploadAborted = errors.New("s3: upload aborted")
