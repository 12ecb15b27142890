// Package filestore opens bulk block files from local disk, HDFS or Google
// Cloud Storage and transparently decompresses them.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/colinmarc/hdfs/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/api/option"
)

// ErrUnsupportedScheme is returned for URLs whose scheme has no backend.
var ErrUnsupportedScheme = errors.New("unsupported file scheme")

// DefaultHDFSNamenode is dialed for hdfs:///path references with no host.
const DefaultHDFSNamenode = "localhost:8020"

// Config holds file access settings.
type Config struct {
	HDFSNamenode       string `yaml:"hdfs_namenode"`
	HDFSUser           string `yaml:"hdfs_user"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`
	MaxLineSize        int    `yaml:"max_line_size"`
}

// Option configures an Opener.
type Option func(*Opener)

// WithGCSClient makes the opener use an existing storage client.
func WithGCSClient(client *storage.Client) Option {
	return func(o *Opener) {
		o.gcs = client
	}
}

// Opener resolves a file path to a decompressed reader.
type Opener struct {
	cfg Config

	mu  sync.Mutex
	gcs *storage.Client
}

// NewOpener creates an opener.
func NewOpener(cfg Config, opts ...Option) *Opener {
	o := &Opener{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open returns a reader over the decompressed content of path. The caller
// must close it.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	raw, err := o.openRaw(ctx, path)
	if err != nil {
		return nil, err
	}
	r, err := Decompress(path, raw)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return r, nil
}

func (o *Opener) openRaw(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.Contains(path, "://") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return f, nil
	}

	u, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid file url %s: %w", path, err)
	}

	switch u.Scheme {
	case "file":
		return o.openRaw(ctx, u.Path)
	case "hdfs":
		return o.openHDFS(u)
	case "gs":
		return o.openGCS(ctx, u)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

// namenode returns the address for u, falling back to the configured one.
func (o *Opener) namenode(u *url.URL) string {
	if u.Host != "" {
		return u.Host
	}
	if o.cfg.HDFSNamenode != "" {
		return o.cfg.HDFSNamenode
	}
	return DefaultHDFSNamenode
}

func (o *Opener) openHDFS(u *url.URL) (io.ReadCloser, error) {
	addr := o.namenode(u)
	client, err := hdfs.NewClient(hdfs.ClientOptions{
		Addresses: []string{addr},
		User:      o.cfg.HDFSUser,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to namenode %s: %w", addr, err)
	}
	f, err := client.Open(u.Path)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to open hdfs file %s: %w", u.Path, err)
	}
	return &hdfsFile{FileReader: f, client: client}, nil
}

type hdfsFile struct {
	*hdfs.FileReader
	client *hdfs.Client
}

func (f *hdfsFile) Close() error {
	err := f.FileReader.Close()
	if cerr := f.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func (o *Opener) openGCS(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	client, err := o.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	object := strings.TrimPrefix(u.Path, "/")
	r, err := client.Bucket(u.Host).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", u.Host, object, err)
	}
	return r, nil
}

func (o *Opener) gcsClient(ctx context.Context) (*storage.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gcs != nil {
		return o.gcs, nil
	}

	var opts []option.ClientOption
	if o.cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.cfg.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	o.gcs = client
	return client, nil
}

// Close releases the cached GCS client.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gcs == nil {
		return nil
	}
	err := o.gcs.Close()
	o.gcs = nil
	return err
}

// Decompress wraps r according to the suffix of path: .gz is gzip, .zst is
// zstd, anything else is returned as is. Closing the result closes r.
func Decompress(path string, r io.ReadCloser) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &stacked{ReadCloser: gz, under: r}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &stacked{ReadCloser: zr.IOReadCloser(), under: r}, nil
	default:
		return r, nil
	}
}

type stacked struct {
	io.ReadCloser
	under io.Closer
}

func (s *stacked) Close() error {
	err := s.ReadCloser.Close()
	if cerr := s.under.Close(); err == nil {
		err = cerr
	}
	return err
}
