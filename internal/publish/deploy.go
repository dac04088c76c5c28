// Package publish uploads persisted page versions to S3-compatible storage.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"canvas_ai_server/internal/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	PreviewFile  = "preview.html"
	LatestPrefix = "latest"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Publisher writes every file of a version plus its composed preview.
type S3Publisher struct {
	client *minio.Client
	bucket string
	region string

	mu       sync.Mutex
	bucketOK bool
}

func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Publisher{client: client, bucket: bucket, region: region}, nil
}

// ensureBucket creates the bucket on first use. A failed check is retried on
// the next call.
func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bucketOK {
		return nil
	}
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
			return err
		}
	}
	p.bucketOK = true
	return nil
}

// Publish uploads page and returns the key prefix it was written under.
func (p *S3Publisher) Publish(ctx context.Context, page types.PageVersion) (string, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("publisher is nil")
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	objects := SiteObjects(page)
	for _, obj := range objects {
		_, err := p.client.PutObject(ctx, p.bucket, obj.Key, bytes.NewReader(obj.Body), int64(len(obj.Body)), minio.PutObjectOptions{
			ContentType: obj.ContentType,
		})
		if err != nil {
			return "", fmt.Errorf("put %s: %w", obj.Key, err)
		}
	}
	prefix := VersionPrefix(page.Version)
	log.Printf("published version %d to s3://%s/%s (%d objects)", page.Version, p.bucket, prefix, len(objects))
	return prefix, nil
}

// Object is one upload derived from a page version.
type Object struct {
	Key         string
	ContentType string
	Body        []byte
}

func VersionPrefix(version int) string {
	return fmt.Sprintf("v%d", version)
}

// SiteObjects lists the uploads for page: each file and the preview under
// v<version>/, and the preview again under latest/.
func SiteObjects(page types.PageVersion) []Object {
	prefix := VersionPrefix(page.Version)
	out := make([]Object, 0, len(page.Files)+2)
	for _, f := range page.Files {
		name := strings.TrimLeft(path.Clean("/"+f.Name), "/")
		if name == "" {
			continue
		}
		out = append(out, Object{
			Key:         path.Join(prefix, name),
			ContentType: contentType(f.Type),
			Body:        []byte(f.Content),
		})
	}
	preview := []byte(page.Content)
	out = append(out,
		Object{Key: path.Join(prefix, PreviewFile), ContentType: "text/html; charset=utf-8", Body: preview},
		Object{Key: path.Join(LatestPrefix, PreviewFile), ContentType: "text/html; charset=utf-8", Body: preview},
	)
	return out
}

func contentType(kind types.FileKind) string {
	switch kind {
	case types.KindStyle:
		return "text/css; charset=utf-8"
	case types.KindScript:
		return "text/javascript; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}
