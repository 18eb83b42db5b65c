// Package s3source fetches alias documents stored in S3 (or an S3-compatible
// endpoint configured through the standard AWS environment variables).
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxObjectBytes caps how much of an object is read; alias tables are small.
const maxObjectBytes = 4 << 20

var ErrInvalidURI = errors.New("invalid s3 uri")

// ObjectGetter is the subset of the S3 client used here.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Fetcher struct {
	client ObjectGetter
}

// New builds a Fetcher from the default AWS credential chain.
func New(ctx context.Context) (*Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Path-style keeps MinIO and localstack endpoints working.
		o.UsePathStyle = true
	})
	return &Fetcher{client: client}, nil
}

func NewWithClient(client ObjectGetter) *Fetcher {
	return &Fetcher{client: client}
}

// ParseURI splits s3://bucket/key into its parts.
func ParseURI(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("%w: missing key in %s", ErrInvalidURI, raw)
	}
	return u.Host, key, nil
}

// Fetch downloads the object named by an s3:// URI and returns its key and body.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (string, []byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return "", nil, err
	}
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	if len(body) > maxObjectBytes {
		return "", nil, fmt.Errorf("s3://%s/%s exceeds %d bytes", bucket, key, maxObjectBytes)
	}
	return key, body, nil
}
