package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures the s3 backend.
type S3Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the AWS endpoint for MinIO and friends;
	// path-style addressing is enabled when set.
	Endpoint string

	// Static credentials. Empty falls back to the default AWS chain.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps bookmarks and history as JSON objects in a bucket, one
// object per record, for self-hosted sync between machines.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds the bucket-backed store.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg, clientOpts...),
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

func (s *S3Store) key(parts ...string) string {
	if s.prefix == "" {
		return path.Join(parts...)
	}
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *S3Store) SaveBookmark(ctx context.Context, b Bookmark) error {
	return s.putJSON(ctx, s.key("bookmarks", b.ContentKey+".json"), b)
}

func (s *S3Store) Bookmark(ctx context.Context, contentKey string) (Bookmark, bool, error) {
	var b Bookmark
	ok, err := s.getJSON(ctx, s.key("bookmarks", contentKey+".json"), &b)
	return b, ok, err
}

func (s *S3Store) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	keys, err := s.list(ctx, s.key("bookmarks")+"/")
	if err != nil {
		return nil, err
	}
	out := make([]Bookmark, 0, len(keys))
	for _, key := range keys {
		var b Bookmark
		ok, err := s.getJSON(ctx, key, &b)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *S3Store) DeleteBookmark(ctx context.Context, contentKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key("bookmarks", contentKey+".json")),
	})
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	return nil
}

func (s *S3Store) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	return s.putJSON(ctx, s.key("history", rec.ID+".json"), rec)
}

func (s *S3Store) History(ctx context.Context) ([]HistoryRecord, error) {
	keys, err := s.list(ctx, s.key("history")+"/")
	if err != nil {
		return nil, err
	}
	out := make([]HistoryRecord, 0, len(keys))
	for _, key := range keys {
		var rec HistoryRecord
		ok, err := s.getJSON(ctx, key, &rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *S3Store) HistoryRecord(ctx context.Context, id string) (HistoryRecord, bool, error) {
	var rec HistoryRecord
	ok, err := s.getJSON(ctx, s.key("history", id+".json"), &rec)
	return rec, ok, err
}

func (s *S3Store) Close() error { return nil }

func (s *S3Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return false, nil
		}
		return false, fmt.Errorf("getting %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// list returns every object key under prefix. Record counts here stay
// small; one round of listing plus a get per record is fine.
func (s *S3Store) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}
