package s3

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/phenrril/catalogsync/internal/domain"
)

type Storage struct {
	Client        *s3.Client
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

type Config struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return &Storage{
		Client:        s3.NewFromConfig(awsCfg),
		Bucket:        cfg.Bucket,
		Prefix:        cfg.Prefix,
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *Storage) Put(ctx context.Context, r io.Reader, in domain.PutInput) (domain.PutResult, error) {
	key := objectKey(s.Prefix, in.Filename)
	input := &s3.PutObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
		Body:   r,
	}
	if in.ContentType != "" {
		input.ContentType = &in.ContentType
	}
	if in.Size > 0 {
		input.ContentLength = &in.Size
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return domain.PutResult{}, err
	}
	return domain.PutResult{Key: key, URL: s.PublicBaseURL + "/" + key}, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
	})
	return err
}

func (s *Storage) String() string { return fmt.Sprintf("s3(%s/%s)", s.Bucket, s.Prefix) }

func objectKey(prefix, filename string) string {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if p := strings.Trim(prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}
