// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_assets

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/configs"
	"github.com/rapidaai/voicestudio/pkg/connectors"
)

// Store uploads audio blobs to object storage and exchanges storage paths for
// time-limited playable URLs. Rows in the database only ever hold the storage
// path; URLs are resolved on read.
type Store interface {
	// Upload stores the blob under the given folder and returns its storage
	// path.
	Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)

	// SignedURL exchanges a storage path for a presigned GET URL. Results
	// are cached until shortly before the signature expires.
	SignedURL(ctx context.Context, path string) (string, error)
}

type s3Store struct {
	s3     s3iface.S3API
	redis  connectors.RedisConnector
	logger commons.Logger
	bucket string
	expiry time.Duration
}

// NewS3Store creates an asset store over the configured bucket.
func NewS3Store(cfg configs.AssetStoreConfig, redis connectors.RedisConnector, logger commons.Logger) (Store, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset store session: %w", err)
	}

	expiry := time.Duration(cfg.SignedUrlExpiry) * time.Second
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &s3Store{
		s3:     s3.New(sess),
		redis:  redis,
		logger: logger,
		bucket: cfg.Bucket,
		expiry: expiry,
	}, nil
}

func (s *s3Store) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to upload empty asset")
	}
	path := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), extensionFor(contentType))

	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset to %s: %w", path, err)
	}

	s.logger.Infof("uploaded asset: path=%s, bytes=%d", path, len(data))
	return path, nil
}

func (s *s3Store) SignedURL(ctx context.Context, path string) (string, error) {
	cacheKey := "asset:sign:" + path
	if cached, err := s.redis.Client().Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		return cached, nil
	}

	req, _ := s.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	url, err := req.Presign(s.expiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", path, err)
	}

	// Cache for less than the signature lifetime so a cached URL is always
	// still dereferenceable when served.
	ttl := s.expiry - time.Minute
	if ttl <= 0 {
		ttl = s.expiry / 2
	}
	if err := s.redis.Client().Set(ctx, cacheKey, url, ttl).Err(); err != nil {
		s.logger.Warnf("failed to cache signed url for %s: %v", path, err)
	}
	return url, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/webm":
		return ".webm"
	default:
		return ""
	}
}
