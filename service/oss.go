package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"truecrime-studio/config"
)

// UploadResult describes an offloaded blob: where it can be fetched from and
// where it lives so it can later be deleted.
type UploadResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// BlobGateway externalizes large binary payloads (voiceover audio,
// storyboard preview images) so only a URL reference needs to be persisted
// locally. Offloading is the primary mitigation against store exhaustion;
// inline embedding is the degraded fallback when the gateway is absent or an
// upload fails.
type BlobGateway interface {
	UploadBlob(ctx context.Context, data []byte, mimeType, suggestedName string) (*UploadResult, error)
	DeleteBlob(ctx context.Context, blobPath string) error
}

// MinioGateway is the MinIO-backed BlobGateway.
type MinioGateway struct {
	client *minio.Client
	bucket string
	domain string
	log    *zap.Logger
}

func NewMinioGateway(cfg *config.Config, log *zap.Logger) (*MinioGateway, error) {
	mc := cfg.MinIO
	if mc.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	client, err := minio.New(mc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}
	return &MinioGateway{client: client, bucket: mc.Bucket, domain: mc.Domain, log: log}, nil
}

// UploadBlob stores data under a timestamped object name and returns its
// reference. The bucket is created on first use.
func (g *MinioGateway) UploadBlob(ctx context.Context, data []byte, mimeType, suggestedName string) (*UploadResult, error) {
	if err := g.ensureBucket(ctx); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("assets/%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], sanitizeName(suggestedName))
	if mimeType == "" {
		mimeType = contentTypeFor(suggestedName)
	}

	_, err := g.client.PutObject(ctx, g.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("minio upload: %w", err)
	}

	publicURL, err := g.publicURL(ctx, objectName)
	if err != nil {
		return nil, err
	}
	g.log.Info("blob offloaded",
		zap.String("object", objectName),
		zap.Int("bytes", len(data)))
	return &UploadResult{URL: publicURL, Path: objectName, Size: int64(len(data))}, nil
}

// DeleteBlob removes a previously offloaded object.
func (g *MinioGateway) DeleteBlob(ctx context.Context, blobPath string) error {
	err := g.client.RemoveObject(ctx, g.bucket, blobPath, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("minio delete: %w", err)
	}
	return nil
}

func (g *MinioGateway) ensureBucket(ctx context.Context) error {
	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := g.client.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("minio bucket create: %w", err)
		}
		g.log.Info("bucket created", zap.String("bucket", g.bucket))
	}
	return nil
}

func (g *MinioGateway) publicURL(ctx context.Context, objectName string) (string, error) {
	if g.domain != "" {
		return g.domain + "/" + g.bucket + "/" + objectName, nil
	}
	presigned, err := g.client.PresignedGetObject(ctx, g.bucket, objectName, 72*time.Hour, url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign: %w", err)
	}
	return presigned.String(), nil
}

func contentTypeFor(name string) string {
	switch path.Ext(name) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}

func sanitizeName(name string) string {
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" || name == "." {
		name = "blob"
	}
	return name
}

// DecodeBase64Payload strips an optional data-URI prefix and decodes the
// payload, returning the bytes and the mime type carried by the prefix (may
// be empty).
func DecodeBase64Payload(data string) ([]byte, string, error) {
	mimeType := ""
	if strings.HasPrefix(data, "data:") {
		comma := strings.Index(data, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data uri")
		}
		header := data[len("data:"):comma]
		mimeType = strings.TrimSuffix(header, ";base64")
		data = data[comma+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 payload: %w", err)
	}
	return raw, mimeType, nil
}

// OffloadBase64 uploads a base64 (optionally data-URI) payload through the
// gateway. On any failure it returns nil and the caller keeps the payload
// inline: a failed offload must never lose data, only forgo the space win.
func OffloadBase64(ctx context.Context, gw BlobGateway, data, mimeType, name string, log *zap.Logger) *UploadResult {
	if gw == nil || data == "" {
		return nil
	}
	raw, embeddedMime, err := DecodeBase64Payload(data)
	if err != nil {
		log.Warn("blob payload not decodable, keeping inline", zap.Error(err), zap.String("name", name))
		return nil
	}
	if mimeType == "" {
		mimeType = embeddedMime
	}
	res, err := gw.UploadBlob(ctx, raw, mimeType, name)
	if err != nil {
		log.Warn("blob offload failed, keeping payload inline", zap.Error(err), zap.String("name", name))
		return nil
	}
	return res
}
