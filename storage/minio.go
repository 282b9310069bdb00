package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// folderMarker is the zero-byte object that materialises a folder inside the
// flat bucket namespace. A folder id is the marker's key prefix, including
// the trailing slash.
const folderMarker = ".folder"

// MinioBlob implements BlobClient on top of a MinIO/S3 bucket.
type MinioBlob struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewBlobClientFromEnv initialises the remote blob store using MINIO_*
// environment variables. It returns (nil, nil) when the store is not
// configured; callers treat a nil client as "remote storage absent" and run
// in local-fallback mode.
func NewBlobClientFromEnv() (*MinioBlob, error) {
	endpoint := strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	accessKey := strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	secretKey := strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY"))
	bucket := strings.TrimSpace(os.Getenv("MINIO_BUCKET"))
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}

	useSSL := strings.EqualFold(strings.TrimSpace(os.Getenv("MINIO_USE_SSL")), "true")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket: %w", err)
		}
	}

	publicURL := strings.TrimSpace(os.Getenv("MINIO_PUBLIC_URL"))
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &MinioBlob{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// RootFolderID returns the bucket root (the empty prefix).
func (s *MinioBlob) RootFolderID() string {
	return ""
}

func (s *MinioBlob) FindChildFolder(ctx context.Context, parentID, name string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("storage: blob store not configured")
	}

	prefix := childPrefix(parentID, name)

	statCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.StatObject(statCtx, s.bucket, prefix+folderMarker, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return "", nil
		}
		return "", err
	}
	return prefix, nil
}

func (s *MinioBlob) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("storage: blob store not configured")
	}

	prefix := childPrefix(parentID, name)

	putCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.PutObject(putCtx, s.bucket, prefix+folderMarker, bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/x-directory",
	})
	if err != nil {
		return "", err
	}
	return prefix, nil
}

func (s *MinioBlob) UploadFile(ctx context.Context, folderID, name, mimeType string, body io.Reader, size int64) (string, string, error) {
	if s == nil || s.client == nil {
		return "", "", errors.New("storage: blob store not configured")
	}

	objectName := folderID + strings.TrimPrefix(name, "/")

	uploadCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := s.client.PutObject(uploadCtx, s.bucket, objectName, body, size, minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", "", err
	}
	return objectName, s.buildPublicURL(objectName), nil
}

func (s *MinioBlob) DeleteFile(ctx context.Context, fileID string) error {
	if s == nil || s.client == nil {
		return errors.New("storage: blob store not configured")
	}

	removeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.client.RemoveObject(removeCtx, s.bucket, fileID, minio.RemoveObjectOptions{})
}

func (s *MinioBlob) buildPublicURL(objectName string) string {
	base := strings.TrimSuffix(s.publicURL, "/")
	object := strings.TrimPrefix(objectName, "/")
	return fmt.Sprintf("%s/%s/%s", base, s.bucket, object)
}

func childPrefix(parentID, name string) string {
	parent := strings.TrimPrefix(parentID, "/")
	if parent != "" && !strings.HasSuffix(parent, "/") {
		parent += "/"
	}
	return parent + strings.Trim(name, "/") + "/"
}
