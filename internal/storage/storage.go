/*
Package storage wraps the object store that holds uploaded label photos.
*/
package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

const uploadTimeout = 30 * time.Second

// Service uploads scan images to a Google Cloud Storage bucket and returns
// their public URLs.
type Service struct {
	client *gcs.Client
	bucket string
}

// NewService reads SCAN_IMAGE_BUCKET and builds the GCS client. Credentials
// come from the ambient service account (GOOGLE_APPLICATION_CREDENTIALS).
func NewService(ctx context.Context) (*Service, error) {
	bucket := os.Getenv("SCAN_IMAGE_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("SCAN_IMAGE_BUCKET environment variable is not set")
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Service{client: client, bucket: bucket}, nil
}

// UploadImage stores the raw image under a per-user prefix and returns the
// public object URL. The object name is randomized; the original filename is
// kept only as metadata.
func (s *Service) UploadImage(ctx context.Context, userID string, data []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	objectName := fmt.Sprintf("scans/%s/%s.jpg", userID, uuid.New().String())

	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "image/jpeg"
	if filename != "" {
		writer.Metadata = map[string]string{"original_filename": filename}
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName)
	log.Info().Str("user_id", userID).Str("object", objectName).Msg("Scan image uploaded")
	return url, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}
