package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MediaService stores profile photos in an S3 bucket.
type MediaService struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
	Region    string
	Expiry    time.Duration
}

func NewMediaService(client *s3.Client, bucket, region string, expiry time.Duration) *MediaService {
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &MediaService{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Region:    region,
		Expiry:    expiry,
	}
}

func (m *MediaService) baseURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", m.Bucket, m.Region)
}

// ObjectURL is the public URL of key.
func (m *MediaService) ObjectURL(key string) string {
	return m.baseURL() + key
}

// KeyFromURL recovers the object key from a URL produced by ObjectURL.
func (m *MediaService) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, m.baseURL()) {
		return "", false
	}
	key := strings.TrimPrefix(url, m.baseURL())
	return key, key != ""
}

// Upload writes body under key and returns its URL.
func (m *MediaService) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return m.ObjectURL(key), nil
}

func (m *MediaService) Delete(ctx context.Context, key string) error {
	_, err := m.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// PresignUpload generates a presigned URL for uploading a file
func (m *MediaService) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	params := &s3.PutObjectInput{
		Bucket:      aws.String(m.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	presignedURL, err := m.Presigner.PresignPutObject(ctx, params, s3.WithPresignExpires(m.Expiry))
	if err != nil {
		return "", err
	}
	return presignedURL.URL, nil
}
