// Package uploads validates editor image uploads and stores them in an
// S3-compatible bucket.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sc "github.com/0xkotaromiyabi/decentranews-v2/internal/server/config"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxFileSize is the upload size cap.
const MaxFileSize = 10 << 20 // 10MB

// extensions maps the allowed sniffed content types to stored extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

type Service struct {
	config *sc.Config
}

func NewService(config *sc.Config) *Service {
	return &Service{config: config}
}

func storageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *Service) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Store validates the image bytes and writes them to the bucket, returning
// the public URL. Size is checked before content so a 15MB text file is
// reported as too large, not as a bad type.
func (s *Service) Store(ctx context.Context, data []byte) (string, error) {

	if len(data) == 0 {
		return "", shared.ErrorMissingFile
	}
	if len(data) > MaxFileSize {
		return "", shared.ErrorFileTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", shared.ErrorNotAnImage
	}

	client, err := s.getClient()
	if err != nil {
		return "", fmt.Errorf("error building storage client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := storageKey(ext)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("error storing object: %w", err)
	}

	base := strings.TrimSuffix(s.config.PublicBaseURL, "/")
	return base + "/" + key, nil
}
