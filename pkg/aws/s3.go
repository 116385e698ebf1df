package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is a short-lived URL the client PUTs an object to.
type PresignedUpload struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// S3Presigner issues presigned PUT URLs for one bucket.
type S3Presigner struct {
	presigner *s3.PresignClient
	bucket    string
}

func NewS3Presigner(cfg sdkaws.Config, bucket string, usePathStyle bool) *S3Presigner {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})
	return &S3Presigner{presigner: s3.NewPresignClient(client), bucket: bucket}
}

// PresignPut generates a presigned PUT URL for key.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(p.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	presigned, err := p.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &PresignedUpload{
		URL:       presigned.URL,
		Method:    presigned.Method,
		Headers:   headers,
		ExpiresAt: time.Now().Add(expiry).UTC(),
	}, nil
}
