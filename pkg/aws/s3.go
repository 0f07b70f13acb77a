package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ImagePresigner issues presigned PUT URLs for product images.
type ImagePresigner struct {
	presigner *s3.PresignClient
	bucket    string
}

func NewImagePresigner(cfg sdkaws.Config, bucket string) *ImagePresigner {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// LocalStack only serves path-style bucket addressing
		o.UsePathStyle = CustomEndpoint() != ""
	})
	return &ImagePresigner{presigner: s3.NewPresignClient(client), bucket: bucket}
}

// PresignPut returns a URL the caller can PUT the object body to, plus the
// headers that were signed into it.
func (p *ImagePresigner) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, map[string]string, error) {
	input := &s3.PutObjectInput{
		Bucket:      sdkaws.String(p.bucket),
		Key:         sdkaws.String(key),
		ContentType: sdkaws.String(contentType),
	}

	presigned, err := p.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return presigned.URL, headers, nil
}
