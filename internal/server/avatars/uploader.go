package avatars

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"contactbook/internal/common"
	"contactbook/internal/server/config"
)

// objectPutter is the slice of the S3 client the uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader normalizes avatar images and stores them in a bucket on an
// S3-compatible endpoint (MinIO in the default setup).
type S3Uploader struct {
	config    *config.Config
	clientFor func(ctx context.Context) (objectPutter, error)
}

func NewS3Uploader(cfg *config.Config) *S3Uploader {
	u := &S3Uploader{config: cfg}
	u.clientFor = u.newClient
	return u
}

func (u *S3Uploader) newClient(ctx context.Context) (objectPutter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(u.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.config.S3RootUser,
			u.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(u.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return client, nil
}

// Upload normalizes data and writes it to the bucket under a key derived
// from ownerKey, so re-uploading replaces the previous avatar. It returns
// the public URL of the stored object. Any failure surfaces as
// common.ErrUploadFailed and leaves nothing half-written that the caller
// needs to clean up.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, ownerKey string) (string, error) {
	normalized, err := normalize(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	client, err := u.clientFor(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	bucket := u.config.S3Bucket
	key := fmt.Sprintf("avatars/%s.jpg", ownerKey)
	contentType := "image/jpeg"

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(normalized),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	return fmt.Sprintf("%s/%s/%s", u.config.S3BaseEndpoint, bucket, key), nil
}
