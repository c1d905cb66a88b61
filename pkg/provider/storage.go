package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrStorageFailed wraps blob storage backend failures.
	ErrStorageFailed = errors.New("provider.errors.storage_failed")
	// ErrStorageAccessDenied marks misconfigured bucket credentials.
	ErrStorageAccessDenied = errors.New("provider.errors.storage_access_denied")
)

// S3Storage stores tenant blobs in an S3 or S3-compatible bucket.
// Keys are prefixed with the configured prefix, typically the tenant
// slug, so one bucket can serve many tenants without key collisions.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Storage builds an S3 backend from its settings. Required
// settings: "bucket" and "region". Optional: "access_key_id",
// "secret_key", "endpoint" (for S3-compatible services), "prefix",
// "base_url", "force_path_style".
func NewS3Storage(ctx context.Context, s Settings) (*S3Storage, error) {
	bucket := s.String("bucket", "")
	region := s.String("region", "")
	if bucket == "" || region == "" {
		return nil, fmt.Errorf("%w: s3 bucket and region are required", ErrInvalidConfig)
	}

	awsOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if keyID, secret := s.String("access_key_id", ""), s.String("secret_key", ""); keyID != "" && secret != "" {
		awsOptions = append(awsOptions,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(keyID, secret, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	endpoint := s.String("endpoint", "")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = s.Bool("force_path_style", false)
	})

	baseURL := s.String("base_url", "")
	if baseURL == "" {
		if endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(endpoint, "/"), bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
	}

	return &S3Storage{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(s.String("prefix", ""), "/"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (st *S3Storage) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if st.prefix == "" {
		return key
	}
	return st.prefix + "/" + key
}

func (st *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objKey := st.objectKey(key)
	_, err := st.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", classifyS3Error(err)
	}
	return st.baseURL + "/" + objKey, nil
}

func (st *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := st.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(st.objectKey(key)),
	})
	if err != nil {
		// S3 delete is idempotent; a missing key is not a failure.
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil
		}
		return classifyS3Error(err)
	}
	return nil
}

func classifyS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.Join(ErrStorageAccessDenied, err)
		}
	}
	return errors.Join(ErrStorageFailed, err)
}

// RegisterStorageBackends installs the built-in storage factories.
func RegisterStorageBackends(ctx context.Context, r *Registry) {
	r.Register(CapabilityStorage, "s3", func(s Settings) (any, error) {
		return NewS3Storage(ctx, s)
	})
}
