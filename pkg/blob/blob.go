// Package blob stores profile pictures and message media in an
// S3-compatible bucket. Clients upload and download through presigned
// URLs; this service never proxies the bytes.
package blob

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

var (
	client     *s3.Client
	bucketName string
)

// Init initializes the S3 client with static credentials and an optional
// custom endpoint (for S3-compatible providers).
func Init(accessKey, secretKey, endpoint, bucket, region string) {
	bucketName = bucket
	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		Region:      region,
	}
	client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("blob_store_initialized", "bucket", bucket)
}

// Ready reports whether the blob store has been initialized.
func Ready() bool { return client != nil }

// ProfilePicturePath returns the object key for a user's profile picture.
func ProfilePicturePath(userKey string) string {
	return "images/" + userKey + "_profile_picture.png"
}

// MessageImagePath returns the object key for a photo message attachment.
func MessageImagePath(fileName string) string {
	return "message_images/" + fileName
}

// MessageVideoPath returns the object key for a video message attachment.
func MessageVideoPath(fileName string) string {
	return "message_videos/" + fileName
}

// UploadURL creates a presigned URL for uploading an object.
func UploadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if client == nil {
		return "", models.ErrUploadFailed
	}
	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		logger.Error("presign_put_failed", "key", key, "error", err)
		return "", models.ErrUploadFailed
	}
	return req.URL, nil
}

// DownloadURL creates a presigned URL for downloading an object.
func DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if client == nil {
		return "", models.ErrDownloadURLUnavailable
	}
	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		logger.Error("presign_get_failed", "key", key, "error", err)
		return "", models.ErrDownloadURLUnavailable
	}
	return req.URL, nil
}

// ObjectExists checks whether an object key exists in the bucket.
func ObjectExists(ctx context.Context, key string) (bool, error) {
	if client == nil {
		return false, models.ErrFetchFailed
	}
	_, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
