package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/server/access"
	sc "github.com/dmitrijs2005/parley/internal/server/config"
	"github.com/dmitrijs2005/parley/internal/server/repositories/repomanager"
)

// Function seams so tests can fail or observe the AWS calls without a
// network.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// allowedImageTypes are the only MIME types accepted for uploads, checked
// before any storage round trip.
var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// StorageService brokers uploads and downloads against the S3-compatible
// backend. Two buckets: public avatars and access-controlled chat images.
// The service never proxies bytes; clients follow presigned URLs.
type StorageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewStorageService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *StorageService {
	return &StorageService{db: db, repomanager: m, config: config}
}

func makeStorageKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

// ValidateUpload rejects an upload before any presigning happens: wrong
// MIME type or a size above the configured ceiling never reaches storage.
func (s *StorageService) ValidateUpload(contentType string, size int64) error {
	if _, ok := allowedImageTypes[contentType]; !ok {
		return common.ErrorValidation
	}
	if size <= 0 || size > s.config.MaxUploadBytes {
		return common.ErrorValidation
	}
	return nil
}

func (s *StorageService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *StorageService) presignedPut(ctx context.Context, bucket, key, contentType string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *StorageService) presignedGet(ctx context.Context, bucket, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// PresignAvatarPut validates the upload and returns a storage key plus a
// presigned PUT URL into the public avatar bucket.
func (s *StorageService) PresignAvatarPut(ctx context.Context, contentType string, size int64) (string, string, error) {
	if err := s.ValidateUpload(contentType, size); err != nil {
		return "", "", err
	}
	key := makeStorageKey("avatars")
	url, err := s.presignedPut(ctx, s.config.AvatarBucket, key, contentType)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// PresignChatImagePut validates the upload and returns a storage key plus a
// presigned PUT URL into the chat-image bucket. The caller must be a
// participant of the conversation the image is destined for.
func (s *StorageService) PresignChatImagePut(ctx context.Context, callerID, conversationID, contentType string, size int64) (string, string, error) {
	if err := s.ValidateUpload(contentType, size); err != nil {
		return "", "", err
	}

	checker := access.NewChecker(s.repomanager.Participants(s.db))
	if err := checker.RequireParticipant(ctx, conversationID, callerID); err != nil {
		return "", "", err
	}

	key := makeStorageKey("conversations/" + conversationID)
	url, err := s.presignedPut(ctx, s.config.ChatImageBucket, key, contentType)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// ResolveChatImage returns a presigned GET URL for the image attached to the
// given message, gated on the caller's membership in the message's
// conversation.
func (s *StorageService) ResolveChatImage(ctx context.Context, callerID, messageID string) (string, error) {
	msg, err := s.repomanager.Messages(s.db).GetByID(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg.ImageKey == nil {
		return "", common.ErrorNotFound
	}

	checker := access.NewChecker(s.repomanager.Participants(s.db))
	if err := checker.RequireParticipant(ctx, msg.ConversationID, callerID); err != nil {
		return "", err
	}

	return s.presignedGet(ctx, s.config.ChatImageBucket, *msg.ImageKey)
}

// ResolveAvatar returns a presigned GET URL for an avatar key. Avatars are
// public; no membership check applies.
func (s *StorageService) ResolveAvatar(ctx context.Context, key string) (string, error) {
	return s.presignedGet(ctx, s.config.AvatarBucket, key)
}
