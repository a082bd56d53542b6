// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/agentmart/agentmart-backend/internal/config"
	"github.com/agentmart/agentmart-backend/internal/models"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

// StorageService stores agent artifacts (model bundles, docs, usage terms)
// in S3 and mints the content identifiers the ledger records. The CID is
// the hex digest of the artifact bytes, so the chain-side reference is
// verifiable against the stored object.
type StorageService struct {
	s3Client *s3.S3
	db       *gorm.DB
	cfg      *config.Config
}

type UploadResult struct {
	CID      string `json:"cid"`
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(db *gorm.DB, cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{db: db, cfg: cfg}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		db:       db,
		cfg:      cfg,
	}, nil
}

func (s *StorageService) UploadArtifact(ownerID uuid.UUID, file multipart.File, header *multipart.FileHeader, tags []string, options UploadOptions) (*UploadResult, error) {
	// Validate file size
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", header.Size, options.MaxSize)
	}

	// Validate file type
	if len(options.AllowedTypes) > 0 {
		fileExt := strings.ToLower(filepath.Ext(header.Filename))
		allowed := false
		for _, allowedType := range options.AllowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("file type %s is not allowed", fileExt)
		}
	}

	// Read file content
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Content-addressed key: same bytes, same CID
	cid := utils.HashString(string(fileBytes))
	key := cid + filepath.Ext(header.Filename)
	if options.Folder != "" {
		key = options.Folder + "/" + key
	}

	contentType := header.Header.Get("Content-Type")

	result := &UploadResult{
		CID:      cid,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}

	if s.s3Client == nil {
		// Local development - no object store behind the CID
		result.URL = fmt.Sprintf("http://localhost:8080/artifacts/%s", key)
	} else {
		params := &s3.PutObjectInput{
			Bucket:        aws.String(s.cfg.AWS.S3Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(fileBytes),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(fileBytes))),
		}

		if _, err := s.s3Client.PutObject(params); err != nil {
			return nil, fmt.Errorf("failed to upload to S3: %w", err)
		}

		result.URL = s.getS3URL(key)
	}

	s.recordArtifact(ownerID, result, tags, options.Folder)
	return result, nil
}

// recordArtifact ties the minted CID back to its uploader. Re-uploading
// the same bytes hits the CID unique index; that is not an error, the
// existing row already describes the content.
func (s *StorageService) recordArtifact(ownerID uuid.UUID, result *UploadResult, tags []string, category string) {
	if s.db == nil {
		return
	}

	artifact := &models.Artifact{
		OwnerID:  ownerID,
		CID:      result.CID,
		Key:      result.Key,
		Category: category,
		Size:     result.Size,
		MimeType: result.MimeType,
		Tags:     tags,
	}
	if err := s.db.Create(artifact).Error; err != nil {
		logrus.WithError(err).WithField("cid", result.CID).Warn("Failed to record artifact")
	}
}

// ArtifactsOf lists the caller's uploaded artifacts, newest first.
func (s *StorageService) ArtifactsOf(ownerID uuid.UUID) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	if err := s.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").Find(&artifacts).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return artifacts, nil
}

func (s *StorageService) DeleteArtifact(key string) error {
	if s.s3Client == nil {
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete artifact from S3: %w", err)
	}

	return nil
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) GetDefaultUploadOptions(category string) UploadOptions {
	switch category {
	case "models":
		return UploadOptions{
			Folder:       "models",
			MaxSize:      500 * 1024 * 1024, // 500MB
			AllowedTypes: []string{".gguf", ".safetensors", ".onnx", ".pt", ".bin", ".zip", ".tar", ".gz"},
		}
	case "docs":
		return UploadOptions{
			Folder:       "docs",
			MaxSize:      10 * 1024 * 1024, // 10MB
			AllowedTypes: []string{".md", ".pdf", ".txt", ".html"},
		}
	case "terms":
		return UploadOptions{
			Folder:       "terms",
			MaxSize:      1 * 1024 * 1024, // 1MB
			AllowedTypes: []string{".md", ".pdf", ".txt"},
		}
	default:
		return UploadOptions{
			Folder:       "general",
			MaxSize:      5 * 1024 * 1024, // 5MB
			AllowedTypes: nil,
		}
	}
}

func (s *StorageService) getS3URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.cfg.AWS.S3Bucket, s.cfg.AWS.Region, key)
}
