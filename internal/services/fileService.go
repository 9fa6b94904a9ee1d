package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"time"

	"github.com/Ryuu-x/File-Sharing-App/internal/b2"
	"github.com/Ryuu-x/File-Sharing-App/internal/db"
	"github.com/Ryuu-x/File-Sharing-App/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("file not found")

// downloadAuthValidity bounds the shareable URL's download token.
const downloadAuthValidity = time.Hour

const keyPrefix = "uploads/"

var whitespace = regexp.MustCompile(`\s+`)

// FileStore is the metadata persistence surface the service needs.
type FileStore interface {
	Insert(ctx context.Context, rec *models.FileRecord) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.FileRecord, error)
	SetDownloadCount(ctx context.Context, id primitive.ObjectID, count int64) error
}

// UploadResult is returned to the client after a successful upload.
type UploadResult struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
}

// DownloadResult carries the object stream plus what the handler needs to
// serve it as an attachment. The caller owns Body.
type DownloadResult struct {
	Body        io.ReadCloser
	Name        string
	ContentType string
}

// FileService orchestrates the provider upload protocol and the metadata
// store. The provider client is injected and re-authorized per request.
type FileService struct {
	store    FileStore
	provider *b2.Client
}

func NewFileService(store FileStore, provider *b2.Client) *FileService {
	return &FileService{store: store, provider: provider}
}

// Upload drives the full provider sequence: authorize, obtain an upload
// URL, push the bytes, persist metadata, and issue a scoped download
// authorization for the composed share URL. Any step's failure aborts the
// request; a stored object whose metadata write fails is not cleaned up.
func (s *FileService) Upload(ctx context.Context, name, contentType string, data []byte) (*UploadResult, error) {
	auth, err := s.provider.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	key := storageKey(name, time.Now())

	target, err := s.provider.GetUploadURL(ctx, auth)
	if err != nil {
		return nil, err
	}

	providerFileID, err := s.provider.Upload(ctx, target, key, contentType, data)
	if err != nil {
		return nil, err
	}

	rec := &models.FileRecord{
		Path:          key,
		Name:          name,
		FileID:        providerFileID,
		DownloadCount: 0,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		log.Printf("orphaned object in storage, key=%s: %v", key, err)
		return nil, err
	}

	token, err := s.provider.GetDownloadAuthorization(ctx, auth, key, downloadAuthValidity)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		FileID: rec.ID.Hex(),
		URL:    s.provider.DownloadURL(auth, key, token),
	}, nil
}

// Download looks up a record, bumps its counter and streams the object
// from the provider. The counter update is a best-effort read-modify-write.
func (s *FileService) Download(ctx context.Context, id string) (*DownloadResult, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	rec, err := s.store.FindByID(ctx, objID)
	if errors.Is(err, db.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.SetDownloadCount(ctx, objID, rec.DownloadCount+1); err != nil {
		return nil, err
	}

	// Tokens are short-lived and not cached across requests.
	auth, err := s.provider.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	body, contentType, err := s.provider.DownloadByID(ctx, auth, rec.FileID)
	if err != nil {
		return nil, err
	}

	return &DownloadResult{Body: body, Name: rec.Name, ContentType: contentType}, nil
}

// storageKey derives a practically unique object key from a millisecond
// timestamp and the filename with whitespace collapsed to underscores.
func storageKey(name string, now time.Time) string {
	safe := whitespace.ReplaceAllString(name, "_")
	return fmt.Sprintf("%s%d_%s", keyPrefix, now.UnixMilli(), safe)
}
