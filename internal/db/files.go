package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ryuu-x/File-Sharing-App/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrFileNotFound = errors.New("file not found")

// FileStore persists FileRecord documents in the "files" collection.
type FileStore struct {
	col *mongo.Collection
}

func NewFileStore(m *Mongo) *FileStore {
	return &FileStore{col: m.Collection("files")}
}

// Insert saves a new record. The ID and creation time are filled in when
// the caller left them zero.
func (s *FileStore) Insert(ctx context.Context, rec *models.FileRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to save file metadata: %w", err)
	}
	return nil
}

func (s *FileStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.FileRecord, error) {
	var rec models.FileRecord
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve file metadata: %w", err)
	}
	return &rec, nil
}

// SetDownloadCount overwrites the stored counter. The read-modify-write
// around it is not atomic against concurrent downloads.
func (s *FileStore) SetDownloadCount(ctx context.Context, id primitive.ObjectID, count int64) error {
	_, err := s.col.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"download_count": count}},
	)
	if err != nil {
		return fmt.Errorf("failed to update download count: %w", err)
	}
	return nil
}
