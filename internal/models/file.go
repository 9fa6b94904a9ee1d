package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileRecord is the metadata document kept for every stored object.
// Path is the storage object key, FileID the provider's own identifier.
type FileRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Path          string             `bson:"path" json:"path"`
	Name          string             `bson:"name" json:"name"`
	FileID        string             `bson:"file_id" json:"fileId"`
	DownloadCount int64              `bson:"download_count" json:"downloadCount"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
