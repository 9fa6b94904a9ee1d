package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo wraps the client and the application database.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect initializes the database connection and verifies it with a ping.
func Connect(uri, dbName string) (*Mongo, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	fmt.Println("✅ Connected to MongoDB")
	return &Mongo{client: client, database: client.Database(dbName)}, nil
}

// Ping verifies the connection is still alive.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Collection returns a collection from the application database.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}
