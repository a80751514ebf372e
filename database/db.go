package database

import (
	"context"
	"fmt"
	"time"

	"clinicore/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens the MongoDB connection and returns the application database.
// The caller owns the client lifecycle and passes the database into the
// repositories; there is no package-level client.
func Connect(cfg config.Config) (*mongo.Database, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	closeFn := func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = client.Disconnect(shutdownCtx)
	}
	return client.Database(cfg.DatabaseName), closeFn, nil
}
