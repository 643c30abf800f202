// Package data manages the MongoDB connection used by the mongo store.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sharleen10/todolist/internal/config"
)

type Data struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects and pings before returning.
func New(ctx context.Context, cfg config.MongoConfig, logger logrus.FieldLogger) (*Data, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.WithField("database", cfg.Database).Info("connected to mongodb")
	return &Data{client: client, db: client.Database(cfg.Database)}, nil
}

func (d *Data) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func (d *Data) DB() *mongo.Database {
	return d.db
}
