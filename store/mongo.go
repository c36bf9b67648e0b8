package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raushankrgupta/fitting-room/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	galleryCollection = "gallery"
	usersCollection   = "users"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and ensures the indexes used by gallery queries.
func NewMongoStore(ctx context.Context, uri, databaseName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(databaseName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	slog.Info("connected to MongoDB", "database", databaseName)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(galleryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "deleted", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create gallery index: %w", err)
	}

	_, err = s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) InsertTryOn(ctx context.Context, tryOn *models.TryOn) error {
	if _, err := s.db.Collection(galleryCollection).InsertOne(ctx, tryOn); err != nil {
		return fmt.Errorf("failed to insert try-on: %w", err)
	}
	return nil
}

func (s *MongoStore) ListTryOns(ctx context.Context, userID string) ([]models.TryOn, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}) // latest first

	cursor, err := s.db.Collection(galleryCollection).Find(ctx, bson.M{"user_id": userID, "deleted": false}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery: %w", err)
	}
	defer cursor.Close(ctx)

	var tryOns []models.TryOn
	if err := cursor.All(ctx, &tryOns); err != nil {
		return nil, fmt.Errorf("failed to decode gallery: %w", err)
	}
	return tryOns, nil
}

func (s *MongoStore) SoftDeleteTryOn(ctx context.Context, userID, id string) error {
	res, err := s.db.Collection(galleryCollection).UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete try-on %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetTryOn(ctx context.Context, id string) (*models.TryOn, error) {
	var tryOn models.TryOn
	err := s.db.Collection(galleryCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&tryOn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get try-on %s: %w", id, err)
	}
	return &tryOn, nil
}

func (s *MongoStore) SetGeneratedPhoto(ctx context.Context, id, name string) error {
	res, err := s.db.Collection(galleryCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"generated_photo": name}},
	)
	if err != nil {
		return fmt.Errorf("failed to update try-on %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Collection(usersCollection).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.Collection(usersCollection).ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
