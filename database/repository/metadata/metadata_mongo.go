package metadataRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petrel/models"
	"petrel/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const collectionName = "metadata"

// metadataRecord is the stored shape: the user id plus the sealed value.
// Nothing else about the document is visible to the database.
type metadataRecord struct {
	UserID string `bson:"userId"`
	Value  string `bson:"value"`
}

// MongoMetadataRepo implements MetadataRepository on MongoDB.
type MongoMetadataRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	cipher *DocumentCipher
}

// NewMongoMetadataRepo wires the repository to a connected client and ensures
// the unique index that backs create-conflict detection.
func NewMongoMetadataRepo(client *mongo.Client, dbName string, cipher *DocumentCipher) (*MongoMetadataRepo, error) {
	repo := &MongoMetadataRepo{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
		cipher: cipher,
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoMetadataRepo) CreateDoc(ctx context.Context, pair models.KeyPair, value models.Document) (models.Document, error) {
	if value == nil {
		value = models.Document{}
	}
	crypted, err := r.cipher.Encrypt(pair, value)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt document for user %s: %w", pair.UserID, err)
	}

	_, err = r.coll.InsertOne(ctx, metadataRecord{UserID: pair.UserID, Value: crypted})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create document for user %s: %w", pair.UserID, err)
	}
	return sanitizeStoredValue(value), nil
}

func (r *MongoMetadataRepo) GetDoc(ctx context.Context, pair models.KeyPair) (models.Document, error) {
	var record metadataRecord
	err := r.coll.FindOne(ctx, bson.M{"userId": pair.UserID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch document for user %s: %w", pair.UserID, err)
	}

	value, err := r.cipher.Decrypt(pair, record.Value)
	if err != nil {
		// A failed decrypt is indistinguishable from "you may not see this".
		utils.GetLogger().Warn("document failed to decrypt",
			zap.String("userId", pair.UserID))
		return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrUnauthorized)
	}
	return value, nil
}

func (r *MongoMetadataRepo) PartialUpdate(ctx context.Context, pair models.KeyPair, updates []Update) (models.Document, error) {
	current, err := r.GetDoc(ctx, pair)
	if err != nil {
		return nil, err
	}

	// Read-modify-write with no document lock: a concurrent update to the
	// same user races and the later write wins at the document level.
	clone := current.Clone()
	ApplyUpdates(clone, updates)

	crypted, err := r.cipher.Encrypt(pair, clone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt document for user %s: %w", pair.UserID, err)
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"userId": pair.UserID}, bson.M{"$set": bson.M{"value": crypted}})
	if err != nil {
		return nil, fmt.Errorf("failed to update document for user %s: %w", pair.UserID, err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrNotFound)
	}
	return clone, nil
}

func (r *MongoMetadataRepo) Status(ctx context.Context) Status {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx, nil); err != nil {
		return Status{Running: false, Up: []string{}, Down: []string{"mongo"}}
	}
	return Status{Running: true, Up: []string{"mongo"}, Down: []string{}}
}
