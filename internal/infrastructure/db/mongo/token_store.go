package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartretail/storefront/internal/core/domain"
)

const tokenCollection = "client_tokens"

// TokenStore keeps one document per storage key in the client_tokens
// collection.
type TokenStore struct {
	coll *mongo.Collection
	key  string
}

func NewTokenStore(db *mongo.Database, key string) *TokenStore {
	return &TokenStore{coll: db.Collection(tokenCollection), key: key}
}

// newTokenStoreForCollection is used by tests that supply a mock collection.
func newTokenStoreForCollection(coll *mongo.Collection, key string) *TokenStore {
	return &TokenStore{coll: coll, key: key}
}

type tokenDoc struct {
	Key       string `bson:"_id"`
	Token     string `bson:"token"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var doc tokenDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("find token: %w", err)
	}
	if doc.Token == "" {
		return "", domain.ErrNoToken
	}
	return doc.Token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	update := bson.M{"$set": bson.M{"token": token, "updated_at": time.Now().UTC().Unix()}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// Clear removes the document; deleting a missing document is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.key}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
