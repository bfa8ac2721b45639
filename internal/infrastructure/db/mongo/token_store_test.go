package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/smartretail/storefront/internal/core/domain"
)

func TestTokenStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("load existing token", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "auth_token"},
			{Key: "token", Value: "abc"},
			{Key: "updated_at", Value: int64(1700000000)},
		}))

		store := newTokenStoreForCollection(mt.Coll, "auth_token")
		token, err := store.Load(context.Background())
		if err != nil {
			mt.Fatalf("Load: %v", err)
		}
		if token != "abc" {
			mt.Fatalf("expected abc, got %q", token)
		}
	})

	mt.Run("load missing token", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		store := newTokenStoreForCollection(mt.Coll, "auth_token")
		if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrNoToken) {
			mt.Fatalf("expected ErrNoToken, got %v", err)
		}
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		store := newTokenStoreForCollection(mt.Coll, "auth_token")
		if err := store.Save(context.Background(), "abc"); err != nil {
			mt.Fatalf("Save: %v", err)
		}
	})

	mt.Run("clear missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		store := newTokenStoreForCollection(mt.Coll, "auth_token")
		if err := store.Clear(context.Background()); err != nil {
			mt.Fatalf("Clear: %v", err)
		}
	})

	mt.Run("save surfaces server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))

		store := newTokenStoreForCollection(mt.Coll, "auth_token")
		if err := store.Save(context.Background(), "abc"); err == nil {
			mt.Fatalf("expected error")
		}
	})
}
