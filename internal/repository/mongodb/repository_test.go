package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mamadbah2/barberia/internal/domain/models"
)

func mockRepository(mt *mtest.T) *MongoDBRepository {
	return &MongoDBRepository{client: mt.Client, dbName: mt.DB.Name(), collName: mt.Coll.Name()}
}

func TestJournalRecord(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := mockRepository(mt).Record(context.Background(), models.JournalEntry{
			Action:       models.JournalBooked,
			Success:      true,
			CustomerName: "Juan Perez",
			CreatedAt:    time.Now().UTC(),
		})
		assert.NoError(t, err)
	})

	mt.Run("write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := mockRepository(mt).Record(context.Background(), models.JournalEntry{Action: models.JournalBooked})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert journal entry")
	})
}

func TestJournalEntriesBetween(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes entries", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		created := time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{
					{Key: "action", Value: "booked"},
					{Key: "success", Value: true},
					{Key: "customer_name", Value: "Juan Perez"},
					{Key: "staff_member", Value: "Carlos"},
					{Key: "price", Value: 20000},
					{Key: "created_at", Value: created},
				}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
				bson.D{
					{Key: "action", Value: "cancelled"},
					{Key: "success", Value: false},
					{Key: "error", Value: "not ok"},
					{Key: "created_at", Value: created.Add(time.Hour)},
				}),
		)

		entries, err := mockRepository(mt).EntriesBetween(context.Background(), created.Add(-time.Hour), created.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.JournalBooked, entries[0].Action)
		assert.Equal(t, "Juan Perez", entries[0].CustomerName)
		assert.Equal(t, 20000, entries[0].Price)
		assert.True(t, entries[0].CreatedAt.Equal(created))
		assert.Equal(t, models.JournalCancelled, entries[1].Action)
		assert.Equal(t, "not ok", entries[1].Error)
	})

	mt.Run("query error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		_, err := mockRepository(mt).EntriesBetween(context.Background(), time.Now(), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query journal")
	})
}

func TestNopJournal(t *testing.T) {
	var j Journal = NopJournal{}
	require.NoError(t, j.Record(context.Background(), models.JournalEntry{}))
	entries, err := j.EntriesBetween(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
