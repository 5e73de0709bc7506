package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	domparcel "github.com/zapshift/zapshift-backend/internal/domain/parcel"
	dompayment "github.com/zapshift/zapshift-backend/internal/domain/payment"
)

func setupTestDB(t *testing.T) *mongo.Database {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := Connect(ctx, uri, "testdb")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Disconnect(context.Background(), db)
	})

	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func newPayment(t *testing.T, transactionID, payerEmail string) *dompayment.Payment {
	t.Helper()
	p, err := dompayment.New(transactionID, "p-1", "Documents", "usd", payerEmail, "PKG-20260829-ABCDEF", 25)
	require.NoError(t, err)
	return p
}

func TestPaymentRepository_InsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newPayment(t, "pi_1", "alice@example.com")))

	got, err := repo.FindByTransactionID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", got.TransactionID)
	assert.Equal(t, "alice@example.com", got.PayerEmail)
	assert.Equal(t, 25.0, got.Amount)
}

func TestPaymentRepository_FindMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)

	_, err := repo.FindByTransactionID(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, dompayment.ErrNotFound)
}

func TestPaymentRepository_UniqueTransactionIndex(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newPayment(t, "pi_1", "alice@example.com")))

	err := repo.Insert(ctx, newPayment(t, "pi_1", "alice@example.com"))
	assert.ErrorIs(t, err, dompayment.ErrDuplicateTransaction)

	all, err := repo.ListByPayer(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPaymentRepository_ListByPayer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	older := newPayment(t, "pi_1", "alice@example.com")
	older.PaidAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newPayment(t, "pi_2", "alice@example.com")))
	require.NoError(t, repo.Insert(ctx, newPayment(t, "pi_3", "bob@example.com")))

	alice, err := repo.ListByPayer(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "pi_2", alice[0].TransactionID)
	assert.Equal(t, "pi_1", alice[1].TransactionID)

	all, err := repo.ListByPayer(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestParcelRepository_MarkPaid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParcelRepository(db)
	ctx := context.Background()

	entity, err := domparcel.New(domparcel.Parcel{
		Name:            "Documents",
		SenderEmail:     "alice@example.com",
		ReceiverAddress: "2 Side St",
	})
	require.NoError(t, err)

	id, err := repo.Insert(ctx, entity)
	require.NoError(t, err)

	modified, err := repo.MarkPaid(ctx, id, "PKG-20260829-ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domparcel.StatusPaid, got.DeliveryStatus)
	assert.Equal(t, "PKG-20260829-ABCDEF", got.TrackingID)

	// Marking an already-paid parcel with the same tracking id modifies nothing.
	modified, err = repo.MarkPaid(ctx, id, "PKG-20260829-ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, int64(0), modified)
}

func TestParcelRepository_MarkPaidMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewParcelRepository(db)
	ctx := context.Background()

	_, err := repo.MarkPaid(ctx, "64f000000000000000000000", "PKG-20260829-ABCDEF")
	assert.ErrorIs(t, err, domparcel.ErrNotFound)

	_, err = repo.MarkPaid(ctx, "not-an-object-id", "PKG-20260829-ABCDEF")
	assert.ErrorIs(t, err, domparcel.ErrInvalidID)
}
