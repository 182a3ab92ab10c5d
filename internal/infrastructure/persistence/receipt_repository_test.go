package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func newMockReceiptRepository(t *testing.T) (*GormReceiptRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormReceiptRepository(gormDB), mock, mockDB
}

func TestNewGormReceiptRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormReceiptRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds existing receipt with lines", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()
		tenantID := uuid.New()
		storeID := uuid.New()
		cashierID := uuid.New()

		receiptRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "store_id", "cashier_id",
			"receipt_number", "type", "status", "total",
		}).AddRow(
			receiptID, tenantID, storeID, cashierID,
			"RCP-20260828-000001", "SALE", "COMPLETED", decimal.NewFromFloat(21.80),
		)
		lineRows := sqlmock.NewRows([]string{
			"id", "receipt_id", "line_number", "product_id",
			"quantity", "unit_price", "line_total",
		}).AddRow(
			uuid.New(), receiptID, 1, uuid.New(),
			decimal.NewFromInt(2), decimal.NewFromFloat(10), decimal.NewFromFloat(21.80),
		)

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, receiptID, 1).
			WillReturnRows(receiptRows)
		mock.ExpectQuery(`SELECT \* FROM "receipt_lines" WHERE "receipt_lines"\."receipt_id" = \$1`).
			WithArgs(receiptID).
			WillReturnRows(lineRows)

		receipt, err := repo.FindByIDForTenant(context.Background(), tenantID, receiptID)

		assert.NoError(t, err)
		assert.NotNil(t, receipt)
		assert.Equal(t, receiptID, receipt.ID)
		assert.Equal(t, "RCP-20260828-000001", receipt.ReceiptNumber)
		assert.Len(t, receipt.Lines, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing receipt", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, receiptID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		receipt, err := repo.FindByIDForTenant(context.Background(), tenantID, receiptID)

		assert.Error(t, err)
		assert.Nil(t, receipt)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_FindByIdempotencyKey(t *testing.T) {
	t.Run("returns not found when no receipt carries the key", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE tenant_id = \$1 AND idempotency_key = \$2`).
			WithArgs(tenantID, "client-key-1", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		receipt, err := repo.FindByIdempotencyKey(context.Background(), tenantID, "client-key-1")

		assert.Error(t, err)
		assert.Nil(t, receipt)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_UpdateStatus(t *testing.T) {
	t.Run("updates status of existing receipt", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "receipts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(context.Background(), uuid.New(), uuid.New(), checkout.ReceiptStatusCompleted)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "receipts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), uuid.New(), uuid.New(), checkout.ReceiptStatusCompleted)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_FindByIDForTenantForUpdate(t *testing.T) {
	t.Run("locks the receipt header row", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()
		tenantID := uuid.New()

		receiptRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "receipt_number", "type", "status",
		}).AddRow(receiptID, tenantID, "RCP-20260828-000002", "SALE", "COMPLETED")

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE tenant_id = \$1 AND id = \$2 .+ FOR UPDATE`).
			WithArgs(tenantID, receiptID, 1).
			WillReturnRows(receiptRows)
		mock.ExpectQuery(`SELECT \* FROM "receipt_lines" WHERE "receipt_lines"\."receipt_id" = \$1`).
			WithArgs(receiptID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "receipt_id"}))

		receipt, err := repo.FindByIDForTenantForUpdate(context.Background(), tenantID, receiptID)

		assert.NoError(t, err)
		assert.NotNil(t, receipt)
		assert.Equal(t, receiptID, receipt.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing receipt", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		receiptID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE tenant_id = \$1 AND id = \$2 .+ FOR UPDATE`).
			WithArgs(tenantID, receiptID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		receipt, err := repo.FindByIDForTenantForUpdate(context.Background(), tenantID, receiptID)

		assert.Error(t, err)
		assert.Nil(t, receipt)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_AddLineRefundedQuantity(t *testing.T) {
	t.Run("increments under guard with tenant-scoped subquery", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		receiptID := uuid.New()
		lineID := uuid.New()
		qty := decimal.NewFromInt(2)

		mock.ExpectExec(`UPDATE "receipt_lines" SET "refunded_quantity"=refunded_quantity \+ \$1,.+WHERE .*id = \$3 AND receipt_id IN \(SELECT id FROM receipts WHERE id = \$4 AND tenant_id = \$5\).* AND .*refunded_quantity \+ \$6 <= quantity`).
			WithArgs(qty, sqlmock.AnyArg(), lineID, receiptID, tenantID, qty).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.AddLineRefundedQuantity(context.Background(), tenantID, receiptID, lineID, qty)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a rejected increment to over-refund", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "receipt_lines" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.AddLineRefundedQuantity(context.Background(), uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(1))

		assert.Equal(t, shared.ErrOverRefund, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_CountForTenant(t *testing.T) {
	t.Run("counts receipts filtered by status", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "receipts" WHERE tenant_id = \$1 AND status = \$2`).
			WithArgs(tenantID, "COMPLETED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountForTenant(context.Background(), tenantID, shared.Filter{
			Filters: map[string]interface{}{"status": "COMPLETED"},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_InterfaceCompliance(t *testing.T) {
	repo, _, mockDB := newMockReceiptRepository(t)
	defer mockDB.Close()

	var _ checkout.ReceiptRepository = repo
}
