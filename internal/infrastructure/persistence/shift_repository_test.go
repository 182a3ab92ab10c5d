package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shift"
)

func newMockShiftRepository(t *testing.T) (*GormShiftRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormShiftRepository(gormDB), mock, mockDB
}

func TestGormShiftRepository_FindOpenByCashier(t *testing.T) {
	t.Run("finds the open shift with movements", func(t *testing.T) {
		repo, mock, mockDB := newMockShiftRepository(t)
		defer mockDB.Close()

		shiftID := uuid.New()
		tenantID := uuid.New()
		storeID := uuid.New()
		cashierID := uuid.New()

		shiftRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "store_id", "cashier_id",
			"shift_number", "status", "opening_cash",
		}).AddRow(
			shiftID, tenantID, storeID, cashierID,
			"SHF-20260828-000001", "OPEN", decimal.NewFromInt(200),
		)
		movementRows := sqlmock.NewRows([]string{
			"id", "shift_id", "type", "amount", "reason",
		}).AddRow(
			uuid.New(), shiftID, "PAY_IN", decimal.NewFromInt(50), "float top-up",
		)

		mock.ExpectQuery(`SELECT \* FROM "shifts" WHERE tenant_id = \$1 AND cashier_id = \$2 AND store_id = \$3 AND status = \$4`).
			WithArgs(tenantID, cashierID, storeID, "OPEN", 1).
			WillReturnRows(shiftRows)
		mock.ExpectQuery(`SELECT \* FROM "shift_cash_movements" WHERE "shift_cash_movements"\."shift_id" = \$1`).
			WithArgs(shiftID).
			WillReturnRows(movementRows)

		found, err := repo.FindOpenByCashier(context.Background(), tenantID, cashierID, storeID)

		assert.NoError(t, err)
		assert.NotNil(t, found)
		assert.Equal(t, shiftID, found.ID)
		assert.Equal(t, shift.StatusOpen, found.Status)
		assert.Len(t, found.Movements, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no shift is open", func(t *testing.T) {
		repo, mock, mockDB := newMockShiftRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		storeID := uuid.New()
		cashierID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "shifts" WHERE tenant_id = \$1 AND cashier_id = \$2 AND store_id = \$3 AND status = \$4`).
			WithArgs(tenantID, cashierID, storeID, "OPEN", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		found, err := repo.FindOpenByCashier(context.Background(), tenantID, cashierID, storeID)

		assert.Error(t, err)
		assert.Nil(t, found)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormShiftRepository_FindForUpdate(t *testing.T) {
	t.Run("locks the shift row with FOR UPDATE", func(t *testing.T) {
		repo, mock, mockDB := newMockShiftRepository(t)
		defer mockDB.Close()

		shiftID := uuid.New()
		tenantID := uuid.New()

		shiftRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "shift_number", "status", "opening_cash",
		}).AddRow(
			shiftID, tenantID, "SHF-20260828-000002", "OPEN", decimal.NewFromInt(100),
		)

		mock.ExpectQuery(`SELECT \* FROM "shifts" WHERE tenant_id = \$1 AND id = \$2 .+ FOR UPDATE`).
			WithArgs(tenantID, shiftID, 1).
			WillReturnRows(shiftRows)
		mock.ExpectQuery(`SELECT \* FROM "shift_cash_movements" WHERE "shift_cash_movements"\."shift_id" = \$1`).
			WithArgs(shiftID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "shift_id", "type", "amount"}))

		found, err := repo.FindForUpdate(context.Background(), tenantID, shiftID)

		assert.NoError(t, err)
		assert.NotNil(t, found)
		assert.Equal(t, shiftID, found.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormShiftRepository_InterfaceCompliance(t *testing.T) {
	repo, _, mockDB := newMockShiftRepository(t)
	defer mockDB.Close()

	var _ shift.ShiftRepository = repo
}
