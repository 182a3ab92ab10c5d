package shift

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestShift(t *testing.T, openingCash int64) *Shift {
	t.Helper()
	s, err := Open(uuid.New(), uuid.New(), uuid.New(), "SFT-20260828-000001", decimal.NewFromInt(openingCash))
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func TestOpen(t *testing.T) {
	s, err := Open(uuid.New(), uuid.New(), uuid.New(), "SFT-20260828-000001", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, s.Status)
	assert.True(t, s.OpeningCash.Equal(decimal.NewFromInt(100)))
	assert.Zero(t, s.TransactionCount)

	events := s.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeShiftOpened, events[0].EventType())
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(uuid.New(), uuid.Nil, uuid.New(), "SFT-20260828-000001", decimal.Zero)
	assert.Error(t, err)

	_, err = Open(uuid.New(), uuid.New(), uuid.New(), "", decimal.Zero)
	assert.Error(t, err)

	_, err = Open(uuid.New(), uuid.New(), uuid.New(), "SFT-20260828-000001", decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestRecordSale(t *testing.T) {
	s := openTestShift(t, 100)

	require.NoError(t, s.RecordSale(decimal.NewFromInt(33), decimal.NewFromInt(33), decimal.Zero))
	require.NoError(t, s.RecordSale(decimal.NewFromInt(50), decimal.Zero, decimal.NewFromInt(50)))

	assert.True(t, s.SalesTotal.Equal(decimal.NewFromInt(83)))
	assert.True(t, s.CashPaymentsTotal.Equal(decimal.NewFromInt(33)))
	assert.True(t, s.CardPaymentsTotal.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, s.TransactionCount)
}

func TestRecordRefund(t *testing.T) {
	s := openTestShift(t, 100)
	require.NoError(t, s.RecordSale(decimal.NewFromInt(33), decimal.NewFromInt(33), decimal.Zero))

	// Refund totals arrive negated from the refund receipt.
	require.NoError(t, s.RecordRefund(decimal.NewFromInt(-11), decimal.NewFromInt(-11), decimal.Zero))

	assert.True(t, s.RefundTotal.Equal(decimal.NewFromInt(-11)))
	assert.True(t, s.CashPaymentsTotal.Equal(decimal.NewFromInt(22)))
	assert.Equal(t, 2, s.TransactionCount)
}

func TestRecordCashMovement(t *testing.T) {
	s := openTestShift(t, 100)

	mv, err := s.RecordCashMovement(MovementTypeCashIn, decimal.NewFromInt(20), "float top-up", nil)
	require.NoError(t, err)
	assert.Equal(t, MovementTypeCashIn, mv.Type)

	approver := uuid.New()
	_, err = s.RecordCashMovement(MovementTypeDrop, decimal.NewFromInt(50), "safe drop", &approver)
	require.NoError(t, err)

	_, err = s.RecordCashMovement(MovementTypePickup, decimal.NewFromInt(30), "bank run", &approver)
	require.NoError(t, err)

	assert.True(t, s.CashInTotal().Equal(decimal.NewFromInt(70)))
	assert.True(t, s.CashOutTotal().Equal(decimal.NewFromInt(30)))
}

func TestRecordCashMovement_Validation(t *testing.T) {
	s := openTestShift(t, 100)

	_, err := s.RecordCashMovement("BOGUS", decimal.NewFromInt(1), "", nil)
	assert.Error(t, err)

	_, err = s.RecordCashMovement(MovementTypeCashIn, decimal.Zero, "", nil)
	assert.Error(t, err)
}

func TestClose_Reconciliation(t *testing.T) {
	// Open with 100, one cash sale of 33: expected drawer is 133.
	s := openTestShift(t, 100)
	require.NoError(t, s.RecordSale(decimal.NewFromInt(33), decimal.NewFromInt(33), decimal.Zero))

	require.NoError(t, s.Close(decimal.NewFromInt(133), ""))

	assert.Equal(t, StatusClosed, s.Status)
	require.NotNil(t, s.ExpectedCash)
	require.NotNil(t, s.CashDifference)
	assert.True(t, s.ExpectedCash.Equal(decimal.NewFromInt(133)))
	assert.True(t, s.CashDifference.IsZero())
	require.NotNil(t, s.ClosedAt)

	events := s.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeShiftClosed, events[0].EventType())
}

func TestClose_ShortDrawer(t *testing.T) {
	s := openTestShift(t, 100)
	require.NoError(t, s.RecordSale(decimal.NewFromInt(33), decimal.NewFromInt(33), decimal.Zero))
	_, err := s.RecordCashMovement(MovementTypePickup, decimal.NewFromInt(50), "bank run", nil)
	require.NoError(t, err)

	// expected = 100 + 33 - 50 = 83; counted 80 -> short 3
	require.NoError(t, s.Close(decimal.NewFromInt(80), "till short"))

	assert.True(t, s.ExpectedCash.Equal(decimal.NewFromInt(83)), "expected: %s", s.ExpectedCash)
	assert.True(t, s.CashDifference.Equal(decimal.NewFromInt(-3)), "diff: %s", s.CashDifference)
}

func TestClose_IsTerminal(t *testing.T) {
	s := openTestShift(t, 100)
	require.NoError(t, s.Close(decimal.NewFromInt(100), ""))

	err := s.Close(decimal.NewFromInt(100), "")
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	assert.Error(t, s.RecordSale(decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero))
	_, err = s.RecordCashMovement(MovementTypeCashIn, decimal.NewFromInt(1), "", nil)
	assert.Error(t, err)
}

func TestReconciliation_BeforeClose(t *testing.T) {
	s := openTestShift(t, 100)
	_, _, err := s.Reconciliation()
	assert.Error(t, err)
}

func TestMovementTypeIsInflow(t *testing.T) {
	assert.True(t, MovementTypeCashIn.IsInflow())
	assert.True(t, MovementTypeDrop.IsInflow())
	assert.False(t, MovementTypeCashOut.IsInflow())
	assert.False(t, MovementTypePickup.IsInflow())
}
