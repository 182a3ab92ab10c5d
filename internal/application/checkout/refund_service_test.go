package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sellThreeUnits creates the canonical original sale: 3 units at $10,
// tax 0.1, paid cash 40
func sellThreeUnits(t *testing.T, env *saleTestEnv) (*ReceiptResponse, uuid.UUID) {
	t.Helper()
	productID := env.seedProduct(t, 10, 6, 0.1, 10)
	resp, err := env.saleService().CreateSale(context.Background(), env.tenantID, CreateSaleInput{
		StoreID:   env.storeID,
		CashierID: env.cashierID,
		Lines:     []SaleLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(3)}},
		Payments:  []PaymentInput{{Method: checkout.PaymentMethodCash, Amount: decimal.NewFromInt(40)}},
	})
	require.NoError(t, err)
	return resp, productID
}

func TestProcessRefund_PartialRefund(t *testing.T) {
	env := newSaleTestEnv()
	original, productID := sellThreeUnits(t, env)
	svc := env.refundService()

	refund, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(1), Reason: "damaged"},
		},
		Payments:     []PaymentInput{{Method: checkout.PaymentMethodCash, Amount: decimal.NewFromInt(11)}},
		RestockItems: true,
	})
	require.NoError(t, err)

	// One third of a 33 total, negated.
	assert.Equal(t, checkout.ReceiptTypeRefund, refund.Type)
	assert.True(t, refund.Total.Equal(decimal.NewFromInt(-11)), "total: %s", refund.Total)
	assert.True(t, refund.PaidTotal.Equal(decimal.NewFromInt(-11)))
	assert.True(t, refund.ChangeDue.IsZero())
	require.NotNil(t, refund.OriginalReceiptID)
	assert.Equal(t, original.ID, *refund.OriginalReceiptID)

	// Stock restored: 10 - 3 + 1 = 8, positive-delta RETURN movement.
	item, err := env.items.FindByStoreAndProduct(context.Background(), env.tenantID, env.storeID, productID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(8)))

	returns, err := env.movements.FindByReference(context.Background(), env.tenantID, stock.ReferenceTypeReturn, refund.ID)
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.True(t, returns[0].QuantityDelta.Equal(decimal.NewFromInt(1)))

	// Two units remain refundable, so the original stays COMPLETED with
	// the cumulative quantity recorded.
	stored, err := env.receipts.FindByIDForTenant(context.Background(), env.tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.ReceiptStatusCompleted, stored.Status)
	assert.True(t, stored.Lines[0].RefundedQuantity.Equal(decimal.NewFromInt(1)))

	assert.Empty(t, env.publisher.GetEventsByType(checkout.EventTypeReceiptRefunded))
}

func TestProcessRefund_FullRefundMarksOriginalRefunded(t *testing.T) {
	env := newSaleTestEnv()
	original, _ := sellThreeUnits(t, env)
	svc := env.refundService()

	// First refund covers one unit: original still COMPLETED.
	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(1)},
		},
		RestockItems: true,
	})
	require.NoError(t, err)

	stored, err := env.receipts.FindByIDForTenant(context.Background(), env.tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.ReceiptStatusCompleted, stored.Status)

	// Second refund exhausts the line: original flips to REFUNDED.
	_, err = svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(2)},
		},
		RestockItems: true,
	})
	require.NoError(t, err)

	stored, err = env.receipts.FindByIDForTenant(context.Background(), env.tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.ReceiptStatusRefunded, stored.Status)
	assert.True(t, stored.Lines[0].RefundedQuantity.Equal(decimal.NewFromInt(3)))

	assert.Len(t, env.publisher.GetEventsByType(checkout.EventTypeReceiptRefunded), 1)
}

func TestProcessRefund_CumulativeOverRefundRejected(t *testing.T) {
	env := newSaleTestEnv()
	original, _ := sellThreeUnits(t, env)
	svc := env.refundService()

	// First refund of 2 units succeeds.
	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(2)},
		},
		RestockItems: true,
	})
	require.NoError(t, err)

	// Second refund of 2 exceeds the remaining 1, even though 2 is within
	// the original quantity of 3.
	_, err = svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(2)},
		},
		RestockItems: true,
	})
	require.Error(t, err)
	assert.Equal(t, shared.ErrOverRefund, err)

	// Refunding the remaining single unit still works.
	_, err = svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(1)},
		},
		RestockItems: true,
	})
	require.NoError(t, err)
}

func TestProcessRefund_QuantityExceedsOriginal(t *testing.T) {
	env := newSaleTestEnv()
	original, _ := sellThreeUnits(t, env)
	svc := env.refundService()

	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(4)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestProcessRefund_OriginalNotFound(t *testing.T) {
	env := newSaleTestEnv()
	svc := env.refundService()

	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: uuid.New(),
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: uuid.New(), Quantity: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestProcessRefund_UnknownLine(t *testing.T) {
	env := newSaleTestEnv()
	original, _ := sellThreeUnits(t, env)
	svc := env.refundService()

	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: uuid.New(), Quantity: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestProcessRefund_WithoutRestock(t *testing.T) {
	env := newSaleTestEnv()
	original, productID := sellThreeUnits(t, env)
	svc := env.refundService()

	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(1), Reason: "damaged beyond resale"},
		},
		RestockItems: false,
	})
	require.NoError(t, err)

	// Damaged goods are not restocked: quantity stays at 7.
	item, err := env.items.FindByStoreAndProduct(context.Background(), env.tenantID, env.storeID, productID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(7)))
}

func TestProcessRefund_UpdatesShiftTotals(t *testing.T) {
	env := newSaleTestEnv()
	original, _ := sellThreeUnits(t, env)
	sh := env.seedOpenShift(t)
	svc := env.refundService()

	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		ShiftID:           &sh.ID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(1)},
		},
		Payments:     []PaymentInput{{Method: checkout.PaymentMethodCash, Amount: decimal.NewFromInt(11)}},
		RestockItems: true,
	})
	require.NoError(t, err)

	assert.True(t, sh.RefundTotal.Equal(decimal.NewFromInt(-11)), "refund total: %s", sh.RefundTotal)
	assert.True(t, sh.CashPaymentsTotal.Equal(decimal.NewFromInt(-11)), "cash: %s", sh.CashPaymentsTotal)
	assert.Equal(t, 1, sh.TransactionCount)
}

func TestProcessRefund_IdempotentReplay(t *testing.T) {
	env := newSaleTestEnv()
	original, productID := sellThreeUnits(t, env)
	svc := env.refundService()

	input := ProcessRefundInput{
		OriginalReceiptID: original.ID,
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: original.Lines[0].ID, Quantity: decimal.NewFromInt(1)},
		},
		RestockItems:   true,
		IdempotencyKey: "refund-key-1",
	}

	first, err := svc.ProcessRefund(context.Background(), env.tenantID, input)
	require.NoError(t, err)

	second, err := svc.ProcessRefund(context.Background(), env.tenantID, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Stock restored exactly once.
	item, err := env.items.FindByStoreAndProduct(context.Background(), env.tenantID, env.storeID, productID)
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(8)))
}

func TestProcessRefund_Validation(t *testing.T) {
	env := newSaleTestEnv()
	svc := env.refundService()

	_, err := svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: uuid.New(),
		CashierID:         env.cashierID,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = svc.ProcessRefund(context.Background(), env.tenantID, ProcessRefundInput{
		OriginalReceiptID: uuid.New(),
		CashierID:         env.cashierID,
		Lines: []RefundLineInput{
			{LineID: uuid.New(), Quantity: decimal.Zero},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
