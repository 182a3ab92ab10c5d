package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/checkout"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shift"
	"github.com/pos/backend/internal/domain/stock"
)

// MockEventPublisher collects published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fakeReceiptRepository is an in-memory ReceiptRepository
type fakeReceiptRepository struct {
	receipts map[uuid.UUID]*checkout.Receipt
	byKey    map[string]*checkout.Receipt
}

func newFakeReceiptRepository() *fakeReceiptRepository {
	return &fakeReceiptRepository{
		receipts: make(map[uuid.UUID]*checkout.Receipt),
		byKey:    make(map[string]*checkout.Receipt),
	}
}

func (f *fakeReceiptRepository) keyFor(tenantID uuid.UUID, key string) string {
	return tenantID.String() + "/" + key
}

func (f *fakeReceiptRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*checkout.Receipt, error) {
	r, ok := f.receipts[id]
	if !ok || r.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return r, nil
}

func (f *fakeReceiptRepository) FindByIDForTenantForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*checkout.Receipt, error) {
	return f.FindByIDForTenant(ctx, tenantID, id)
}

func (f *fakeReceiptRepository) FindByNumberForTenant(_ context.Context, tenantID uuid.UUID, number string) (*checkout.Receipt, error) {
	for _, r := range f.receipts {
		if r.TenantID == tenantID && r.ReceiptNumber == number {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeReceiptRepository) FindByIdempotencyKey(_ context.Context, tenantID uuid.UUID, key string) (*checkout.Receipt, error) {
	if r, ok := f.byKey[f.keyFor(tenantID, key)]; ok {
		return r, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeReceiptRepository) Create(_ context.Context, r *checkout.Receipt) error {
	if r.IdempotencyKey != nil {
		k := f.keyFor(r.TenantID, *r.IdempotencyKey)
		if _, exists := f.byKey[k]; exists {
			return checkout.ErrDuplicateIdempotencyKey
		}
		f.byKey[k] = r
	}
	f.receipts[r.ID] = r
	return nil
}

func (f *fakeReceiptRepository) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status checkout.ReceiptStatus) error {
	r, ok := f.receipts[id]
	if !ok || r.TenantID != tenantID {
		return shared.ErrNotFound
	}
	r.Status = status
	return nil
}

// AddLineRefundedQuantity mirrors the SQL guard: the aggregate pointer is
// shared with the caller, who already incremented the line, so the check
// here is against the stored absolute quantity.
func (f *fakeReceiptRepository) AddLineRefundedQuantity(_ context.Context, tenantID, receiptID, lineID uuid.UUID, _ decimal.Decimal) error {
	r, ok := f.receipts[receiptID]
	if !ok || r.TenantID != tenantID {
		return shared.ErrNotFound
	}
	line := r.GetLine(lineID)
	if line == nil {
		return shared.ErrNotFound
	}
	if line.RefundedQuantity.GreaterThan(line.Quantity) {
		return shared.ErrOverRefund
	}
	return nil
}

func (f *fakeReceiptRepository) SearchForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]checkout.Receipt, error) {
	var result []checkout.Receipt
	for _, r := range f.receipts {
		if r.TenantID == tenantID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (f *fakeReceiptRepository) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	var n int64
	for _, r := range f.receipts {
		if r.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// fakeStockItemRepository is an in-memory StockItemRepository
type fakeStockItemRepository struct {
	items map[string]*stock.StockItem
	// errOnLock, when set, is returned by the next N locked reads
	errOnLock      error
	errOnLockTimes int
}

func newFakeStockItemRepository() *fakeStockItemRepository {
	return &fakeStockItemRepository{items: make(map[string]*stock.StockItem)}
}

func (f *fakeStockItemRepository) key(tenantID, storeID, productID uuid.UUID) string {
	return tenantID.String() + "/" + storeID.String() + "/" + productID.String()
}

func (f *fakeStockItemRepository) seed(item *stock.StockItem) {
	f.items[f.key(item.TenantID, item.StoreID, item.ProductID)] = item
}

func (f *fakeStockItemRepository) FindByStoreAndProduct(_ context.Context, tenantID, storeID, productID uuid.UUID) (*stock.StockItem, error) {
	if item, ok := f.items[f.key(tenantID, storeID, productID)]; ok {
		return item, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeStockItemRepository) FindForUpdate(ctx context.Context, tenantID, storeID, productID uuid.UUID) (*stock.StockItem, error) {
	if err := f.lockErr(); err != nil {
		return nil, err
	}
	return f.FindByStoreAndProduct(ctx, tenantID, storeID, productID)
}

func (f *fakeStockItemRepository) GetOrCreateForUpdate(_ context.Context, tenantID, storeID, productID uuid.UUID) (*stock.StockItem, error) {
	if err := f.lockErr(); err != nil {
		return nil, err
	}
	k := f.key(tenantID, storeID, productID)
	if item, ok := f.items[k]; ok {
		return item, nil
	}
	item, err := stock.NewStockItem(tenantID, storeID, productID)
	if err != nil {
		return nil, err
	}
	f.items[k] = item
	return item, nil
}

func (f *fakeStockItemRepository) lockErr() error {
	if f.errOnLock != nil && f.errOnLockTimes > 0 {
		f.errOnLockTimes--
		return f.errOnLock
	}
	return nil
}

func (f *fakeStockItemRepository) Save(_ context.Context, _ *stock.StockItem) error {
	return nil
}

func (f *fakeStockItemRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]stock.StockItem, error) {
	var result []stock.StockItem
	for _, item := range f.items {
		if item.TenantID == tenantID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (f *fakeStockItemRepository) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	var n int64
	for _, item := range f.items {
		if item.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// fakeStockMovementRepository is an in-memory append-only ledger
type fakeStockMovementRepository struct {
	movements []*stock.StockMovement
}

func newFakeStockMovementRepository() *fakeStockMovementRepository {
	return &fakeStockMovementRepository{}
}

func (f *fakeStockMovementRepository) Create(_ context.Context, m *stock.StockMovement) error {
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeStockMovementRepository) FindByStoreAndProduct(_ context.Context, tenantID, storeID, productID uuid.UUID, _ shared.Filter) ([]stock.StockMovement, error) {
	var result []stock.StockMovement
	for _, m := range f.movements {
		if m.TenantID == tenantID && m.StoreID == storeID && m.ProductID == productID {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeStockMovementRepository) FindByReference(_ context.Context, tenantID uuid.UUID, refType stock.ReferenceType, refID uuid.UUID) ([]stock.StockMovement, error) {
	var result []stock.StockMovement
	for _, m := range f.movements {
		if m.TenantID == tenantID && m.ReferenceType == refType && m.ReferenceID == refID {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeStockMovementRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]stock.StockMovement, error) {
	var result []stock.StockMovement
	for _, m := range f.movements {
		if m.TenantID == tenantID {
			result = append(result, *m)
		}
	}
	return result, nil
}

func (f *fakeStockMovementRepository) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	var n int64
	for _, m := range f.movements {
		if m.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// fakeShiftRepository is an in-memory ShiftRepository
type fakeShiftRepository struct {
	shifts map[uuid.UUID]*shift.Shift
}

func newFakeShiftRepository() *fakeShiftRepository {
	return &fakeShiftRepository{shifts: make(map[uuid.UUID]*shift.Shift)}
}

func (f *fakeShiftRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*shift.Shift, error) {
	s, ok := f.shifts[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (f *fakeShiftRepository) FindOpenByCashier(_ context.Context, tenantID, cashierID, storeID uuid.UUID) (*shift.Shift, error) {
	for _, s := range f.shifts {
		if s.TenantID == tenantID && s.CashierID == cashierID && s.StoreID == storeID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeShiftRepository) FindOpenForUpdate(ctx context.Context, tenantID, cashierID, storeID uuid.UUID) (*shift.Shift, error) {
	return f.FindOpenByCashier(ctx, tenantID, cashierID, storeID)
}

func (f *fakeShiftRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*shift.Shift, error) {
	return f.FindByIDForTenant(ctx, tenantID, id)
}

func (f *fakeShiftRepository) Create(ctx context.Context, s *shift.Shift) error {
	if _, err := f.FindOpenByCashier(ctx, s.TenantID, s.CashierID, s.StoreID); err == nil {
		return shared.ErrDuplicateOpenShift
	}
	f.shifts[s.ID] = s
	return nil
}

func (f *fakeShiftRepository) Save(_ context.Context, _ *shift.Shift) error {
	return nil
}

func (f *fakeShiftRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]shift.Shift, error) {
	var result []shift.Shift
	for _, s := range f.shifts {
		if s.TenantID == tenantID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (f *fakeShiftRepository) CountForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	var n int64
	for _, s := range f.shifts {
		if s.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// fakeNumberAllocator issues sequential document numbers
type fakeNumberAllocator struct {
	next int
}

func (f *fakeNumberAllocator) Next(_ context.Context, _, _ uuid.UUID, prefix string, day time.Time) (string, error) {
	f.next++
	return fmt.Sprintf("%s-%s-%06d", prefix, day.Format("20060102"), f.next), nil
}

// fakeCatalogLookup maps product IDs to snapshots
type fakeCatalogLookup struct {
	products map[uuid.UUID]*catalog.ProductInfo
}

func newFakeCatalogLookup() *fakeCatalogLookup {
	return &fakeCatalogLookup{products: make(map[uuid.UUID]*catalog.ProductInfo)}
}

func (f *fakeCatalogLookup) Lookup(_ context.Context, _ uuid.UUID, productID uuid.UUID) (*catalog.ProductInfo, error) {
	if info, ok := f.products[productID]; ok {
		return info, nil
	}
	return nil, shared.ErrNotFound
}

// fakeParkStore is an in-memory ParkStore
type fakeParkStore struct {
	parked map[string]*ParkedSale
}

func newFakeParkStore() *fakeParkStore {
	return &fakeParkStore{parked: make(map[string]*ParkedSale)}
}

func (f *fakeParkStore) Save(_ context.Context, sale *ParkedSale) error {
	f.parked[sale.TenantID.String()+"/"+sale.Key] = sale
	return nil
}

func (f *fakeParkStore) Load(_ context.Context, tenantID uuid.UUID, key string) (*ParkedSale, error) {
	if sale, ok := f.parked[tenantID.String()+"/"+key]; ok {
		return sale, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeParkStore) Delete(_ context.Context, tenantID uuid.UUID, key string) error {
	delete(f.parked, tenantID.String()+"/"+key)
	return nil
}

func (f *fakeParkStore) ListByStore(_ context.Context, tenantID, storeID uuid.UUID) ([]ParkedSale, error) {
	var result []ParkedSale
	for _, sale := range f.parked {
		if sale.TenantID == tenantID && sale.StoreID == storeID {
			result = append(result, *sale)
		}
	}
	return result, nil
}

// saleTestEnv wires a SaleService (and everything a RefundService shares)
// over in-memory fakes
type saleTestEnv struct {
	tenantID  uuid.UUID
	storeID   uuid.UUID
	cashierID uuid.UUID

	receipts  *fakeReceiptRepository
	items     *fakeStockItemRepository
	movements *fakeStockMovementRepository
	shifts    *fakeShiftRepository
	numbers   *fakeNumberAllocator
	catalog   *fakeCatalogLookup
	park      *fakeParkStore
	publisher *MockEventPublisher

	scope *NoOpTransactionScope
}

func newSaleTestEnv() *saleTestEnv {
	env := &saleTestEnv{
		tenantID:  uuid.New(),
		storeID:   uuid.New(),
		cashierID: uuid.New(),
		receipts:  newFakeReceiptRepository(),
		items:     newFakeStockItemRepository(),
		movements: newFakeStockMovementRepository(),
		shifts:    newFakeShiftRepository(),
		numbers:   &fakeNumberAllocator{},
		catalog:   newFakeCatalogLookup(),
		park:      newFakeParkStore(),
		publisher: NewMockEventPublisher(),
	}
	env.scope = NewNoOpTransactionScope(env.receipts, env.items, env.movements, env.shifts, env.numbers)
	return env
}

func (e *saleTestEnv) saleService() *SaleService {
	svc := NewSaleService(e.scope, e.catalog, nil)
	svc.SetEventPublisher(e.publisher)
	svc.SetParkStore(e.park)
	return svc
}

func (e *saleTestEnv) refundService() *RefundService {
	svc := NewRefundService(e.scope, nil)
	svc.SetEventPublisher(e.publisher)
	return svc
}
