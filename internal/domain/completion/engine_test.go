package completion

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain"
	"commercia/internal/domain/document"
	"commercia/internal/domain/finance"
	"commercia/internal/domain/inventory"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDocumentRepo struct {
	docs  map[id.ID]*document.Document
	lines map[id.ID][]document.Line
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:  make(map[id.ID]*document.Document),
		lines: make(map[id.ID][]document.Line),
	}
}

func (r *fakeDocumentRepo) put(doc *document.Document) {
	clone := *doc
	clone.Lines = nil
	r.docs[doc.ID] = &clone
	r.lines[doc.ID] = append([]document.Line(nil), doc.Lines...)
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *document.Document) error {
	r.put(doc)
	return nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, doc *document.Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("document", doc.ID.String())
	}
	clone := *doc
	clone.Lines = nil
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, docID id.ID) (*document.Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeDocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*document.Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeDocumentRepo) GetLines(_ context.Context, docID id.ID) ([]document.Line, error) {
	return append([]document.Line(nil), r.lines[docID]...), nil
}

func (r *fakeDocumentRepo) SaveLines(_ context.Context, docID id.ID, lines []document.Line) error {
	r.lines[docID] = append([]document.Line(nil), lines...)
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *fakeDocumentRepo) List(_ context.Context, _ document.ListFilter) (domain.ListResult[*document.Document], error) {
	return domain.ListResult[*document.Document]{}, nil
}

type fakeReceiptRepo struct {
	byDocument map[id.ID]*Receipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{byDocument: make(map[id.ID]*Receipt)}
}

func (r *fakeReceiptRepo) Create(_ context.Context, receipt *Receipt) error {
	clone := *receipt
	r.byDocument[receipt.DocumentID] = &clone
	return nil
}

func (r *fakeReceiptRepo) GetByDocument(_ context.Context, documentID id.ID) (*Receipt, error) {
	receipt, ok := r.byDocument[documentID]
	if !ok {
		return nil, apperror.NewNotFound("receipt", documentID.String())
	}
	clone := *receipt
	return &clone, nil
}

type fakeStockRepo struct {
	balances  map[id.ID]types.Quantity
	movements []inventory.Movement
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{balances: make(map[id.ID]types.Quantity)}
}

func (r *fakeStockRepo) CreateMovements(_ context.Context, movements []inventory.Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeStockRepo) GetBalance(_ context.Context, productID id.ID) (inventory.Balance, error) {
	return inventory.Balance{ProductID: productID, Quantity: r.balances[productID]}, nil
}

func (r *fakeStockRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID) (inventory.Balance, error) {
	return r.GetBalance(ctx, productID)
}

func (r *fakeStockRepo) ApplyDelta(_ context.Context, productID id.ID, delta types.Quantity) error {
	r.balances[productID] += delta
	return nil
}

func (r *fakeStockRepo) GetBalances(_ context.Context, _ inventory.BalanceFilter) ([]inventory.Balance, error) {
	return nil, nil
}

func (r *fakeStockRepo) GetMovementHistory(_ context.Context, _ id.ID, _ inventory.MovementFilter) ([]inventory.Movement, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	entries    []finance.Entry
	failCreate error
}

func (r *fakeLedgerRepo) CreateEntries(_ context.Context, entries []finance.Entry) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeLedgerRepo) GetEntriesByDocument(_ context.Context, documentID id.ID) ([]finance.Entry, error) {
	var out []finance.Entry
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListEntries(_ context.Context, _ finance.EntryFilter) ([]finance.Entry, error) {
	return append([]finance.Entry(nil), r.entries...), nil
}

func (r *fakeLedgerRepo) GetTurnover(_ context.Context, _, _ time.Time) (finance.Turnover, error) {
	return finance.Turnover{}, nil
}

type fakeCashRecorder struct {
	recorded []types.Money
	openReg  string
}

func (c *fakeCashRecorder) RecordCashSale(_ context.Context, registerID string, amount types.Money) error {
	if registerID != c.openReg {
		return apperror.NewSessionNotOpen(registerID)
	}
	c.recorded = append(c.recorded, amount)
	return nil
}

type fakeStockChecker struct {
	stocked map[id.ID]bool
}

func (c *fakeStockChecker) StockedProducts(_ context.Context, ids []id.ID) (map[id.ID]bool, error) {
	out := make(map[id.ID]bool, len(ids))
	for _, pid := range ids {
		out[pid] = c.stocked[pid]
	}
	return out, nil
}

type engineFixture struct {
	engine   *Engine
	docs     *fakeDocumentRepo
	receipts *fakeReceiptRepo
	stock    *fakeStockRepo
	ledger   *fakeLedgerRepo
	cash     *fakeCashRecorder
	checker  *fakeStockChecker
}

func newFixture() *engineFixture {
	docs := newFakeDocumentRepo()
	receipts := newFakeReceiptRepo()
	stock := newFakeStockRepo()
	ledger := &fakeLedgerRepo{}
	cash := &fakeCashRecorder{openReg: "caja-1"}
	checker := &fakeStockChecker{stocked: make(map[id.ID]bool)}

	engine := NewEngine(
		docs,
		receipts,
		inventory.NewService(stock),
		finance.NewService(ledger),
		cash,
		checker,
		fakeTxManager{},
	)

	return &engineFixture{
		engine:   engine,
		docs:     docs,
		receipts: receipts,
		stock:    stock,
		ledger:   ledger,
		cash:     cash,
		checker:  checker,
	}
}

func (f *engineFixture) addStockedProduct(qty float64) id.ID {
	pid := id.New()
	f.checker.stocked[pid] = true
	f.stock.balances[pid] = types.NewQuantityFromFloat64(qty)
	return pid
}

func TestComplete_Sale(t *testing.T) {
	ctx := context.Background()

	t.Run("completes and posts income", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(10)

		sale := document.New(document.KindSale)
		sale.Number = "SL-2026-00001"
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(2), types.MustMoney("10.00"))
		sale.AddLine(nil, "delivery fee", types.NewQuantityFromFloat64(1), types.MustMoney("5.00"))
		sale.Discount = types.MustMoney("3.00")
		sale.RecalculateTotals()
		f.docs.put(sale)

		receipt, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)

		assert.True(t, receipt.Total.Equal(types.MustMoney("22.00")))
		assert.Equal(t, "sale", receipt.DocumentKind)
		assert.Equal(t, "SL-2026-00001", receipt.DocumentNumber)
		assert.False(t, receipt.CompletedAt.IsZero())

		stored, err := f.docs.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, document.StatusCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)

		// Only the stocked product line touched inventory.
		assert.Equal(t, types.NewQuantityFromFloat64(8), f.stock.balances[pid])
		assert.Len(t, f.stock.movements, 1)

		require.Len(t, f.ledger.entries, 1)
		assert.Equal(t, finance.DirectionIncome, f.ledger.entries[0].Direction)
		assert.True(t, f.ledger.entries[0].Amount.Equal(types.MustMoney("22.00")))
	})

	t.Run("idempotent replay", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(10)

		sale := document.New(document.KindSale)
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(2), types.MustMoney("10.00"))
		f.docs.put(sale)

		first, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)

		second, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.CompletedAt, second.CompletedAt)

		// No double side effects.
		assert.Equal(t, types.NewQuantityFromFloat64(8), f.stock.balances[pid])
		assert.Len(t, f.stock.movements, 1)
		assert.Len(t, f.ledger.entries, 1)
	})

	t.Run("cash sale feeds open session", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(5)

		sale := document.New(document.KindSale)
		sale.PaymentMethod = document.PaymentCash
		sale.RegisterID = "caja-1"
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(1), types.MustMoney("45.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)

		require.Len(t, f.cash.recorded, 1)
		assert.True(t, f.cash.recorded[0].Equal(types.MustMoney("45.00")))
	})

	t.Run("cash sale without open session fails", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(5)

		sale := document.New(document.KindSale)
		sale.PaymentMethod = document.PaymentCash
		sale.RegisterID = "caja-2"
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(1), types.MustMoney("45.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeSessionNotOpen))

		stored, err := f.docs.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, document.StatusDraft, stored.Status)
	})

	t.Run("card sale skips cash session", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(5)

		sale := document.New(document.KindSale)
		sale.PaymentMethod = document.PaymentCard
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(1), types.MustMoney("45.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)
		assert.Empty(t, f.cash.recorded)
	})

	t.Run("insufficient stock blocks completion", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(1)

		sale := document.New(document.KindSale)
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(2), types.MustMoney("10.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
		assert.Equal(t, pid.String(), appErr.Details["product_id"])

		stored, err := f.docs.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, document.StatusDraft, stored.Status)
		assert.Nil(t, stored.CompletedAt)
		assert.Empty(t, f.ledger.entries)
	})

	t.Run("ledger failure blocks completion", func(t *testing.T) {
		f := newFixture()
		pid := f.addStockedProduct(10)
		f.ledger.failCreate = errors.New("connection reset")

		sale := document.New(document.KindSale)
		sale.AddLine(&pid, "widget", types.NewQuantityFromFloat64(2), types.MustMoney("10.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodePostingError))

		stored, err := f.docs.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, document.StatusDraft, stored.Status)
		assert.Nil(t, stored.CompletedAt)
		assert.Empty(t, f.ledger.entries)
	})

	t.Run("consumes products in a fixed order", func(t *testing.T) {
		f := newFixture()
		first := f.addStockedProduct(10)
		second := f.addStockedProduct(10)
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}

		// Lines deliberately reference the products in reverse order.
		sale := document.New(document.KindSale)
		sale.AddLine(&second, "b", types.NewQuantityFromFloat64(1), types.MustMoney("1.00"))
		sale.AddLine(&first, "a", types.NewQuantityFromFloat64(1), types.MustMoney("1.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)

		require.Len(t, f.stock.movements, 2)
		assert.Equal(t, first, f.stock.movements[0].ProductID)
		assert.Equal(t, second, f.stock.movements[1].ProductID)
	})

	t.Run("service items are not consumed", func(t *testing.T) {
		f := newFixture()
		serviceItem := id.New() // known but not stocked

		sale := document.New(document.KindSale)
		sale.AddLine(&serviceItem, "installation", types.NewQuantityFromFloat64(1), types.MustMoney("30.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)
		assert.Empty(t, f.stock.movements)
	})
}

func TestComplete_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("empty document", func(t *testing.T) {
		f := newFixture()

		sale := document.New(document.KindSale)
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeEmptyDocument))
	})

	t.Run("discount exceeding subtotal", func(t *testing.T) {
		f := newFixture()

		sale := document.New(document.KindSale)
		sale.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		sale.Discount = types.MustMoney("10.01")
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidDiscount))
	})

	t.Run("discount equal to subtotal completes with zero total", func(t *testing.T) {
		f := newFixture()

		sale := document.New(document.KindSale)
		sale.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		sale.Discount = types.MustMoney("10.00")
		f.docs.put(sale)

		receipt, err := f.engine.Complete(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, receipt.Total.IsZero())
		assert.Empty(t, f.ledger.entries)
	})

	t.Run("canceled sale cannot complete", func(t *testing.T) {
		f := newFixture()

		sale := document.New(document.KindSale)
		sale.Status = document.StatusCanceled
		sale.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		f.docs.put(sale)

		_, err := f.engine.Complete(ctx, sale.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	})

	t.Run("quotes never complete", func(t *testing.T) {
		f := newFixture()

		quote := document.New(document.KindQuote)
		quote.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		f.docs.put(quote)

		_, err := f.engine.Complete(ctx, quote.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newFixture()

		_, err := f.engine.Complete(ctx, id.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestComplete_ServiceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	material := f.addStockedProduct(10)

	order := document.New(document.KindServiceOrder)
	order.Status = document.StatusInProgress
	order.AddLine(nil, "labor", types.NewQuantityFromFloat64(2), types.MustMoney("25.00"))
	order.AddLine(&material, "spare part", types.NewQuantityFromFloat64(1), types.MustMoney("15.00"))
	f.docs.put(order)

	receipt, err := f.engine.Complete(ctx, order.ID)
	require.NoError(t, err)

	assert.True(t, receipt.Total.Equal(types.MustMoney("65.00")))
	assert.Equal(t, types.NewQuantityFromFloat64(9), f.stock.balances[material])
	require.Len(t, f.ledger.entries, 1)
	assert.True(t, f.ledger.entries[0].Amount.Equal(types.MustMoney("65.00")))
}

func TestComplete_ProductionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes materials and restocks output", func(t *testing.T) {
		f := newFixture()
		material := f.addStockedProduct(20)
		output := id.New()
		f.checker.stocked[output] = true

		order := document.New(document.KindProductionOrder)
		order.Status = document.StatusInProduction
		order.OutputProductID = &output
		order.OutputQuantity = types.NewQuantityFromFloat64(5)
		order.AddLine(&material, "raw material", types.NewQuantityFromFloat64(12), types.MustMoney("2.00"))
		f.docs.put(order)

		_, err := f.engine.Complete(ctx, order.ID)
		require.NoError(t, err)

		assert.Equal(t, types.NewQuantityFromFloat64(8), f.stock.balances[material])
		assert.Equal(t, types.NewQuantityFromFloat64(5), f.stock.balances[output])

		// Material cost absorbed as an expense, never income.
		require.Len(t, f.ledger.entries, 1)
		assert.Equal(t, finance.DirectionExpense, f.ledger.entries[0].Direction)
		assert.True(t, f.ledger.entries[0].Amount.Equal(types.MustMoney("24.00")))
	})

	t.Run("insufficient materials block the order", func(t *testing.T) {
		f := newFixture()
		material := f.addStockedProduct(5)
		output := id.New()

		order := document.New(document.KindProductionOrder)
		order.Status = document.StatusInProduction
		order.OutputProductID = &output
		order.OutputQuantity = types.NewQuantityFromFloat64(1)
		order.AddLine(&material, "raw material", types.NewQuantityFromFloat64(12), types.MustMoney("2.00"))
		f.docs.put(order)

		_, err := f.engine.Complete(ctx, order.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
		assert.True(t, f.stock.balances[output].IsZero())
	})
}
