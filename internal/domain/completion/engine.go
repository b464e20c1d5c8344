package completion

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"commercia/internal/core/apperror"
	appctx "commercia/internal/core/context"
	"commercia/internal/core/id"
	"commercia/internal/core/tx"
	"commercia/internal/core/types"
	"commercia/internal/domain/document"
	"commercia/internal/domain/finance"
	"commercia/internal/domain/inventory"
	"commercia/pkg/logger"
)

// StockChecker reports which of the given products are stocked goods.
// Service items and free-text lines never touch inventory.
type StockChecker interface {
	StockedProducts(ctx context.Context, ids []id.ID) (map[id.ID]bool, error)
}

// CashRecorder adds a completed cash sale to the open session of a register.
type CashRecorder interface {
	RecordCashSale(ctx context.Context, registerID string, amount types.Money) error
}

// Engine orchestrates document completion. All side effects of one
// completion share a transaction: a failure on any step rolls back
// every other.
type Engine struct {
	documents document.Repository
	receipts  ReceiptRepository
	stock     *inventory.Service
	ledger    *finance.Service
	cash      CashRecorder
	products  StockChecker
	txManager tx.Manager
}

// NewEngine creates a completion engine.
func NewEngine(
	documents document.Repository,
	receipts ReceiptRepository,
	stock *inventory.Service,
	ledger *finance.Service,
	cash CashRecorder,
	products StockChecker,
	txManager tx.Manager,
) *Engine {
	return &Engine{
		documents: documents,
		receipts:  receipts,
		stock:     stock,
		ledger:    ledger,
		cash:      cash,
		products:  products,
		txManager: txManager,
	}
}

// Complete completes the document. Idempotent: a second call for an
// already-completed document returns the stored receipt without
// touching inventory, the ledger or any cash session.
func (e *Engine) Complete(ctx context.Context, docID id.ID) (*Receipt, error) {
	var receipt *Receipt
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := e.documents.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.IsCompleted() {
			stored, err := e.receipts.GetByDocument(ctx, docID)
			if err != nil {
				return fmt.Errorf("load receipt: %w", err)
			}
			receipt = stored
			return nil
		}

		if err := doc.CanComplete(); err != nil {
			return err
		}

		lines, err := e.documents.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		if len(doc.Lines) == 0 {
			return apperror.NewEmptyDocument(docID.String())
		}

		doc.RecalculateTotals()
		subtotal := doc.LinesSubtotal()
		if doc.Discount.GreaterThan(subtotal) {
			return apperror.NewInvalidDiscount(doc.Discount.String(), subtotal.String())
		}

		if err := e.applySideEffects(ctx, doc); err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.Status = document.StatusCompleted
		doc.CompletedAt = &now
		doc.Touch()
		if err := e.documents.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		receipt = &Receipt{
			ID:             id.New(),
			DocumentID:     doc.ID,
			DocumentNumber: doc.Number,
			DocumentKind:   string(doc.Kind),
			Total:          doc.Total,
			CompletedAt:    now,
			CompletedBy:    appctx.GetUserID(ctx),
		}
		if err := e.receipts.Create(ctx, receipt); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		logger.Info(ctx, "document completed",
			"id", doc.ID,
			"kind", doc.Kind,
			"number", doc.Number,
			"total", doc.Total,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetReceipt returns the stored receipt for a completed document.
func (e *Engine) GetReceipt(ctx context.Context, docID id.ID) (*Receipt, error) {
	return e.receipts.GetByDocument(ctx, docID)
}

// applySideEffects runs the kind-specific consequences of completion.
func (e *Engine) applySideEffects(ctx context.Context, doc *document.Document) error {
	switch doc.Kind {
	case document.KindSale:
		if err := e.consumeStockedLines(ctx, doc); err != nil {
			return err
		}
		if err := e.post(ctx, doc, finance.DirectionIncome); err != nil {
			return err
		}
		if doc.IsCashSale() {
			if doc.RegisterID == "" {
				return apperror.NewValidation("cash sale requires a register").
					WithDetail("field", "registerId")
			}
			if err := e.cash.RecordCashSale(ctx, doc.RegisterID, doc.Total); err != nil {
				return err
			}
		}
		return nil

	case document.KindServiceOrder:
		// Product lines on a service order are materials used on the job.
		if err := e.consumeStockedLines(ctx, doc); err != nil {
			return err
		}
		return e.post(ctx, doc, finance.DirectionIncome)

	case document.KindProductionOrder:
		// Lines are raw materials; the output product is received.
		if err := e.consumeStockedLines(ctx, doc); err != nil {
			return err
		}
		if err := e.stock.Restock(ctx, doc.ID, string(doc.Kind), doc.Date, []inventory.Adjustment{
			{ProductID: *doc.OutputProductID, Quantity: doc.OutputQuantity},
		}); err != nil {
			return err
		}
		// Production cost is absorbed as an expense entry.
		return e.post(ctx, doc, finance.DirectionExpense)

	default:
		return apperror.NewInvalidState(string(doc.Kind), string(doc.Status), string(document.StatusCompleted))
	}
}

// consumeStockedLines aggregates product lines per product and consumes
// them from inventory. Free-text lines and service items are skipped.
func (e *Engine) consumeStockedLines(ctx context.Context, doc *document.Document) error {
	var productIDs []id.ID
	seen := make(map[id.ID]bool)
	for _, l := range doc.Lines {
		if l.ProductID == nil || id.IsNil(*l.ProductID) {
			continue
		}
		if !seen[*l.ProductID] {
			seen[*l.ProductID] = true
			productIDs = append(productIDs, *l.ProductID)
		}
	}
	if len(productIDs) == 0 {
		return nil
	}

	stocked, err := e.products.StockedProducts(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("resolve products: %w", err)
	}

	totals := make(map[id.ID]types.Quantity)
	var order []id.ID
	for _, l := range doc.Lines {
		if l.ProductID == nil || !stocked[*l.ProductID] {
			continue
		}
		if _, ok := totals[*l.ProductID]; !ok {
			order = append(order, *l.ProductID)
		}
		totals[*l.ProductID] += l.Quantity
	}
	if len(order) == 0 {
		return nil
	}

	// Balance rows are locked in adjustment order; a fixed ordering keeps
	// two documents touching the same products from deadlocking.
	sort.Slice(order, func(i, j int) bool {
		return bytes.Compare(order[i][:], order[j][:]) < 0
	})

	adjustments := make([]inventory.Adjustment, 0, len(order))
	for _, pid := range order {
		adjustments = append(adjustments, inventory.Adjustment{ProductID: pid, Quantity: totals[pid]})
	}

	return e.stock.Consume(ctx, doc.ID, string(doc.Kind), doc.Date, adjustments)
}

// post records the document total in the financial ledger.
// Zero-total documents (fully discounted) post nothing.
func (e *Engine) post(ctx context.Context, doc *document.Document, direction finance.Direction) error {
	if !doc.Total.IsPositive() {
		return nil
	}

	entry := finance.NewEntry(
		doc.ID,
		string(doc.Kind),
		doc.Date,
		direction,
		doc.Total,
		fmt.Sprintf("%s %s", doc.Kind, doc.Number),
	)
	return e.ledger.Post(ctx, []finance.Entry{entry})
}
