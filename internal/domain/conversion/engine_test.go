package conversion

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain"
	"commercia/internal/domain/document"
	"commercia/pkg/numerator"
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

type seqRow struct{ val int64 }

func (r *seqRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

type seqQuerier struct {
	mu  sync.Mutex
	val int64
}

func (q *seqQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.val++
	return &seqRow{val: q.val}
}

func newTestEngine() (*Engine, *fakeDocumentRepo) {
	repo := newFakeDocumentRepo()
	return NewEngine(repo, numerator.New(&seqQuerier{}), fakeTxManager{}), repo
}

func openQuote(repo *fakeDocumentRepo) *document.Document {
	client := id.New()
	quote := document.New(document.KindQuote)
	quote.Number = "QT-2026-00007"
	quote.ClientID = &client
	quote.ClientName = "Acme S.A."
	quote.Discount = types.MustMoney("3.00")
	quote.AddLine(nil, "item a", types.NewQuantityFromFloat64(2), types.MustMoney("10.00"))
	quote.AddLine(nil, "item b", types.NewQuantityFromFloat64(1), types.MustMoney("5.00"))
	repo.put(quote)
	return quote
}

func TestConvert(t *testing.T) {
	ctx := context.Background()

	t.Run("quote to sale", func(t *testing.T) {
		engine, repo := newTestEngine()
		quote := openQuote(repo)

		sale, err := engine.Convert(ctx, quote.ID, document.KindSale)
		require.NoError(t, err)

		assert.Equal(t, document.KindSale, sale.Kind)
		assert.Equal(t, document.StatusDraft, sale.Status)
		assert.NotEqual(t, quote.ID, sale.ID)
		assert.NotEmpty(t, sale.Number)
		assert.NotEqual(t, quote.Number, sale.Number)

		// Lines and discount copied verbatim, with fresh line ids.
		require.Len(t, sale.Lines, 2)
		assert.NotEqual(t, quote.Lines[0].LineID, sale.Lines[0].LineID)
		assert.Equal(t, quote.Lines[0].Description, sale.Lines[0].Description)
		assert.True(t, sale.Discount.Equal(types.MustMoney("3.00")))
		assert.True(t, sale.Total.Equal(types.MustMoney("22.00")))
		assert.Equal(t, quote.ClientID, sale.ClientID)
		assert.Equal(t, "Acme S.A.", sale.ClientName)

		// Quote is stamped atomically.
		stored, err := repo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, document.StatusConverted, stored.Status)
		require.NotNil(t, stored.ConvertedToID)
		assert.Equal(t, sale.ID, *stored.ConvertedToID)
	})

	t.Run("quote to service order starts open", func(t *testing.T) {
		engine, repo := newTestEngine()
		quote := openQuote(repo)

		order, err := engine.Convert(ctx, quote.ID, document.KindServiceOrder)
		require.NoError(t, err)
		assert.Equal(t, document.KindServiceOrder, order.Kind)
		assert.Equal(t, document.StatusOpen, order.Status)
	})

	t.Run("approved quote converts", func(t *testing.T) {
		engine, repo := newTestEngine()
		quote := openQuote(repo)
		quote.Status = document.StatusApproved
		repo.put(quote)

		_, err := engine.Convert(ctx, quote.ID, document.KindSale)
		require.NoError(t, err)
	})

	t.Run("second conversion fails with target reference", func(t *testing.T) {
		engine, repo := newTestEngine()
		quote := openQuote(repo)

		sale, err := engine.Convert(ctx, quote.ID, document.KindSale)
		require.NoError(t, err)

		_, err = engine.Convert(ctx, quote.ID, document.KindServiceOrder)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeAlreadyConverted, appErr.Code)
		assert.Equal(t, sale.ID.String(), appErr.Details["converted_to"])
	})

	t.Run("rejected quote is not convertible", func(t *testing.T) {
		engine, repo := newTestEngine()
		quote := openQuote(repo)
		quote.Status = document.StatusRejected
		repo.put(quote)

		_, err := engine.Convert(ctx, quote.ID, document.KindSale)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeNotConvertible))
	})

	t.Run("only quotes convert", func(t *testing.T) {
		engine, repo := newTestEngine()
		sale := document.New(document.KindSale)
		repo.put(sale)

		_, err := engine.Convert(ctx, sale.ID, document.KindSale)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeNotConvertible))
	})

	t.Run("invalid target kind", func(t *testing.T) {
		engine, repo := newTestEngine()
		quote := openQuote(repo)

		_, err := engine.Convert(ctx, quote.ID, document.KindQuote)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

		_, err = engine.Convert(ctx, quote.ID, document.KindProductionOrder)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}
