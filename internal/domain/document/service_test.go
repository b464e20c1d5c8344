package document

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
	"commercia/internal/domain"
	"commercia/pkg/numerator"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	docs  map[id.ID]*Document
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:  make(map[id.ID]*Document),
		lines: make(map[id.ID][]Line),
	}
}

func (r *fakeRepo) Create(_ context.Context, doc *Document) error {
	clone := *doc
	clone.Lines = nil
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) Update(_ context.Context, doc *Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("document", doc.ID.String())
	}
	clone := *doc
	clone.Lines = nil
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, docID id.ID) (*Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *fakeRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, docID id.ID) error {
	if _, ok := r.docs[docID]; !ok {
		return apperror.NewNotFound("document", docID.String())
	}
	delete(r.docs, docID)
	return nil
}

func (r *fakeRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	var items []*Document
	for _, doc := range r.docs {
		if filter.Kind != nil && doc.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		clone := *doc
		items = append(items, &clone)
	}
	return domain.ListResult[*Document]{Items: items, TotalCount: int64(len(items))}, nil
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

type fakeClients struct {
	names map[id.ID]string
}

func (c *fakeClients) GetName(_ context.Context, clientID id.ID) (string, error) {
	name, ok := c.names[clientID]
	if !ok {
		return "", apperror.NewNotFound("client", clientID.String())
	}
	return name, nil
}

func newTestService() (*Service, *fakeRepo, *fakeClients) {
	repo := newFakeRepo()
	clients := &fakeClients{names: make(map[id.ID]string)}
	svc := NewService(repo, fakeTxManager{}, numerator.New(&seqQuerier{}), clients)
	return svc, repo, clients
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns number and initial status", func(t *testing.T) {
		svc, repo, _ := newTestService()

		doc := New(KindSale)
		doc.Status = StatusCompleted // input status is ignored
		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		require.NoError(t, svc.Create(ctx, doc))

		assert.Equal(t, StatusDraft, doc.Status)
		assert.True(t, strings.HasPrefix(doc.Number, "SL-"), doc.Number)

		stored, err := repo.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.Number, stored.Number)
	})

	t.Run("numbers are sequential per kind", func(t *testing.T) {
		svc, _, _ := newTestService()

		first := New(KindQuote)
		second := New(KindQuote)
		require.NoError(t, svc.Create(ctx, first))
		require.NoError(t, svc.Create(ctx, second))

		assert.NotEqual(t, first.Number, second.Number)
		assert.True(t, strings.HasPrefix(first.Number, "QT-"))
		assert.True(t, strings.HasPrefix(second.Number, "QT-"))
	})

	t.Run("resolves client name", func(t *testing.T) {
		svc, _, clients := newTestService()
		clientID := id.New()
		clients.names[clientID] = "Acme S.A."

		doc := New(KindSale)
		doc.ClientID = &clientID
		require.NoError(t, svc.Create(ctx, doc))
		assert.Equal(t, "Acme S.A.", doc.ClientName)
	})

	t.Run("unknown client rejected", func(t *testing.T) {
		svc, _, _ := newTestService()
		clientID := id.New()

		doc := New(KindSale)
		doc.ClientID = &clientID
		err := svc.Create(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("invalid kind rejected", func(t *testing.T) {
		svc, _, _ := newTestService()
		err := svc.Create(ctx, New("receipt"))
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("recalculates totals and preserves engine fields", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindSale)
		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		require.NoError(t, svc.Create(ctx, doc))
		number := doc.Number

		doc.Status = StatusCompleted // spoofed input
		doc.Number = "SL-FAKE"
		doc.ReplaceLines([]Line{
			{Description: "item", Quantity: types.NewQuantityFromFloat64(2), UnitPrice: types.MustMoney("10.00")},
			{Description: "other", Quantity: types.NewQuantityFromFloat64(1), UnitPrice: types.MustMoney("5.00")},
		})
		doc.Discount = types.MustMoney("3.00")
		require.NoError(t, svc.Update(ctx, doc))

		stored, err := svc.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, stored.Status)
		assert.Equal(t, number, stored.Number)
		assert.True(t, stored.Total.Equal(types.MustMoney("22.00")))
		assert.Len(t, stored.Lines, 2)
	})

	t.Run("completed document is read-only", func(t *testing.T) {
		svc, repo, _ := newTestService()

		doc := New(KindSale)
		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		require.NoError(t, svc.Create(ctx, doc))

		stored := repo.docs[doc.ID]
		stored.Status = StatusCompleted

		err := svc.Update(ctx, doc)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	})
}

func TestServiceTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("valid move", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindServiceOrder)
		require.NoError(t, svc.Create(ctx, doc))

		updated, err := svc.Transition(ctx, doc.ID, StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, updated.Status)
	})

	t.Run("invalid move", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindServiceOrder)
		require.NoError(t, svc.Create(ctx, doc))

		_, err := svc.Transition(ctx, doc.ID, StatusCompleted)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	})

	t.Run("opening an empty sale fails", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindSale)
		require.NoError(t, svc.Create(ctx, doc))

		_, err := svc.Transition(ctx, doc.ID, StatusOpen)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeEmptyDocument))

		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		require.NoError(t, svc.Update(ctx, doc))

		updated, err := svc.Transition(ctx, doc.ID, StatusOpen)
		require.NoError(t, err)
		assert.Equal(t, StatusOpen, updated.Status)
	})
}

func TestServiceCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels an open sale", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindSale)
		require.NoError(t, svc.Create(ctx, doc))

		updated, err := svc.Cancel(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCanceled, updated.Status)
	})

	t.Run("only sales cancel", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindQuote)
		require.NoError(t, svc.Create(ctx, doc))

		_, err := svc.Cancel(ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("mutable document deletes", func(t *testing.T) {
		svc, _, _ := newTestService()

		doc := New(KindSale)
		require.NoError(t, svc.Create(ctx, doc))
		require.NoError(t, svc.Delete(ctx, doc.ID))

		_, err := svc.GetByID(ctx, doc.ID)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("completed document does not delete", func(t *testing.T) {
		svc, repo, _ := newTestService()

		doc := New(KindSale)
		require.NoError(t, svc.Create(ctx, doc))
		repo.docs[doc.ID].Status = StatusCompleted

		err := svc.Delete(ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	})
}
