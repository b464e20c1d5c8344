package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

type fakeRepo struct {
	balances  map[id.ID]types.Quantity
	movements []Movement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: make(map[id.ID]types.Quantity)}
}

func (r *fakeRepo) CreateMovements(_ context.Context, movements []Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeRepo) GetBalance(_ context.Context, productID id.ID) (Balance, error) {
	qty, ok := r.balances[productID]
	if !ok {
		return Balance{}, apperror.NewNotFound("balance", productID.String())
	}
	return Balance{ProductID: productID, Quantity: qty}, nil
}

func (r *fakeRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID) (Balance, error) {
	qty := r.balances[productID]
	return Balance{ProductID: productID, Quantity: qty}, nil
}

func (r *fakeRepo) ApplyDelta(_ context.Context, productID id.ID, delta types.Quantity) error {
	r.balances[productID] += delta
	return nil
}

func (r *fakeRepo) GetBalances(_ context.Context, _ BalanceFilter) ([]Balance, error) {
	var out []Balance
	for pid, qty := range r.balances {
		out = append(out, Balance{ProductID: pid, Quantity: qty})
	}
	return out, nil
}

func (r *fakeRepo) GetMovementHistory(_ context.Context, productID id.ID, _ MovementFilter) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestConsume(t *testing.T) {
	ctx := context.Background()
	productA := id.New()
	productB := id.New()
	recorder := id.New()

	t.Run("decrements balances and records movements", func(t *testing.T) {
		repo := newFakeRepo()
		repo.balances[productA] = types.NewQuantityFromFloat64(10)
		repo.balances[productB] = types.NewQuantityFromFloat64(5)
		svc := NewService(repo)

		err := svc.Consume(ctx, recorder, "sale", time.Now(), []Adjustment{
			{ProductID: productA, Quantity: types.NewQuantityFromFloat64(2)},
			{ProductID: productB, Quantity: types.NewQuantityFromFloat64(5)},
		})
		require.NoError(t, err)

		assert.Equal(t, types.NewQuantityFromFloat64(8), repo.balances[productA])
		assert.Equal(t, types.Quantity(0), repo.balances[productB])
		assert.Len(t, repo.movements, 2)
		assert.Equal(t, RecordTypeExpense, repo.movements[0].RecordType)
	})

	t.Run("insufficient stock leaves register untouched", func(t *testing.T) {
		repo := newFakeRepo()
		repo.balances[productA] = types.NewQuantityFromFloat64(10)
		repo.balances[productB] = types.NewQuantityFromFloat64(1)
		svc := NewService(repo)

		err := svc.Consume(ctx, recorder, "sale", time.Now(), []Adjustment{
			{ProductID: productA, Quantity: types.NewQuantityFromFloat64(2)},
			{ProductID: productB, Quantity: types.NewQuantityFromFloat64(3)},
		})
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
		assert.Equal(t, productB.String(), appErr.Details["product_id"])

		// Nothing written, first line not consumed either.
		assert.Equal(t, types.NewQuantityFromFloat64(10), repo.balances[productA])
		assert.Empty(t, repo.movements)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		err := svc.Consume(ctx, recorder, "sale", time.Now(), []Adjustment{
			{ProductID: productA, Quantity: 0},
		})
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}

func TestRestock(t *testing.T) {
	ctx := context.Background()
	product := id.New()
	recorder := id.New()

	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.Restock(ctx, recorder, "production_order", time.Now(), []Adjustment{
		{ProductID: product, Quantity: types.NewQuantityFromFloat64(7)},
	})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromFloat64(7), repo.balances[product])
	require.Len(t, repo.movements, 1)
	assert.Equal(t, RecordTypeReceipt, repo.movements[0].RecordType)
}

func TestGetAvailability(t *testing.T) {
	ctx := context.Background()
	product := id.New()

	repo := newFakeRepo()
	svc := NewService(repo)

	qty, err := svc.GetAvailability(ctx, product)
	require.NoError(t, err)
	assert.True(t, qty.IsZero())

	repo.balances[product] = types.NewQuantityFromFloat64(3)
	qty, err = svc.GetAvailability(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(3), qty)
}
