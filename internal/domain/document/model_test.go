package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind   Kind
		status Status
	}{
		{KindSale, StatusDraft},
		{KindServiceOrder, StatusOpen},
		{KindQuote, StatusOpen},
		{KindProductionOrder, StatusPlanned},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			doc := New(tt.kind)
			assert.Equal(t, tt.status, doc.Status)
			assert.False(t, id.IsNil(doc.ID))
			assert.True(t, doc.Total.IsZero())
			assert.Empty(t, doc.Lines)
		})
	}
}

func TestRecalculateTotals(t *testing.T) {
	t.Run("discount subtracted from line subtotals", func(t *testing.T) {
		doc := New(KindSale)
		doc.AddLine(nil, "item a", types.NewQuantityFromFloat64(2), types.MustMoney("10.00"))
		doc.AddLine(nil, "item b", types.NewQuantityFromFloat64(1), types.MustMoney("5.00"))
		doc.Discount = types.MustMoney("3.00")
		doc.RecalculateTotals()

		assert.True(t, doc.LinesSubtotal().Equal(types.MustMoney("25.00")))
		assert.True(t, doc.Total.Equal(types.MustMoney("22.00")))
	})

	t.Run("total never negative", func(t *testing.T) {
		doc := New(KindSale)
		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("5.00"))
		doc.Discount = types.MustMoney("10.00")
		doc.RecalculateTotals()

		assert.True(t, doc.Total.IsZero())
	})

	t.Run("fractional quantities are exact", func(t *testing.T) {
		doc := New(KindSale)
		doc.AddLine(nil, "bulk", types.NewQuantityFromFloat64(2.5), types.MustMoney("3.10"))
		doc.RecalculateTotals()

		assert.True(t, doc.Total.Equal(types.MustMoney("7.75")))
	})

	t.Run("line numbers and subtotals normalized", func(t *testing.T) {
		doc := New(KindQuote)
		doc.ReplaceLines([]Line{
			{Description: "a", Quantity: types.NewQuantityFromFloat64(1), UnitPrice: types.MustMoney("2.00"), Subtotal: types.MustMoney("99.00")},
			{Description: "b", Quantity: types.NewQuantityFromFloat64(3), UnitPrice: types.MustMoney("1.00")},
		})

		require.Len(t, doc.Lines, 2)
		assert.Equal(t, 1, doc.Lines[0].LineNo)
		assert.Equal(t, 2, doc.Lines[1].LineNo)
		assert.True(t, doc.Lines[0].Subtotal.Equal(types.MustMoney("2.00")))
		assert.True(t, doc.Total.Equal(types.MustMoney("5.00")))
	})
}

func TestIsCashSale(t *testing.T) {
	sale := New(KindSale)
	sale.PaymentMethod = PaymentCash
	assert.True(t, sale.IsCashSale())

	sale.PaymentMethod = PaymentCard
	assert.False(t, sale.IsCashSale())

	order := New(KindServiceOrder)
	order.PaymentMethod = PaymentCash
	assert.False(t, order.IsCashSale())
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid sale", func(t *testing.T) {
		doc := New(KindSale)
		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		require.NoError(t, doc.Validate(ctx))
	})

	t.Run("unknown kind", func(t *testing.T) {
		doc := New("invoice")
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("negative discount", func(t *testing.T) {
		doc := New(KindSale)
		doc.Discount = types.MustMoney("-1.00")
		require.Error(t, doc.Validate(ctx))
	})

	t.Run("discount exceeding subtotal", func(t *testing.T) {
		doc := New(KindSale)
		doc.AddLine(nil, "item", types.NewQuantityFromFloat64(1), types.MustMoney("10.00"))
		doc.Discount = types.MustMoney("10.01")

		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidDiscount))
	})

	t.Run("discount on a draft without lines", func(t *testing.T) {
		// Nothing is priced yet; the subtotal check waits for lines.
		doc := New(KindSale)
		doc.Discount = types.MustMoney("5.00")
		require.NoError(t, doc.Validate(ctx))
	})

	t.Run("zero quantity line", func(t *testing.T) {
		doc := New(KindSale)
		doc.Lines = []Line{{Description: "x", Quantity: 0, UnitPrice: types.MustMoney("1.00")}}
		require.Error(t, doc.Validate(ctx))
	})

	t.Run("negative unit price", func(t *testing.T) {
		doc := New(KindSale)
		doc.Lines = []Line{{Description: "x", Quantity: types.NewQuantityFromFloat64(1), UnitPrice: types.MustMoney("-1.00")}}
		require.Error(t, doc.Validate(ctx))
	})

	t.Run("production order requires output", func(t *testing.T) {
		doc := New(KindProductionOrder)
		doc.AddLine(nil, "material", types.NewQuantityFromFloat64(1), types.MustMoney("1.00"))
		require.Error(t, doc.Validate(ctx))

		output := id.New()
		doc.OutputProductID = &output
		doc.OutputQuantity = types.NewQuantityFromFloat64(1)
		require.NoError(t, doc.Validate(ctx))
	})
}
