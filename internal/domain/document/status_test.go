package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
)

func docIn(kind Kind, status Status) *Document {
	doc := New(kind)
	doc.Status = status
	return doc
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		from Status
		to   Status
		ok   bool
	}{
		{"sale draft to open", KindSale, StatusDraft, StatusOpen, true},
		{"sale draft to canceled", KindSale, StatusDraft, StatusCanceled, true},
		{"sale open to canceled", KindSale, StatusOpen, StatusCanceled, true},
		{"sale canceled is terminal", KindSale, StatusCanceled, StatusOpen, false},
		{"sale cannot jump to completed", KindSale, StatusOpen, StatusCompleted, false},

		{"service order open to in_progress", KindServiceOrder, StatusOpen, StatusInProgress, true},
		{"service order in_progress to waiting", KindServiceOrder, StatusInProgress, StatusWaiting, true},
		{"service order waiting back to in_progress", KindServiceOrder, StatusWaiting, StatusInProgress, true},
		{"service order open to waiting", KindServiceOrder, StatusOpen, StatusWaiting, true},
		{"service order cannot be canceled", KindServiceOrder, StatusOpen, StatusCanceled, false},

		{"quote open to approved", KindQuote, StatusOpen, StatusApproved, true},
		{"quote open to rejected", KindQuote, StatusOpen, StatusRejected, true},
		{"quote rejected is terminal", KindQuote, StatusRejected, StatusApproved, false},
		{"quote cannot reach converted directly", KindQuote, StatusOpen, StatusConverted, false},

		{"production planned to in_production", KindProductionOrder, StatusPlanned, StatusInProduction, true},
		{"production cannot reach completed directly", KindProductionOrder, StatusInProduction, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := docIn(tt.kind, tt.from).CanTransition(tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
			}
		})
	}
}

func TestCanComplete(t *testing.T) {
	assert.NoError(t, docIn(KindSale, StatusDraft).CanComplete())
	assert.NoError(t, docIn(KindSale, StatusOpen).CanComplete())
	assert.Error(t, docIn(KindSale, StatusCanceled).CanComplete())
	assert.Error(t, docIn(KindSale, StatusCompleted).CanComplete())

	assert.NoError(t, docIn(KindServiceOrder, StatusInProgress).CanComplete())
	assert.Error(t, docIn(KindServiceOrder, StatusOpen).CanComplete())
	assert.Error(t, docIn(KindServiceOrder, StatusWaiting).CanComplete())

	assert.NoError(t, docIn(KindProductionOrder, StatusInProduction).CanComplete())
	assert.Error(t, docIn(KindProductionOrder, StatusPlanned).CanComplete())

	// Quotes never complete; they convert.
	assert.Error(t, docIn(KindQuote, StatusOpen).CanComplete())
	assert.Error(t, docIn(KindQuote, StatusApproved).CanComplete())

	// A deletion-marked document never completes, whatever its status.
	marked := docIn(KindSale, StatusOpen)
	marked.DeletionMark = true
	err := marked.CanComplete()
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
}

func TestCanConvert(t *testing.T) {
	t.Run("open and approved quotes convert", func(t *testing.T) {
		assert.NoError(t, docIn(KindQuote, StatusOpen).CanConvert())
		assert.NoError(t, docIn(KindQuote, StatusApproved).CanConvert())
	})

	t.Run("rejected quote is not convertible", func(t *testing.T) {
		err := docIn(KindQuote, StatusRejected).CanConvert()
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeNotConvertible))
	})

	t.Run("converted quote reports target", func(t *testing.T) {
		doc := docIn(KindQuote, StatusConverted)
		target := id.New()
		doc.ConvertedToID = &target

		err := doc.CanConvert()
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeAlreadyConverted, appErr.Code)
		assert.Equal(t, target.String(), appErr.Details["converted_to"])
	})

	t.Run("deletion-marked quote is not convertible", func(t *testing.T) {
		doc := docIn(KindQuote, StatusOpen)
		doc.DeletionMark = true

		err := doc.CanConvert()
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeNotConvertible))
	})

	t.Run("non-quotes are not convertible", func(t *testing.T) {
		err := docIn(KindSale, StatusOpen).CanConvert()
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeNotConvertible))
	})
}

func TestCanCancel(t *testing.T) {
	assert.NoError(t, docIn(KindSale, StatusDraft).CanCancel())
	assert.NoError(t, docIn(KindSale, StatusOpen).CanCancel())
	assert.Error(t, docIn(KindSale, StatusCompleted).CanCancel())
	assert.Error(t, docIn(KindSale, StatusCanceled).CanCancel())
	assert.Error(t, docIn(KindServiceOrder, StatusOpen).CanCancel())
	assert.Error(t, docIn(KindQuote, StatusOpen).CanCancel())
}

func TestCanModify(t *testing.T) {
	assert.NoError(t, docIn(KindSale, StatusDraft).CanModify())
	assert.NoError(t, docIn(KindSale, StatusOpen).CanModify())
	assert.NoError(t, docIn(KindProductionOrder, StatusPlanned).CanModify())

	assert.Error(t, docIn(KindSale, StatusCompleted).CanModify())
	assert.Error(t, docIn(KindQuote, StatusConverted).CanModify())
	assert.Error(t, docIn(KindServiceOrder, StatusInProgress).CanModify())

	// In-production orders still allow line edits.
	doc := docIn(KindProductionOrder, StatusInProduction)
	assert.Error(t, doc.CanModify())
	assert.NoError(t, doc.CanModifyLines())
}

func TestCanDelete(t *testing.T) {
	assert.NoError(t, docIn(KindSale, StatusDraft).CanDelete())
	assert.Error(t, docIn(KindSale, StatusCompleted).CanDelete())
	assert.Error(t, docIn(KindSale, StatusCanceled).CanDelete())
	assert.Error(t, docIn(KindQuote, StatusConverted).CanDelete())
}
