package cashsession

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commercia/internal/core/apperror"
	"commercia/internal/core/id"
	"commercia/internal/core/types"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	sessions map[id.ID]*Session
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[id.ID]*Session)}
}

func (r *fakeRepo) Create(_ context.Context, session *Session) error {
	for _, s := range r.sessions {
		if s.RegisterID == session.RegisterID && s.IsOpen() {
			return apperror.NewSessionAlreadyOpen(session.RegisterID)
		}
	}
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeRepo) Update(_ context.Context, session *Session) error {
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, sessionID id.ID) (*Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("cash session", sessionID.String())
	}
	clone := *s
	return &clone, nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, sessionID id.ID) (*Session, error) {
	return r.GetByID(ctx, sessionID)
}

func (r *fakeRepo) GetOpenByRegister(_ context.Context, registerID string) (*Session, error) {
	for _, s := range r.sessions {
		if s.RegisterID == registerID && s.IsOpen() {
			clone := *s
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("cash session", registerID)
}

func (r *fakeRepo) AddCashSale(_ context.Context, registerID string, amount types.Money) (bool, error) {
	for _, s := range r.sessions {
		if s.RegisterID == registerID && s.IsOpen() {
			s.CashSalesTotal = s.CashSalesTotal.Add(amount)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) List(_ context.Context, filter ListFilter) ([]Session, error) {
	var out []Session
	for _, s := range r.sessions {
		if filter.RegisterID != "" && s.RegisterID != filter.RegisterID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, fakeTxManager{}), repo
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	user := id.New()

	t.Run("opens a session", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)

		assert.Equal(t, StatusOpen, session.Status)
		assert.Equal(t, "caja-1", session.RegisterID)
		assert.True(t, session.CashSalesTotal.IsZero())
		assert.False(t, session.OpenedAt.IsZero())
	})

	t.Run("second open on same register fails", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)

		_, err = svc.Open(ctx, "caja-1", types.MustMoney("50.00"), user)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeSessionAlreadyOpen))
	})

	t.Run("different register is independent", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)

		_, err = svc.Open(ctx, "caja-2", types.MustMoney("80.00"), user)
		require.NoError(t, err)
	})

	t.Run("negative opening balance rejected", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Open(ctx, "caja-1", types.MustMoney("-1.00"), user)
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}

func TestRecordCashSale(t *testing.T) {
	ctx := context.Background()
	user := id.New()

	t.Run("accumulates sale totals", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)

		require.NoError(t, svc.RecordCashSale(ctx, "caja-1", types.MustMoney("45.00")))
		require.NoError(t, svc.RecordCashSale(ctx, "caja-1", types.MustMoney("30.00")))

		got, err := svc.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, got.CashSalesTotal.Equal(types.MustMoney("75.00")))
	})

	t.Run("no open session fails", func(t *testing.T) {
		svc, _ := newTestService()

		err := svc.RecordCashSale(ctx, "caja-1", types.MustMoney("10.00"))
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeSessionNotOpen))
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	user := id.New()

	t.Run("computes expected amount and discrepancy", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)
		require.NoError(t, svc.RecordCashSale(ctx, "caja-1", types.MustMoney("45.00")))
		require.NoError(t, svc.RecordCashSale(ctx, "caja-1", types.MustMoney("30.00")))

		closed, err := svc.Close(ctx, session.ID, types.MustMoney("170.00"), user, "turno tarde")
		require.NoError(t, err)

		assert.Equal(t, StatusClosed, closed.Status)
		require.NotNil(t, closed.ExpectedAmount)
		require.NotNil(t, closed.Discrepancy)
		assert.True(t, closed.ExpectedAmount.Equal(types.MustMoney("175.00")))
		assert.True(t, closed.Discrepancy.Equal(types.MustMoney("-5.00")))
		assert.NotNil(t, closed.ClosedAt)
	})

	t.Run("exact count yields zero discrepancy", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("50.00"), user)
		require.NoError(t, err)
		require.NoError(t, svc.RecordCashSale(ctx, "caja-1", types.MustMoney("22.00")))

		closed, err := svc.Close(ctx, session.ID, types.MustMoney("72.00"), user, "")
		require.NoError(t, err)
		assert.True(t, closed.Discrepancy.IsZero())
	})

	t.Run("closing twice fails", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)

		_, err = svc.Close(ctx, session.ID, types.MustMoney("100.00"), user, "")
		require.NoError(t, err)

		_, err = svc.Close(ctx, session.ID, types.MustMoney("100.00"), user, "")
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeSessionNotOpen))
	})

	t.Run("register reopens after close", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)

		_, err = svc.Close(ctx, session.ID, types.MustMoney("100.00"), user, "")
		require.NoError(t, err)

		_, err = svc.Open(ctx, "caja-1", types.MustMoney("60.00"), user)
		require.NoError(t, err)
	})

	t.Run("sale after close fails", func(t *testing.T) {
		svc, _ := newTestService()

		session, err := svc.Open(ctx, "caja-1", types.MustMoney("100.00"), user)
		require.NoError(t, err)
		_, err = svc.Close(ctx, session.ID, types.MustMoney("100.00"), user, "")
		require.NoError(t, err)

		err = svc.RecordCashSale(ctx, "caja-1", types.MustMoney("10.00"))
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeSessionNotOpen))
	})
}
