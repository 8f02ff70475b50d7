package service

import (
	"context"
	"testing"

	"healthloop/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_PostsWelcomeEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res, err := env.accounts.Register(ctx, RegisterRequest{Email: " Ana@Example.com ", Name: "Ana"})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", res.Account.Email)
	assert.Equal(t, model.RoleClient, res.Account.Role)
	assert.Equal(t, int64(150), res.Welcome.Points)
	assert.Equal(t, model.ActionWelcome, res.Welcome.ActionCode)
	assert.Equal(t, int64(0), res.Welcome.PointsBefore)
	assert.Equal(t, int64(150), res.Welcome.PointsAfter)

	balance, err := env.ledger.Balance(ctx, res.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance.Points)
	assert.Equal(t, int64(150), balance.TotalPointsEarned)
	assert.Equal(t, "Beginner", balance.Level)
	assert.Equal(t, 30.0, balance.ProgressPercentage)
	assert.Equal(t, "Active", balance.NextLevel)
	assert.Equal(t, int64(500), balance.NextThreshold)
	assert.False(t, balance.MaxLevel)

	history, err := env.ledger.History(ctx, res.Account.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ActionWelcome, history[0].ClaimKey)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.register(t, "ana", model.RoleClient)

	_, err := env.accounts.Register(ctx, RegisterRequest{Email: "ANA@example.com", Name: "Other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.accounts.Register(ctx, RegisterRequest{Email: "bob@example.com", Name: "Bob", Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = env.accounts.Register(ctx, RegisterRequest{Email: "not-an-email", Name: "Bob"})
	assert.Error(t, err)

	_, err = env.accounts.Register(ctx, RegisterRequest{Email: "bob@example.com", Name: "  "})
	assert.Error(t, err)
}

func TestPost_RejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	for _, points := range []int64{0, -5} {
		_, err := env.ledger.Post(ctx, acc.ID, "manual", points, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	balance, err := env.ledger.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance.Points)
	assert.Equal(t, int64(1), env.entryCount(t, acc.ID))
}

func TestPost_UnknownAccount(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.ledger.Post(context.Background(), "missing", "manual", 10, "")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = env.ledger.Balance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = env.ledger.History(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPost_UpdatesBalanceLevelAndHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	for _, points := range []int64{100, 250} {
		_, err := env.ledger.Post(ctx, acc.ID, "manual", points, "ajuste")
		require.NoError(t, err)
	}

	balance, err := env.ledger.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.TotalPointsEarned)
	assert.Equal(t, "Active", balance.Level)
	assert.Equal(t, 0.0, balance.ProgressPercentage)
	assert.Equal(t, "Premium", balance.NextLevel)

	history, err := env.ledger.History(ctx, acc.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(250), history[0].Points)
	assert.Equal(t, int64(250), history[0].PointsBefore)
	assert.Equal(t, int64(500), history[0].PointsAfter)
	assert.Equal(t, int64(100), history[1].Points)

	ok, err := env.ledger.Reconcile(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPost_WritesOutboxEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	acc := env.register(t, "ana", model.RoleClient)

	var msgs []model.OutboxMessage
	require.NoError(t, env.db.Where("message_key = ?", acc.ID).Find(&msgs).Error)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.EventPointsAwarded, msgs[0].EventType)
	assert.Equal(t, env.cfg.Kafka.Topic.PointsAwarded, msgs[0].Topic)
	assert.Contains(t, msgs[0].Payload, `"action":"welcome"`)
}

func TestBalanceOf_TopLevel(t *testing.T) {
	b := BalanceOf(&model.Account{ID: "a", Points: 100, TotalPointsEarned: 7000})
	assert.Equal(t, "Elite", b.Level)
	assert.True(t, b.MaxLevel)
	assert.Equal(t, 100.0, b.ProgressPercentage)
	assert.Empty(t, b.NextLevel)
}
