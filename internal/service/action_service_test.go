package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"healthloop/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAward_OneTime(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	entry, err := env.actions.Award(ctx, acc.ID, model.ActionCompleteProfile, "")
	require.NoError(t, err)
	assert.Equal(t, int64(50), entry.Points)

	_, err = env.actions.Award(ctx, acc.ID, model.ActionCompleteProfile, "")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = env.actions.Award(ctx, acc.ID, model.ActionWelcome, "")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	balance, err := env.ledger.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance.Points)
	assert.Equal(t, int64(2), env.entryCount(t, acc.ID))
}

func TestAward_OneTimePerKey(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	_, err := env.actions.Award(ctx, acc.ID, "complete_video:video-1", "")
	require.NoError(t, err)
	entry, err := env.actions.Award(ctx, acc.ID, "complete_video:video-2", "")
	require.NoError(t, err)
	assert.Equal(t, "complete_video:video-2", entry.ClaimKey)
	assert.Equal(t, model.ActionCompleteVideo, entry.ActionCode)

	_, err = env.actions.Award(ctx, acc.ID, "complete_video:video-1", "")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = env.actions.Award(ctx, acc.ID, model.ActionCompleteVideo, "")
	assert.ErrorIs(t, err, ErrInvalidAction)

	balance, err := env.ledger.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.TotalPointsEarned)
}

func TestAward_Unlimited(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	for i := 0; i < 2; i++ {
		_, err := env.actions.Award(ctx, acc.ID, model.ActionReferFriend, "")
		require.NoError(t, err)
	}

	balance, err := env.ledger.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance.Points)
	assert.Equal(t, "Active", balance.Level)
}

func TestAward_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	_, err := env.actions.Award(ctx, acc.ID, "dance", "")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = env.actions.Award(ctx, acc.ID, model.ActionOrderPurchase, "")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = env.actions.Award(ctx, acc.ID, model.ActionCompleteConsultation, "")
	assert.ErrorIs(t, err, ErrNotProfessional)

	_, err = env.actions.Award(ctx, acc.ID, "complete_profile:x", "")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = env.actions.Award(ctx, "missing", model.ActionCompleteProfile, "")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = env.actions.Award(ctx, "missing", model.ActionReferFriend, "")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	assert.Equal(t, int64(1), env.entryCount(t, acc.ID))
}

func TestEnsureAwarded(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	entry, awarded, err := env.actions.EnsureAwarded(ctx, acc.ID, model.ActionScheduleConsultation, "")
	require.NoError(t, err)
	assert.True(t, awarded)
	assert.NotNil(t, entry)

	entry, awarded, err = env.actions.EnsureAwarded(ctx, acc.ID, model.ActionScheduleConsultation, "")
	require.NoError(t, err)
	assert.False(t, awarded)
	assert.Nil(t, entry)
}

func TestAward_ConcurrentOneTimeClaim(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.actions.Award(ctx, acc.ID, "complete_video:video-3", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrAlreadyClaimed):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, int64(2), env.entryCount(t, acc.ID))

	balance, err := env.ledger.Balance(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance.TotalPointsEarned)
}

func TestGrantConsultation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	pro := env.register(t, "doc", model.RoleProfessional)
	client := env.register(t, "ana", model.RoleClient)

	entry, err := env.actions.GrantConsultation(ctx, pro.ID, client.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(200), entry.Points)
	assert.Equal(t, pro.ID, entry.GrantedBy)

	// 不限次数
	_, err = env.actions.GrantConsultation(ctx, pro.ID, client.ID, "seguimiento")
	require.NoError(t, err)

	_, err = env.actions.GrantConsultation(ctx, client.ID, pro.ID, "")
	assert.ErrorIs(t, err, ErrNotProfessional)

	_, err = env.actions.GrantConsultation(ctx, pro.ID, pro.ID, "")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = env.actions.GrantConsultation(ctx, pro.ID, "missing", "")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	balance, err := env.ledger.Balance(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(550), balance.Points)

	dash, err := env.accounts.ProfessionalDashboard(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dash.ConsultationsGranted)
	assert.Len(t, dash.RecentGrants, 2)

	_, err = env.accounts.ProfessionalDashboard(ctx, client.ID)
	assert.ErrorIs(t, err, ErrNotProfessional)
}
