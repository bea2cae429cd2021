package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/testutil"
)

func TestSubscriptionRepository_GetActiveByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	t.Run("active subscription", func(t *testing.T) {
		user := testutil.TestUser(t, db)
		testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusActive)

		sub, err := repo.GetActiveByUserID(user.ID)
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	})

	t.Run("trialing counts as active", func(t *testing.T) {
		user := testutil.TestUser(t, db)
		testutil.TestSubscription(t, db, user.ID, model.PlanStandard, model.SubscriptionStatusTrialing)

		sub, err := repo.GetActiveByUserID(user.ID)
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, model.SubscriptionStatusTrialing, sub.Status)
	})

	t.Run("canceled is ignored", func(t *testing.T) {
		user := testutil.TestUser(t, db)
		testutil.TestSubscription(t, db, user.ID, model.PlanPremium, model.SubscriptionStatusCanceled)

		sub, err := repo.GetActiveByUserID(user.ID)
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("no subscription returns nil nil", func(t *testing.T) {
		user := testutil.TestUser(t, db)

		sub, err := repo.GetActiveByUserID(user.ID)
		require.NoError(t, err)
		assert.Nil(t, sub)
	})
}

func TestSubscriptionRepository_Cancel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, model.PlanMonthly, model.SubscriptionStatusActive)

	periodEnd := time.Now().AddDate(0, 0, 14)
	require.NoError(t, repo.Cancel(user.ID, periodEnd))

	sub, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.WithinDuration(t, periodEnd, *sub.CurrentPeriodEnd, time.Second)
}

func TestSubscription_IsPremiumTier(t *testing.T) {
	cases := map[string]bool{
		model.PlanPremium:  true,
		model.PlanMonthly:  true,
		model.PlanYearly:   true,
		model.PlanStandard: false,
		model.PlanOneTime:  false,
	}
	for plan, want := range cases {
		sub := &model.Subscription{Plan: plan}
		assert.Equal(t, want, sub.IsPremiumTier(), "plan %s", plan)
	}
}
