package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wlzhg/lingua_go_server/internal/model"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/repository"
	"github.com/wlzhg/lingua_go_server/internal/testutil"
)

func setupUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestDB(t, db)
	})

	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewActivityRepository(db),
	)
	return svc, db
}

func TestGetProfile(t *testing.T) {
	svc, db := setupUserService(t)

	user := testutil.TestUser(t, db, testutil.WithPoints(80))

	profile, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, profile.Username)
	assert.Equal(t, 80, profile.Points)
	assert.Equal(t, "zh", profile.NativeLang)

	_, err = svc.GetProfile(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_PartialFields(t *testing.T) {
	svc, db := setupUserService(t)

	user := testutil.TestUser(t, db)

	bio := "Learning English for work"
	targetLang := "ja"
	err := svc.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Bio:        &bio,
		TargetLang: &targetLang,
	})
	require.NoError(t, err)

	fresh := &model.User{}
	require.NoError(t, db.First(fresh, user.ID).Error)
	assert.Equal(t, bio, fresh.Bio)
	assert.Equal(t, "ja", fresh.TargetLang)
	// 未提交的字段保持不变
	assert.Equal(t, "zh", fresh.NativeLang)
}

func TestUpdateProfile_NoFields(t *testing.T) {
	svc, db := setupUserService(t)

	user := testutil.TestUser(t, db)
	assert.NoError(t, svc.UpdateProfile(user.ID, &dto.UpdateProfileRequest{}))
}

func TestGetSubscription(t *testing.T) {
	svc, db := setupUserService(t)

	user := testutil.TestUser(t, db)

	// 没有订阅返回 nil, nil
	info, err := svc.GetSubscription(user.ID)
	require.NoError(t, err)
	assert.Nil(t, info)

	testutil.TestSubscription(t, db, user.ID, model.PlanYearly, model.SubscriptionStatusActive)

	info, err = svc.GetSubscription(user.ID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, model.PlanYearly, info.Plan)
	assert.Equal(t, TierPremium, info.PlanTier)
	assert.NotEmpty(t, info.CurrentPeriodEnd)
}

func TestListActivities(t *testing.T) {
	svc, db := setupUserService(t)

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	activityRepo := repository.NewActivityRepository(db)
	require.NoError(t, activityRepo.Create(&model.Activity{
		UserID:  user.ID,
		Type:    model.ActivityTypeSessionBooked,
		Content: "预约了课程 English Speaking Club",
	}))
	require.NoError(t, activityRepo.Create(&model.Activity{
		UserID:  other.ID,
		Type:    model.ActivityTypeSessionBooked,
		Content: "预约了课程 Weekly Grammar",
	}))

	activities, err := svc.ListActivities(user.ID, 20)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActivityTypeSessionBooked, activities[0].Type)
}
