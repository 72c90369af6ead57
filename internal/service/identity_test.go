package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/config"
	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
)

func newIdentity(t *testing.T) (IdentityService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	registrar := NewRegistrar(db, userRepo, 10)
	svc := NewIdentityService(userRepo, registrar, config.JWTConfig{Secret: "test-secret", TTL: time.Hour})
	return svc, db
}

func TestNormalizeUsername(t *testing.T) {
	cases := map[string]string{
		"Maker":     "maker",
		"  MAKER  ": "maker",
		"ma-ker!":   "maker",
		"ma_ker_99": "ma_ker_99",
		"Ma Ker":    "maker",
		"___":       "___",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeUsername(in), "input %q", in)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newIdentity(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterInput{
		Email:    "Maker@Example.com",
		Password: "hunter2hunter2",
		Username: "Maker",
	})
	require.NoError(t, err)
	require.Equal(t, "maker", user.Username)
	require.Equal(t, "maker@example.com", user.Email)
	require.Len(t, user.ReferralCode, 8)
	require.NotEmpty(t, token)

	actorID, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, actorID)

	_, _, err = svc.Login(ctx, "maker@example.com", "wrong-password")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))

	got, token, err := svc.Login(ctx, "maker@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, token)
}

func TestUsernameCaseInsensitiveUniqueness(t *testing.T) {
	svc, _ := newIdentity(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{
		Email: "a@example.com", Password: "hunter2hunter2", Username: "Maker",
	})
	require.NoError(t, err)

	available, normalized, err := svc.ReserveUsername(ctx, "MAKER")
	require.NoError(t, err)
	require.False(t, available)
	require.Equal(t, "maker", normalized)

	_, _, err = svc.Register(ctx, RegisterInput{
		Email: "b@example.com", Password: "hunter2hunter2", Username: "mAkEr",
	})
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestReserveUsernameTooShort(t *testing.T) {
	svc, _ := newIdentity(t)

	_, _, err := svc.ReserveUsername(context.Background(), "x")
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	// 归一化后为空也算太短
	_, _, err = svc.ReserveUsername(context.Background(), "!!")
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))
}

func TestRegisterWithReferral(t *testing.T) {
	svc, db := newIdentity(t)
	ctx := context.Background()

	referrer, _, err := svc.Register(ctx, RegisterInput{
		Email: "ref@example.com", Password: "hunter2hunter2", Username: "referrer",
	})
	require.NoError(t, err)

	newbie, _, err := svc.Register(ctx, RegisterInput{
		Email: "new@example.com", Password: "hunter2hunter2", Username: "newbie",
		ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)

	var got model.User
	require.NoError(t, db.First(&got, "id = ?", newbie.ID).Error)
	require.NotNil(t, got.ReferredBy)
	require.Equal(t, referrer.ID, *got.ReferredBy)

	require.NoError(t, db.First(&got, "id = ?", referrer.ID).Error)
	require.Equal(t, 10, got.VibeScore)
}

func TestRegisterBadReferralStillSucceeds(t *testing.T) {
	svc, _ := newIdentity(t)

	user, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "new@example.com", Password: "hunter2hunter2", Username: "newbie",
		ReferralCode: "BOGUS999",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
}

// 兑换环节的存储故障不能让已落库的注册对外报失败
func TestRegisterSurvivesRedeemStoreError(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)

	brokenDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := brokenDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	registrar := NewRegistrar(brokenDB, repository.NewUserRepository(brokenDB), 10)
	svc := NewIdentityService(userRepo, registrar, config.JWTConfig{Secret: "test-secret", TTL: time.Hour})

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email: "new@example.com", Password: "hunter2hunter2", Username: "newbie",
		ReferralCode: "SOMECODE",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var got model.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	require.Nil(t, got.ReferredBy)
}

func TestUpdateProfileFields(t *testing.T) {
	svc, db := newIdentity(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{
		Email: "a@example.com", Password: "hunter2hunter2", Username: "maker",
	})
	require.NoError(t, err)

	bio := "building in public"
	site := "https://maker.dev"
	name := "  Maker One  "
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		DisplayName: &name,
		Bio:         &bio,
		WebsiteURL:  &site,
	})
	require.NoError(t, err)
	require.Equal(t, "Maker One", updated.DisplayName)
	require.Equal(t, bio, updated.Bio)
	require.Equal(t, site, updated.WebsiteURL)
	// 未出现的字段保持不变
	require.Equal(t, "maker", updated.Username)

	var got model.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	require.Equal(t, "Maker One", got.DisplayName)
	require.Equal(t, bio, got.Bio)
}

func TestUpdateProfileUsernameNormalizedAndUnique(t *testing.T) {
	svc, _ := newIdentity(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{
		Email: "a@example.com", Password: "hunter2hunter2", Username: "taken",
	})
	require.NoError(t, err)
	user, _, err := svc.Register(ctx, RegisterInput{
		Email: "b@example.com", Password: "hunter2hunter2", Username: "maker",
	})
	require.NoError(t, err)

	// 改名走注册同款归一化
	candidate := "New-Name!"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Username: &candidate})
	require.NoError(t, err)
	require.Equal(t, "newname", updated.Username)

	// 大小写不同仍视为占用
	taken := "TAKEN"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Username: &taken})
	require.True(t, apperr.Is(err, apperr.KindConflict))

	// 归一化后太短拒绝
	short := "x!"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Username: &short})
	require.True(t, apperr.Is(err, apperr.KindInvalidRelation))

	// 改回自己当前的名字幂等成功
	self := "NewName"
	updated, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Username: &self})
	require.NoError(t, err)
	require.Equal(t, "newname", updated.Username)
}

func TestCompleteOnboarding(t *testing.T) {
	svc, db := newIdentity(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{
		Email: "a@example.com", Password: "hunter2hunter2", Username: "maker",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteOnboarding(ctx, user.ID, []string{"cursor", "claude"}))

	var got model.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	require.True(t, got.OnboardingCompleted)
	require.Equal(t, []string{"cursor", "claude"}, got.SelectedTools)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newIdentity(t)

	_, err := svc.ParseToken("not-a-token")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
