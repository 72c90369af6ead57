package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

// Registrar 邀请登记：referred_by 只从未设置迁移到已设置一次，
// 奖励与归属写在同一事务，二者要么同时发生要么都不发生。
type Registrar struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	bonus    int
}

func NewRegistrar(db *gorm.DB, userRepo repository.UserRepository, bonus int) *Registrar {
	if bonus <= 0 {
		bonus = 10
	}
	return &Registrar{db: db, userRepo: userRepo, bonus: bonus}
}

// Redeem 注册期一次性兑换邀请码。
// 无效码与自引用静默忽略——邀请是加分路径，不阻塞注册；
// referred_by 的 IS NULL 条件保证重试下每个账号至多发放一次奖励。
func (r *Registrar) Redeem(ctx context.Context, newUserID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}

	referrer, err := r.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			logger.Info("referral code not found, ignored", zap.String("code", code))
			return nil
		}
		return err
	}
	if referrer.ID == newUserID {
		logger.Info("self referral ignored", zap.String("user", newUserID))
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ? AND referred_by IS NULL", newUserID).
			Update("referred_by", referrer.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 已兑换过或账号不存在，均不再发奖
			return nil
		}
		return tx.Model(&model.User{}).
			Where("id = ?", referrer.ID).
			Update("vibe_score", gorm.Expr("vibe_score + ?", r.bonus)).Error
	})
}
