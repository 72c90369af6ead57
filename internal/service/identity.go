package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibb-lab/vibb-server/config"
	"github.com/vibb-lab/vibb-server/internal/model"
	"github.com/vibb-lab/vibb-server/internal/repository"
	"github.com/vibb-lab/vibb-server/pkg/apperr"
	"github.com/vibb-lab/vibb-server/pkg/logger"
)

// 邀请码字母表：去掉易混淆字符的高熵集合
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const referralCodeLen = 8

var usernamePattern = regexp.MustCompile(`[^a-z0-9_]`)

// RegisterInput 注册入参
type RegisterInput struct {
	Email        string
	Password     string
	Username     string
	DisplayName  string
	ReferralCode string
}

// IdentityService 身份目录：用户名与邀请码唯一性的归属方
type IdentityService interface {
	// ReserveUsername 可用性查询；真正的占用以插入时唯一索引裁决
	ReserveUsername(ctx context.Context, candidate string) (available bool, normalized string, err error)
	ResolveByReferralCode(ctx context.Context, code string) (*model.User, error)
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	CompleteOnboarding(ctx context.Context, userID string, tools []string) error
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error)
	GetProfile(ctx context.Context, username string) (*model.User, error)
	ParseToken(token string) (string, error)
}

type identityService struct {
	userRepo  repository.UserRepository
	registrar *Registrar
	jwtCfg    config.JWTConfig
}

func NewIdentityService(userRepo repository.UserRepository, registrar *Registrar, jwtCfg config.JWTConfig) IdentityService {
	return &identityService{userRepo: userRepo, registrar: registrar, jwtCfg: jwtCfg}
}

// NormalizeUsername 统一到小写字母、数字、下划线；大小写不同视为同名
func NormalizeUsername(candidate string) string {
	return usernamePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(candidate)), "")
}

func (s *identityService) ReserveUsername(ctx context.Context, candidate string) (bool, string, error) {
	normalized := NormalizeUsername(candidate)
	if len(normalized) < 2 {
		return false, normalized, apperr.InvalidRelation("username must be at least 2 characters of a-z, 0-9, _")
	}
	exists, err := s.userRepo.UsernameExists(ctx, normalized)
	if err != nil {
		return false, normalized, err
	}
	return !exists, normalized, nil
}

func (s *identityService) ResolveByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return s.userRepo.GetByReferralCode(ctx, strings.TrimSpace(code))
}

// Register 创建账号并兑换邀请码（兑换静默，不阻塞注册）
func (s *identityService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	available, username, err := s.ReserveUsername(ctx, in.Username)
	if err != nil {
		return nil, "", err
	}
	if !available {
		return nil, "", apperr.Conflict("username already taken")
	}
	if len(in.Password) < 8 {
		return nil, "", apperr.InvalidRelation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	code, err := generateReferralCode()
	if err != nil {
		return nil, "", err
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Password:     string(hash),
		DisplayName:  displayName,
		ReferralCode: code,
	}
	// 并发同名注册由唯一索引裁决，恰好一个赢家
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	// 账号已落库：兑换失败只记日志，不能让注册对外报失败
	if err := s.registrar.Redeem(ctx, user.ID, in.ReferralCode); err != nil {
		logger.Warn("referral redeem failed",
			zap.String("user", user.ID), zap.Error(err))
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *identityService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, "", apperr.Unauthorized("invalid credentials")
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}
	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *identityService) CompleteOnboarding(ctx context.Context, userID string, tools []string) error {
	return s.userRepo.UpdateOnboarding(ctx, userID, tools, true)
}

// UpdateProfileInput 资料更新入参；nil 字段保持不变
type UpdateProfileInput struct {
	Username    *string
	DisplayName *string
	Bio         *string
	WebsiteURL  *string
	AvatarURL   *string
}

// UpdateProfile 局部更新本人资料；改名走与注册相同的归一化，
// 占用冲突由唯一索引裁决并映射为 Conflict
func (s *identityService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	updates := map[string]any{}
	if in.Username != nil {
		normalized := NormalizeUsername(*in.Username)
		if len(normalized) < 2 {
			return nil, apperr.InvalidRelation("username must be at least 2 characters of a-z, 0-9, _")
		}
		updates["username"] = normalized
	}
	if in.DisplayName != nil {
		displayName := strings.TrimSpace(*in.DisplayName)
		if displayName == "" {
			return nil, apperr.InvalidRelation("display name cannot be blank")
		}
		updates["display_name"] = displayName
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.WebsiteURL != nil {
		updates["website_url"] = strings.TrimSpace(*in.WebsiteURL)
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *identityService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.GetByUsername(ctx, NormalizeUsername(username))
}

func (s *identityService) issueToken(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtCfg.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
}

// ParseToken 解出已认证的 actorID；核心层不读任何环境态身份
func (s *identityService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", apperr.Unauthorized("invalid token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperr.Unauthorized("invalid token")
	}
	return claims.Subject, nil
}

// generateReferralCode 全局唯一由列上唯一索引兜底；碰撞概率可忽略
func generateReferralCode() (string, error) {
	buf := make([]byte, referralCodeLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = referralAlphabet[n.Int64()]
	}
	return string(buf), nil
}
