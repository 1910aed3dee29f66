package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

var (
	ErrEmailTaken         = fmt.Errorf("email is already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
)

// JWTClaims carries the authenticated identity plus the tenant the token
// was issued for. Middleware trusts tenant_id from here and nowhere else.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// AuthService registers users and issues tokens. Registration requires an
// established tenant context; without one it fails before touching storage.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	// ContextFromToken verifies the token and returns a context carrying the
	// tenant identity baked into its claims.
	ContextFromToken(ctx context.Context, tokenString string) (context.Context, *JWTClaims, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    24 * time.Hour,
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}
	role := in.Role
	if role == "" {
		role = types.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var u *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.userRepo.GetByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		u = &types.User{
			ID:       uuid.New(),
			TenantID: &tenantID,
			Email:    email,
			Password: string(hash),
			Name:     strings.TrimSpace(in.Name),
			Role:     role,
			Level:    1,
		}
		return as.userRepo.Create(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("User registered", "user_id", u.ID, "tenant_id", tenantID, "role", role)
	return u, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	u, err := as.userRepo.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := as.generateAccessToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	tenantID := uuid.Nil
	if u.TenantID != nil {
		tenantID = *u.TenantID
	}
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   u.ID,
		TenantID: tenantID,
		Role:     u.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) ContextFromToken(ctx context.Context, tokenString string) (context.Context, *JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return ctx, nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok {
		return ctx, nil, ErrInvalidToken
	}
	if claims.TenantID != uuid.Nil {
		ctx = tenancy.WithTenant(ctx, claims.TenantID)
	}
	return ctx, claims, nil
}
