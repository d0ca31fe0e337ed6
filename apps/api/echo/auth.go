package echoapi

import (
	"context"
	"sort"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "registrantToken",
		Claims:        new(Claims),
	}
	contextRegistrantKey = "registrant"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsRegistrant bool     `json:"is_registrant,omitempty"` // -> REGISTRANT PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`      // -> ADMIN DASHBOARD
	IsSuperAdmin bool     `json:"is_super_admin,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

func GetRegistrantClaims(reg registrant.Registrant, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   reg.ID,
			Audience:  "Camp",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     reg.Username,
		Email:        reg.Email,
		IsRegistrant: reg.IsRegistrant(),
		IsAdmin:      reg.IsAdmin(),
		IsSuperAdmin: reg.IsSuperAdmin(),
		Roles:        reg.Roles,
	}
	return claims
}

func authenticate(ctx context.Context, uname, pwd string, svc registrant.Service) (*Claims, error) {
	reg, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == registrant.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding registrant by username or email")
	}
	if err = reg.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if reg.IsActive != nil && !*reg.IsActive {
		return nil, errAccountDeactivated
	}
	reg, err = svc.SetLastLogin(ctx, reg)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetRegistrantClaims(reg), nil
}

// GenerateToken generates a signed JWT token string representing the registrant Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextRegistrant(ctx echo.Context, svc registrant.Service, clms ...Claims) (registrant.Registrant, error) {
	if reg, ok := ctx.Get(contextRegistrantKey).(registrant.Registrant); ok {
		return reg, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return registrant.Registrant{}, errors.Wrap(err, "getting context claims")
		}
	}

	reg, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return registrant.Registrant{}, errors.Wrap(err, "finding registrant by ID")
	}
	ctx.Set(contextRegistrantKey, reg)
	return reg, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}

func refreshToken(ctx echo.Context, svc registrant.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	reg, err := getContextRegistrant(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context registrant")
	}

	// check if registrant is still active
	if reg.IsActive != nil && !*reg.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetRegistrantClaims(reg, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
