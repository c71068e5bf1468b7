package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/school"
)

const (
	// tokenCookieName carries the signed JWT; HttpOnly, cleared on logout.
	tokenCookieName = "token"
	loginPagePath   = "/login.html"

	tokenContextKey = "schoolToken"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the authenticated school's ID.
type Claims struct {
	jwt.StandardClaims
	SchoolName string `json:"school_name,omitempty"`
}

// newJWTConfig configures the auth guard: the token is read from the
// `token` cookie, never from a header.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		TokenLookup:   "cookie:" + tokenCookieName,
		Claims:        new(Claims),
	}
}

// GetSchoolClaims builds the Claims for a freshly authenticated school.
func GetSchoolClaims(sch school.School, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sch.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		SchoolName: sch.Name,
	}
}

func authenticate(ctx echo.Context, schoolID, pwd string, svc school.ServiceInterface, conf *core.Config) (*Claims, error) {
	sch, err := svc.GetByID(ctx.Request().Context(), schoolID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			// same opaque error whether the school exists or not
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding school by ID")
	}
	if err = sch.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	return GetSchoolClaims(sch, conf), nil
}

// GenerateToken generates a signed JWT token string representing the school Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// ParseToken verifies a raw token string outside the guard (used by /auth/status).
func ParseToken(tokenStr string, conf *core.Config) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func setTokenCookie(ctx echo.Context, token string, maxAge time.Duration) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
