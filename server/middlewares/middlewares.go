package middlewares

import (
	"net/http"
	"os"
	"strings"

	"github.com/Luismorlan/microblog/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// ContextKeySub is where Auth stores the verified subject (user id).
	ContextKeySub = "sub"
	// ContextKeyEmail is where Auth stores the token's email claim, if any.
	ContextKeyEmail = "email"

	ErrorTokenAuthFail = "token_auth_fail"
)

var (
	// jwtSecret is the HMAC key used to verify bearer tokens. Token issuance
	// belongs to the identity provider; this service only verifies.
	jwtSecret []byte
)

// Setup initializes all package scoped variables that are needed to perform
// middleware functionalities. This function must be called before any
// middleware is used.
func Setup() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Abort directly if the secret isn't configured, which is crucial for
		// server side authorization.
		log.Log.Fatal("JWT_SECRET is not set, refusing to start without auth")
	}
	SetSecret([]byte(secret))
}

// SetSecret overrides the verification key, used by Setup and by tests.
func SetSecret(secret []byte) {
	jwtSecret = secret
}

// Auth fetches the bearer token from the Authorization header (falling back
// to the "token" query parameter), verifies it and stores the subject and
// email claims in the request context. It aborts with 401 on a missing or
// invalid token.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		sub, email, err := verify(token)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		c.Set(ContextKeySub, sub)
		c.Set(ContextKeyEmail, email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func verify(token string) (sub, email string, err error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return "", "", errors.Wrap(err, "invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("unexpected claims format")
	}
	sub, _ = claims["sub"].(string)
	if sub == "" {
		return "", "", errors.New("token has no subject")
	}
	email, _ = claims["email"].(string)
	return sub, email, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code": ErrorTokenAuthFail,
		"msg":  msg,
	})
	c.Abort()
}
