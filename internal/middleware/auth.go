package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"ecoaceite/internal/config"
	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/services"
	"ecoaceite/internal/uuid"
)

const (
	refreshTokenExpiry = 7 * 24 * time.Hour
	tokenIssuer        = "ecoaceite-api"
)

// Context keys set by AuthMiddleware.
const (
	userIDKey        = "userID"
	emailKey         = "email"
	emailVerifiedKey = "emailVerified"
	providerKey      = "authProvider"
	nameKey          = "displayName"
)

// Session providers.
const (
	ProviderLocal = "local"
	ProviderOIDC  = "oidc"
)

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

func accessTokenExpiry() time.Duration {
	if d := config.Get().JWTExpirationDur; d > 0 {
		return d
	}
	return 15 * time.Minute
}

// JWTClaims represents the claims in the JWT. Roles are never embedded:
// they are resolved on every guarded request.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func signToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        uuid.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// GenerateAccessToken generates a short-lived JWT access token for a user.
func GenerateAccessToken(user *models.User) (string, error) {
	return signToken(user, "access", accessTokenExpiry())
}

// GenerateRefreshToken generates a long-lived JWT refresh token for a user.
func GenerateRefreshToken(user *models.User) (string, error) {
	return signToken(user, "refresh", refreshTokenExpiry)
}

func parseLocalToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token JWT.
// Returns the claims if valid, or an error if the token is invalid,
// expired, or not a refresh token.
func ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	claims, err := parseLocalToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}
	if claims.TokenType != "refresh" {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// AuthMiddleware verifies the bearer token and stores the session in the
// context. Local access tokens are tried first; when external is non-nil,
// ID tokens of the OpenID Connect provider are accepted as well.
func AuthMiddleware(external ExternalVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}
		tokenString := parts[1]

		if claims, err := parseLocalToken(tokenString); err == nil {
			// Refresh tokens are not accepted as access tokens.
			if claims.TokenType != "access" {
				abortWithError(c, apperrors.ErrInvalidToken)
				return
			}
			// Local tokens never vouch for the email; the users row does.
			setSession(c, services.Identity{UID: claims.UserID, Email: claims.Email}, "", ProviderLocal)
			c.Next()
			return
		}

		if external == nil {
			abortWithError(c, apperrors.ErrInvalidToken)
			return
		}
		identity, err := external.Verify(c.Request.Context(), tokenString)
		if err != nil {
			abortWithError(c, apperrors.Wrap(apperrors.ErrInvalidToken, err))
			return
		}
		setSession(c, services.Identity{
			UID:           identity.Subject,
			Email:         identity.Email,
			EmailVerified: identity.EmailVerified,
		}, identity.Name, ProviderOIDC)
		c.Next()
	}
}

func setSession(c *gin.Context, id services.Identity, name, provider string) {
	c.Set(userIDKey, id.UID)
	c.Set(emailKey, strings.ToLower(id.Email))
	c.Set(emailVerifiedKey, id.EmailVerified)
	c.Set(nameKey, name)
	c.Set(providerKey, provider)
}

// SessionFromContext returns the session stored by AuthMiddleware.
func SessionFromContext(c *gin.Context) (uid, email, provider string, ok bool) {
	uid = c.GetString(userIDKey)
	if uid == "" {
		return "", "", "", false
	}
	return uid, c.GetString(emailKey), c.GetString(providerKey), true
}

// IdentityFromContext returns the session identity used for role resolution.
func IdentityFromContext(c *gin.Context) (services.Identity, bool) {
	uid, email, _, ok := SessionFromContext(c)
	if !ok {
		return services.Identity{}, false
	}
	return services.Identity{UID: uid, Email: email, EmailVerified: c.GetBool(emailVerifiedKey)}, true
}

// DisplayName returns the name claim of an external ID token, if any.
func DisplayName(c *gin.Context) string {
	return c.GetString(nameKey)
}
