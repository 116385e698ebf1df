package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
)

// TokenTypeAccess is the only token type issued to admins.
const TokenTypeAccess = "access"

// Claims is the identity carried by a validated token.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

// NewTokenService returns a TokenService signing HS256 tokens with secret.
func NewTokenService(secret string, ttl time.Duration, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secretKey: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Generate issues an access token for the given subject.
func (s *TokenService) Generate(subject, email, role string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"role":  role,
		"typ":   TokenTypeAccess,
		"jti":   uuid.NewString(),
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenStr and checks signature, expiry and token type.
// Failures are reported as apperrors.ErrInvalidToken or ErrTokenExpired.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperrors.ErrTokenExpired.Wrap(err)
		}
		return nil, apperrors.ErrInvalidToken.Wrap(err)
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrInvalidToken.WithMessage("Invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != TokenTypeAccess {
		return nil, apperrors.ErrInvalidToken.WithMessage("Invalid token type")
	}

	out := &Claims{}
	out.Subject, _ = claims["sub"].(string)
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if out.Subject == "" {
		return nil, apperrors.ErrInvalidToken.WithMessage("Token has no subject")
	}
	return out, nil
}
