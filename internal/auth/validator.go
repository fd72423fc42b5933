// Package auth validates bearer tokens issued by the external identity
// service. The engine never issues or refreshes tokens itself.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/scheduler-engine/internal/models"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
	"github.com/noah-isme/scheduler-engine/pkg/config"
)

// TokenValidator verifies HS256 bearer tokens and extracts JWTClaims.
type TokenValidator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenValidator builds a validator from JWT configuration.
func NewTokenValidator(cfg config.JWTConfig) *TokenValidator {
	return &TokenValidator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

type claimsPayload struct {
	Subject       string `json:"sub"`
	InstitutionID string `json:"institution_id"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// Validate parses and verifies a raw bearer token, returning the extracted
// claims. institution_id on the token is always authoritative.
func (v *TokenValidator) Validate(raw string) (models.JWTClaims, error) {
	var payload claimsPayload

	var opts []jwt.ParserOption
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &payload, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrAuth, "unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return models.JWTClaims{}, appErrors.Clone(appErrors.ErrAuth, "invalid or expired token")
	}

	if payload.InstitutionID == "" {
		return models.JWTClaims{}, appErrors.Clone(appErrors.ErrAuth, "token missing institution_id claim")
	}

	return models.JWTClaims{
		Subject:       payload.Subject,
		InstitutionID: payload.InstitutionID,
		Role:          models.Role(payload.Role),
	}, nil
}
