package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/internship-api/internal/models"
	"github.com/noah-isme/internship-api/pkg/config"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
)

// PrincipalResolver verifies access tokens issued by the identity service.
type PrincipalResolver struct {
	secret []byte
	issuer string
}

// NewPrincipalResolver constructs a resolver for HS256 tokens.
func NewPrincipalResolver(cfg config.JWTConfig) *PrincipalResolver {
	return &PrincipalResolver{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// ValidateToken parses and verifies a token, returning its claims.
func (r *PrincipalResolver) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has no subject")
	}
	switch claims.Role {
	case models.RoleStudent, models.RoleCompany, models.RoleAdmin:
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has an unknown role")
	}

	return claims, nil
}
