package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/mamadbah2/assetdesk/pkg/clients/supabase"
)

// authenticatedRole is the database role Supabase maps signed-in users to.
const authenticatedRole = "authenticated"

// ErrNoUserToken is returned by user repositories called without an access
// token in the context.
var ErrNoUserToken = errors.New("postgres: no user access token in context")

type userClaims struct {
	raw     string
	subject string
}

// claimsFromContext decodes the access token stored in ctx. The signature is
// not checked here; the session gate has already validated the token with
// the auth service.
func claimsFromContext(ctx context.Context) (userClaims, error) {
	token, ok := supabase.AccessTokenFromContext(ctx)
	if !ok {
		return userClaims{}, ErrNoUserToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return userClaims{}, fmt.Errorf("decode access token: %w", err)
	}

	if role, _ := claims["role"].(string); role != authenticatedRole {
		return userClaims{}, fmt.Errorf("access token role %q is not %s", role, authenticatedRole)
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return userClaims{}, errors.New("access token has no subject")
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return userClaims{}, fmt.Errorf("encode claims: %w", err)
	}
	return userClaims{raw: string(raw), subject: subject}, nil
}
