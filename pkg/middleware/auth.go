package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "tabletreats/pkg/errors"
	httputil "tabletreats/pkg/http"
	"tabletreats/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const PrincipalKey contextKey = "principal"

// Claims mirrors the tokens minted by the external identity service.
// This service only validates them; it never issues credentials.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate requires a valid bearer token and stores the resulting
// principal in the request context.
func Authenticate(secret []byte, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		principal, err := principalFromHeader(r.Header.Get("Authorization"), secret)
		if err != nil {
			_ = httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalKey, principal)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireRole narrows Authenticate to a single role.
func RequireRole(secret []byte, role string, next httprouter.Handle) httprouter.Handle {
	return Authenticate(secret, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok || principal.Role != role {
			_ = httputil.WriteError(w, apperrors.Forbidden("Insufficient role for this operation"))
			return
		}
		next(w, r, ps)
	})
}

// PrincipalFrom extracts the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(model.Principal)
	return principal, ok
}

func principalFromHeader(header string, secret []byte) (model.Principal, error) {
	if header == "" {
		return model.Principal{}, apperrors.Unauthorized("Missing token")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return model.Principal{}, apperrors.Unauthorized("Invalid token format")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, apperrors.Unauthorized("Invalid token")
	}
	if claims.Email == "" {
		return model.Principal{}, apperrors.Unauthorized("Token missing principal email")
	}

	return model.Principal{Email: claims.Email, Role: claims.Role}, nil
}
