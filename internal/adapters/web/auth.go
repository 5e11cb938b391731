package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stockbook/internal/core"
)

const (
	authCookie   = "auth_token"
	stepUpCookie = "stepup_token"

	sessionTTL = 12 * time.Hour
	stepUpTTL  = 10 * time.Minute
)

type authClaimsKey struct{}

// AuthClaims holds the authenticated user's identity extracted from the JWT.
type AuthClaims struct {
	Username string
	Role     core.Role
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing. Scope is
// "session" for the login token and "stepup" for the short-lived elevation
// token.
type jwtClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

func (h *Handler) signToken(username string, role core.Role, scope string, ttl time.Duration) (string, error) {
	claims := &jwtClaims{
		Username: username,
		Role:     string(role),
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

func (h *Handler) parseToken(raw string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// RequireAuth is chi middleware that validates the auth_token cookie and
// injects AuthClaims into the request context. Every authenticated request
// also refreshes the user's last-seen timestamp, which drives the
// online/offline indicator.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookie)
		if err != nil {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		claims, err := h.parseToken(cookie.Value)
		if err != nil || claims.Scope != "session" {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		if err := h.svc.Heartbeat(r.Context(), claims.Username); err != nil {
			log.Printf("heartbeat for %s: %v", claims.Username, err)
		}

		ctx := context.WithValue(r.Context(), authClaimsKey{}, &AuthClaims{
			Username: claims.Username,
			Role:     core.Role(claims.Role),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to the given roles. Must be mounted inside
// RequireAuth.
func (h *Handler) RequireRole(roles ...core.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := authFromContext(r.Context())
			if claims == nil || !slices.Contains(roles, claims.Role) {
				writeError(w, r, "insufficient role", "FORBIDDEN", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStepUp gates sensitive read surfaces behind the short-lived
// elevation token issued by POST /api/stepup. The token is bound to the
// session's username so it cannot be replayed across accounts.
func (h *Handler) RequireStepUp(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := authFromContext(r.Context())
		cookie, err := r.Cookie(stepUpCookie)
		if err != nil {
			writeError(w, r, "step-up verification required", "STEPUP_REQUIRED", http.StatusForbidden)
			return
		}
		claims, err := h.parseToken(cookie.Value)
		if err != nil || claims.Scope != "stepup" || session == nil || claims.Username != session.Username {
			writeError(w, r, "step-up verification required", "STEPUP_REQUIRED", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	signed, err := h.signToken(res.User.Username, res.User.Role, "session", sessionTTL)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	setCookie(w, authCookie, signed, int(sessionTTL.Seconds()))
	writeJSON(w, res)
}

// logout handles POST /api/auth/logout — clears both cookies.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	setCookie(w, authCookie, "", -1)
	setCookie(w, stepUpCookie, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me — returns the current session identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{
		"username": claims.Username,
		"role":     string(claims.Role),
	})
}

// stepUp handles POST /api/stepup — verifies the shared passphrase and issues
// the short-lived elevation cookie.
func (h *Handler) stepUp(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.VerifyPassphrase(req.Passphrase); err != nil {
		writeError(w, r, "incorrect passphrase", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	signed, err := h.signToken(claims.Username, claims.Role, "stepup", stepUpTTL)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	setCookie(w, stepUpCookie, signed, int(stepUpTTL.Seconds()))
	writeJSON(w, map[string]any{"verified": true, "expires_in": int(stepUpTTL.Seconds())})
}
