package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/thejoaov/cadweb-api/internal/redisx"
)

// SessionCookie is the provider's access-token cookie, forwarded by the
// browser front-end.
const SessionCookie = "sb-access-token"

// Middleware authenticates every request with v, caching verified identities
// in Redis keyed by token hash. rdb may be nil (no caching, e.g. in tests).
func Middleware(v Verifier, rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			ctx := r.Context()
			cacheKey := fmt.Sprintf(redisx.KeyAuthSession, tokenHash(token))

			if rdb != nil {
				if s, err := rdb.Get(ctx, cacheKey).Result(); err == nil && s != "" {
					var u User
					if json.Unmarshal([]byte(s), &u) == nil {
						next.ServeHTTP(w, r.WithContext(WithUser(ctx, u)))
						return
					}
				}
			}

			u, err := v.Verify(ctx, token)
			if err != nil {
				unauthorized(w)
				return
			}
			if rdb != nil {
				b, _ := json.Marshal(u)
				_ = rdb.Set(ctx, cacheKey, b, redisx.TTLAuthSession).Err()
			}
			next.ServeHTTP(w, r.WithContext(WithUser(ctx, u)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
