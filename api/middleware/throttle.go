package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

const throttleKeyPrefix = "autoshop:throttle"

type counterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// ThrottleRule caps attempts per key inside the throttle window. Key returns
// "" when the request carries nothing to count against.
type ThrottleRule struct {
	Scope     string
	Limit     int
	NeedsBody bool
	Key       func(r *http.Request, body []byte) string
}

// ByClientIP counts attempts per caller address.
func ByClientIP(limit int) ThrottleRule {
	return ThrottleRule{
		Scope: "ip",
		Limit: limit,
		Key: func(r *http.Request, _ []byte) string {
			return clientIP(r)
		},
	}
}

// ByBodyEmail counts attempts per hashed "email" field of a JSON body.
func ByBodyEmail(limit int) ThrottleRule {
	return ThrottleRule{
		Scope:     "email",
		Limit:     limit,
		NeedsBody: true,
		Key: func(_ *http.Request, body []byte) string {
			var payload struct {
				Email string `json:"email"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return ""
			}
			email := strings.ToLower(strings.TrimSpace(payload.Email))
			if email == "" {
				return ""
			}
			sum := sha256.Sum256([]byte(email))
			return hex.EncodeToString(sum[:])
		},
	}
}

// Throttle rejects requests with RATE_LIMIT_EXCEEDED once any rule's counter passes
// its limit within window. A nil store or zero window disables it.
func Throttle(name string, window time.Duration, store counterStore, logg *logger.Logger, rules ...ThrottleRule) func(http.Handler) http.Handler {
	active := make([]ThrottleRule, 0, len(rules))
	readBody := false
	for _, rule := range rules {
		if rule.Limit > 0 && rule.Key != nil {
			active = append(active, rule)
			readBody = readBody || rule.NeedsBody
		}
	}

	return func(next http.Handler) http.Handler {
		if store == nil || window <= 0 || len(active) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if readBody && r.Body != nil {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, rule := range active {
				subject := rule.Key(r, body)
				if subject == "" {
					continue
				}
				key := throttleKeyPrefix + ":" + name + ":" + rule.Scope + ":" + subject
				count, err := store.IncrWithTTL(ctx, key, window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "throttle counter"))
					return
				}
				if count > int64(rule.Limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"throttle": name,
							"scope":    rule.Scope,
							"attempts": count,
							"limit":    rule.Limit,
						}), "throttle.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, retry later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
