package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/autoshop-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// reservations expire on their own if the process dies mid-request
	inFlightTTL = 2 * time.Minute

	maxIdempotencyKeyLen = 128
)

// idempotentRoute pairs a method with a path.Match pattern over the request path.
type idempotentRoute struct {
	method  string
	pattern string
	ttl     time.Duration
}

var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, "/api/v1/stock/movements", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/purchase-orders/*/cancel", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/sales", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/budgets/*/approve", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/budgets/*/reject", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/purchase-orders/*/receive", criticalIdempotencyTTL},
}

type storedResponse struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes the stock-moving and decision endpoints safe to retry.
// The first request with a key reserves it, runs, and stores its response;
// repeats with the same body replay that response, repeats with another body
// fail, and repeats that arrive while the first is running are refused.
// Server errors release the key so the client can retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			switch {
			case clientKey == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyKeyHeader+" header required"))
				return
			case len(clientKey) > maxIdempotencyKeyLen:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyKeyHeader+" header too long").
					WithDetails(map[string]any{"max": maxIdempotencyKeyLen}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			hash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(strings.Join([]string{UserIDFromContext(ctx), r.Method, r.URL.Path}, "|"), clientKey)
			if logg != nil {
				ctx = logg.WithField(ctx, "idempotency_key", clientKey)
			}

			if done, err := replayIfStored(w, store, r.WithContext(ctx), key, hash, logg); done || err != nil {
				return
			}

			reservation, _ := json.Marshal(storedResponse{InFlight: true, RequestHash: hash})
			won, err := store.SetNX(ctx, key, string(reservation), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !won {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is in progress"))
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r.WithContext(ctx))

			if capture.statusCode() >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil && logg != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
				return
			}
			record, _ := json.Marshal(storedResponse{
				RequestHash: hash,
				Status:      capture.statusCode(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err := store.Set(ctx, key, string(record), ttl); err != nil && logg != nil {
				logg.Error(ctx, "idempotency.persist_failed", err)
			}
		})
	}
}

// replayIfStored answers from an existing record. done reports that a response
// has been written.
func replayIfStored(w http.ResponseWriter, store pkgredis.IdempotencyStore, r *http.Request, key, hash string, logg *logger.Logger) (done bool, err error) {
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
		return true, err
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return true, err
	}
	switch {
	case stored.RequestHash != hash:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
	case stored.InFlight:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set(ReplayedHeader, "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
	return true, nil
}

func idempotencyTTL(method, requestPath string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.method != method {
			continue
		}
		if matched, _ := path.Match(route.pattern, requestPath); matched {
			return route.ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
