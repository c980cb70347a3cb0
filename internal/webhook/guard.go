// Package webhook gates payment callbacks behind signature verification and
// an idempotency key. Unlike the rate limiter, this component fails closed:
// if the idempotency store is unreachable, processing is rejected rather
// than risking a double-processed financial event.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"betengine/internal/platform/guard"
	dErrors "betengine/pkg/domainerrors"
)

// IdempotencyTTL is the dedupe window for a transaction id.
const IdempotencyTTL = 24 * time.Hour

const keyPrefix = "wh:pay:"

const defaultStoreTimeout = 2 * time.Second

// Outcome classifies an accepted delivery.
type Outcome int

const (
	// OutcomeProcessed: first delivery; the business hook ran.
	OutcomeProcessed Outcome = iota
	// OutcomeDuplicate: transaction id already seen within the TTL window;
	// answered as success without re-running anything.
	OutcomeDuplicate
)

// Hook is the downstream effect run at most once per transaction id.
type Hook func(ctx context.Context, payload []byte) error

// Guard verifies and deduplicates webhook deliveries.
type Guard struct {
	secret       []byte
	store        IdempotencyStore
	txnField     string
	hook         Hook
	logger       *slog.Logger
	storeTimeout time.Duration
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

func WithHook(hook Hook) Option {
	return func(g *Guard) { g.hook = hook }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(g *Guard) { g.storeTimeout = d }
}

// NewGuard builds a Guard. txnField is the JSON field carrying the
// transaction id (deployment-configurable).
func NewGuard(secret string, store IdempotencyStore, txnField string, opts ...Option) *Guard {
	g := &Guard{
		secret:       []byte(secret),
		store:        store,
		txnField:     txnField,
		logger:       slog.Default(),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Process runs one delivery through signature verification, idempotency
// check and (for first deliveries) the business hook. rawBody must be the
// unparsed request bytes: re-serialized JSON is not byte-stable and would
// break the signature.
func (g *Guard) Process(ctx context.Context, rawBody []byte, signature string) (Outcome, error) {
	if len(g.secret) == 0 {
		return 0, dErrors.New(dErrors.CodeNotConfigured, "webhook secret is not configured")
	}
	if !g.verifySignature(rawBody, signature) {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook signature")
	}

	txn, err := g.transactionID(rawBody)
	if err != nil {
		return 0, err
	}

	if g.store == nil {
		// No store means no dedupe guarantee; fail closed.
		return 0, dErrors.New(dErrors.CodeUpstream, "idempotency store is not available")
	}

	storeCtx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()

	var fresh bool
	verdict := guard.Call(storeCtx, guard.FailClosed, func(ctx context.Context) (guard.Effect, error) {
		var err error
		fresh, err = g.store.SetIfAbsent(ctx, keyPrefix+txn, IdempotencyTTL)
		if err != nil {
			return guard.Deny, err
		}
		return guard.Allow, nil
	})
	if verdict.Degraded {
		g.logger.Error("webhook rejected: idempotency store unreachable", "error", verdict.Err)
		return 0, dErrors.Wrap(verdict.Err, dErrors.CodeUpstream, "idempotency store is not available")
	}

	if !fresh {
		return OutcomeDuplicate, nil
	}
	if g.hook != nil {
		if err := g.hook(ctx, rawBody); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "webhook processing failed")
		}
	}
	return OutcomeProcessed, nil
}

// verifySignature compares the presented signature against the HMAC of the
// raw bytes. Hex, base64, base64url and raw digest bytes are all accepted;
// comparison is constant time either way.
func (g *Guard) verifySignature(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	candidates := [][]byte{[]byte(signature)}
	if raw, err := hex.DecodeString(signature); err == nil {
		candidates = append(candidates, raw)
	}
	if raw, err := base64.StdEncoding.DecodeString(signature); err == nil {
		candidates = append(candidates, raw)
	}
	normalized := strings.TrimRight(strings.NewReplacer("+", "-", "/", "_").Replace(signature), "=")
	if raw, err := base64.RawURLEncoding.DecodeString(normalized); err == nil {
		candidates = append(candidates, raw)
	}

	for _, candidate := range candidates {
		if hmac.Equal(expected, candidate) {
			return true
		}
	}
	return false
}

// transactionID pulls the configured id field out of the payload. Numeric
// ids are accepted and stringified.
func (g *Guard) transactionID(rawBody []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "payload is not valid JSON")
	}
	switch v := payload[g.txnField].(type) {
	case string:
		if v == "" {
			return "", dErrors.New(dErrors.CodeInvalidInput, "missing transaction id")
		}
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "missing transaction id")
	}
}
