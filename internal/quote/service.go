// Package quote serves last prices per symbol through a TTL cache, guarding
// the upstream source with a rate limiter and a circuit breaker.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradejournal/internal/logger"
	"tradejournal/internal/pkg/circuit"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var (
	// ErrNoQuote means the source has no price for the symbol.
	ErrNoQuote = errors.New("quote: no price for symbol")
	// ErrCircuitOpen means the source failed repeatedly and is not being
	// called until the breaker timeout elapses.
	ErrCircuitOpen = errors.New("quote: source circuit open")
)

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
	// Cached is set on quotes served without calling the source.
	Cached bool `json:"cached"`
}

// Source fetches a fresh quote. Implementations return ErrNoQuote when the
// symbol is unknown.
type Source interface {
	Fetch(ctx context.Context, symbol string) (Quote, error)
}

type Options struct {
	TTL              time.Duration
	RatePerSecond    float64
	Burst            int
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

type Service struct {
	source  Source
	cache   *Cache
	limiter *rate.Limiter
	breaker *circuit.CircuitBreaker
}

func NewService(source Source, opts Options) *Service {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Service{
		source:  source,
		cache:   NewCache(opts.TTL),
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuit.NewCircuitBreaker("quote-source", opts.BreakerThreshold, opts.BreakerTimeout),
	}
}

func (s *Service) Cache() *Cache { return s.cache }

func (s *Service) Breaker() *circuit.CircuitBreaker { return s.breaker }

// Quote returns the cached quote for symbol or fetches a fresh one. Errors
// from the source are returned to the caller, never swallowed.
func (s *Service) Quote(ctx context.Context, symbol string) (Quote, error) {
	sym := normalizeSymbol(symbol)
	if sym == "" {
		return Quote{}, fmt.Errorf("quote: symbol cannot be empty")
	}
	if q, ok := s.cache.Get(sym); ok {
		q.Cached = true
		return q, nil
	}
	logger.Debugf("quote cache miss for %s", sym)

	// Wait first: a half-open breaker admits one trial call and must not lose it
	// to a cancelled context.
	if err := s.limiter.Wait(ctx); err != nil {
		return Quote{}, err
	}
	if !s.breaker.Allow() {
		return Quote{}, ErrCircuitOpen
	}
	q, err := s.source.Fetch(ctx, sym)
	switch {
	case errors.Is(err, ErrNoQuote):
		s.breaker.RecordSuccess()
		return Quote{}, err
	case err != nil:
		s.breaker.RecordFailure()
		return Quote{}, fmt.Errorf("quote: fetch %s: %w", sym, err)
	}
	s.breaker.RecordSuccess()
	q.Symbol = sym
	q.Cached = false
	s.cache.Set(q)
	return q, nil
}
