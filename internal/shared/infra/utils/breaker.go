package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen se devuelve cuando el circuito está abierto y la llamada no se intenta.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker es un circuit breaker clásico de tres estados (closed/open/half-open).
// Tras 'threshold' fallos consecutivos el circuito se abre durante una ventana
// que crece exponencialmente con cada reapertura, hasta 'maxTimeout'.
type Breaker struct {
	mu sync.Mutex

	state     BreakerState
	failures  int
	openCount int // reaperturas consecutivas, para el backoff exponencial

	threshold   int
	baseTimeout time.Duration
	maxTimeout  time.Duration
	openedAt    time.Time

	now func() time.Time // inyectable en tests
}

func NewBreaker(threshold int, baseTimeout, maxTimeout time.Duration) *Breaker {
	return &Breaker{
		state:       BreakerClosed,
		threshold:   threshold,
		baseTimeout: baseTimeout,
		maxTimeout:  maxTimeout,
		now:         time.Now,
	}
}

// Execute ejecuta fn si el circuito lo permite y registra el resultado.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

// State devuelve el estado actual (recalculando la transición open -> half-open).
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	if b.state == BreakerOpen {
		return ErrBreakerOpen
	}
	return nil
}

// refresh pasa de open a half-open cuando expira la ventana. Debe llamarse con el lock.
func (b *Breaker) refresh() {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.currentTimeout() {
		b.state = BreakerHalfOpen
	}
}

func (b *Breaker) currentTimeout() time.Duration {
	timeout := b.baseTimeout
	for i := 1; i < b.openCount; i++ {
		timeout *= 2
		if timeout >= b.maxTimeout {
			return b.maxTimeout
		}
	}
	if timeout > b.maxTimeout {
		return b.maxTimeout
	}
	return timeout
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		// Un éxito cierra el circuito y resetea los contadores.
		b.state = BreakerClosed
		b.failures = 0
		b.openCount = 0
		return
	}

	b.failures++
	// En half-open basta un fallo para reabrir; en closed se espera al umbral.
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.failures = 0
		b.openCount++
		b.openedAt = b.now()
	}
}
