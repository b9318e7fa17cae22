// Package feed entrega snapshots completos de órdenes a suscriptores cada vez
// que el store cambia.
package feed

import (
	"cmp"
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"restaurant-order-service/internal/metrics"
	"restaurant-order-service/internal/model"

	"go.uber.org/zap"
)

// Loader lee el estado actual del store.
type Loader interface {
	GetAll(ctx context.Context) ([]model.Order, error)
}

// ChangeSource avisa que algo cambió en el store. El canal se cierra cuando la
// fuente deja de funcionar; Run la vuelve a abrir.
type ChangeSource interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

type Predicate func(model.Order) bool

func All(model.Order) bool { return true }

// ByUserEmail filtra por email exacto, misma regla que el store.
func ByUserEmail(email string) Predicate {
	return func(o model.Order) bool {
		return o.Email == email
	}
}

type subscription struct {
	id       uint64
	filter   Predicate
	onChange func([]model.Order)
	closed   atomic.Bool

	// mu se tiene entre el chequeo de closed y onChange; unsubscribe lo
	// toma para esperar a una entrega en curso. inCallback evita el
	// deadlock cuando unsubscribe se llama desde onChange.
	mu         sync.Mutex
	inCallback atomic.Bool

	// solo lo toca el loop
	primed bool
}

type Feed struct {
	loader Loader
	source ChangeSource
	log    *zap.Logger
	retry  time.Duration

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64

	wake chan struct{}

	// último snapshot difundido; solo lo toca el loop
	last    []model.Order
	hasLast bool
}

func New(loader Loader, source ChangeSource, log *zap.Logger) *Feed {
	return &Feed{
		loader: loader,
		source: source,
		log:    log,
		retry:  2 * time.Second,
		subs:   make(map[uint64]*subscription),
		wake:   make(chan struct{}, 1),
	}
}

// Subscribe registra onChange. El primer snapshot llega en cuanto el loop lo
// procesa; después, uno por cada cambio. Todas las invocaciones ocurren en la
// goroutine de Run, nunca en paralelo para un mismo feed.
//
// unsubscribe es idempotente y se puede llamar desde adentro de onChange.
// Cuando retorna no arranca ninguna invocación nueva.
func (f *Feed) Subscribe(filter Predicate, onChange func([]model.Order)) (unsubscribe func()) {
	if filter == nil {
		filter = All
	}

	f.mu.Lock()
	f.nextID++
	sub := &subscription{id: f.nextID, filter: filter, onChange: onChange}
	f.subs[sub.id] = sub
	f.mu.Unlock()
	metrics.AddFeedSubscribers(1)

	select {
	case f.wake <- struct{}{}:
	default:
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if sub.inCallback.Load() {
				sub.closed.Store(true)
			} else {
				// espera a que termine una entrega en curso
				sub.mu.Lock()
				sub.closed.Store(true)
				sub.mu.Unlock()
			}
			f.mu.Lock()
			delete(f.subs, sub.id)
			f.mu.Unlock()
			metrics.AddFeedSubscribers(-1)
		})
	}
}

// Run procesa cambios hasta que ctx se cancela. Si la fuente se cae la
// reabre después de un backoff y recarga, por si se perdió algún cambio.
func (f *Feed) Run(ctx context.Context) {
	for ctx.Err() == nil {
		changes, err := f.source.Changes(ctx)
		if err != nil {
			f.log.Error("open change source", zap.Error(err))
			f.idle(ctx, f.retry)
			continue
		}

		f.broadcast(ctx)
		f.pump(ctx, changes)

		if ctx.Err() == nil {
			f.log.Warn("change source closed, reopening", zap.Duration("backoff", f.retry))
			f.idle(ctx, f.retry)
		}
	}
}

func (f *Feed) pump(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			f.broadcast(ctx)
		case <-f.wake:
			f.primeNew(ctx)
		}
	}
}

// idle espera d sin dejar de atender suscripciones nuevas.
func (f *Feed) idle(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			return
		case <-f.wake:
			f.primeNew(ctx)
		}
	}
}

// broadcast recarga y entrega a todos. Si el snapshot es igual al último
// difundido, solo se entrega a los que todavía no recibieron nada.
func (f *Feed) broadcast(ctx context.Context) {
	orders, err := f.loader.GetAll(ctx)
	if err != nil {
		f.log.Error("load orders snapshot", zap.Error(err))
		return
	}

	changed := !f.hasLast || !reflect.DeepEqual(orders, f.last)
	f.last = orders
	f.hasLast = true

	for _, sub := range f.active() {
		if sub.primed && !changed {
			continue
		}
		f.deliver(sub, orders)
	}
}

// primeNew manda el snapshot inicial a las suscripciones nuevas. No toca
// f.last: las suscripciones viejas todavía no vieron este estado.
func (f *Feed) primeNew(ctx context.Context) {
	var pending []*subscription
	for _, sub := range f.active() {
		if !sub.primed {
			pending = append(pending, sub)
		}
	}
	if len(pending) == 0 {
		return
	}

	orders, err := f.loader.GetAll(ctx)
	if err != nil {
		f.log.Error("load initial snapshot", zap.Error(err))
		return
	}
	for _, sub := range pending {
		f.deliver(sub, orders)
	}
}

func (f *Feed) active() []*subscription {
	f.mu.Lock()
	out := make([]*subscription, 0, len(f.subs))
	for _, s := range f.subs {
		out = append(out, s)
	}
	f.mu.Unlock()

	slices.SortFunc(out, func(a, b *subscription) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

func (f *Feed) deliver(sub *subscription, orders []model.Order) {
	sub.primed = true
	if sub.closed.Load() {
		return
	}

	// un filtro o callback que entra en pánico no puede tirar el loop
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("feed subscriber panicked", zap.Uint64("subscription", sub.id), zap.Any("panic", r))
		}
	}()

	matching := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if sub.filter(o) {
			o.Items = slices.Clone(o.Items)
			o.History = slices.Clone(o.History)
			matching = append(matching, o)
		}
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed.Load() {
		return
	}
	sub.inCallback.Store(true)
	defer sub.inCallback.Store(false)

	sub.onChange(matching)
	metrics.RecordFeedDelivery()
}
