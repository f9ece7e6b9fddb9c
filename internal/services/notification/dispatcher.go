package notification

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

const persistTimeout = 5 * time.Second

// Sink сохраняет уведомления
type Sink interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Dispatcher принимает уведомления без блокировки и сохраняет их в фоне
type Dispatcher struct {
	sink    Sink
	queue   chan models.Notification
	workers int
}

// NewDispatcher создаёт диспетчер с ограниченной очередью
func NewDispatcher(sink Sink, queueSize, workers int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan models.Notification, queueSize),
		workers: workers,
	}
}

// Notify ставит уведомление в очередь; при переполнении уведомление теряется
func (d *Dispatcher) Notify(_ context.Context, n models.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	select {
	case d.queue <- n:
	default:
		log.Printf("Очередь уведомлений переполнена, уведомление %s для %s отброшено", n.Type, n.UserID)
	}
}

// Run обрабатывает очередь до отмены ctx, затем дописывает оставшиеся уведомления
func (d *Dispatcher) Run(ctx context.Context) error {
	var g errgroup.Group
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			d.work(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.persist(ctx, n)
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.persist(ctx, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) persist(ctx context.Context, n models.Notification) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := d.sink.CreateNotification(ctx, &n); err != nil {
		log.Printf("Ошибка сохранения уведомления %s для %s: %v", n.Type, n.UserID, err)
	}
}
