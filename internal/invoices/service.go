package invoices

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/thejoaov/cadweb-api/internal/events"
	kafkax "github.com/thejoaov/cadweb-api/internal/kafka"
	"github.com/thejoaov/cadweb-api/internal/money"
	"github.com/thejoaov/cadweb-api/internal/orders"
	"github.com/thejoaov/cadweb-api/internal/redisx"
)

// Service projects order status events: it keeps the Redis status cache
// fresh and issues invoices when orders complete.
type Service struct {
	Repo        *Repo
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderStatus is wired as the consumer handler for the order status
// topic.
func (s *Service) HandleOrderStatus(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.TypeOrderStatusChanged {
		return nil
	}

	// Dedup on event id; status events are at-least-once.
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[events.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	skey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	cached := kafkax.MustMarshal(map[string]string{"status": p.To})
	_ = s.Redis.Set(ctx, skey, cached, redisx.TTLStatusCache).Err()

	if orders.Status(p.To) != orders.StatusCompleted {
		return nil
	}

	inv, created, err := s.Repo.CreateForOrder(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if created {
		log.Info().
			Str("order_id", p.OrderID).
			Str("number", inv.Number).
			Str("total", money.FormatBRL(inv.TotalCents)).
			Msg("invoice issued")
	}
	return nil
}
