package kafka

import (
	"context"
	"testing"
)

// Shutdown races Close against context cancellation; whichever branch the
// flush loop picks, the inbox must be closed exactly once and WaitClosed
// must return.
func TestCloseThenCancelShutsDownCleanly(t *testing.T) {
	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		p := NewProducer([]string{"127.0.0.1:9092"}, "cadweb.order.status", 8)
		p.Start(ctx)

		p.Close()
		cancel()
		p.WaitClosed()
	}
}

func TestCancelThenCloseShutsDownCleanly(t *testing.T) {
	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		p := NewProducer([]string{"127.0.0.1:9092"}, "cadweb.order.created", 8)
		p.Start(ctx)

		cancel()
		p.WaitClosed()
		p.Close()
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProducer([]string{"127.0.0.1:9092"}, "cadweb.payment.received", 1)
	p.Start(ctx)

	p.Close()
	p.Close()
	p.WaitClosed()
}
