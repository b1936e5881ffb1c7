package delivery

import (
	"context"
	"time"

	"github.com/mrgeneko/namknob/internal/domain"
)

// Notifying reports every delivery attempt to a Telemetry sink.
type Notifying struct {
	deliverer domain.Deliverer
	telemetry domain.Telemetry
}

func NewNotifying(deliverer domain.Deliverer, telemetry domain.Telemetry) *Notifying {
	return &Notifying{
		deliverer: deliverer,
		telemetry: telemetry,
	}
}

func (n *Notifying) Deliver(ctx context.Context, name string, content []byte) (string, error) {
	location, err := n.deliverer.Deliver(ctx, name, content)

	event := domain.Event{
		Kind:     domain.EventDelivery,
		BatchID:  domain.BatchID(ctx),
		Time:     time.Now(),
		FileName: name,
		Location: location,
	}
	if err != nil {
		event.Message = err.Error()
	}
	n.telemetry.Record(ctx, event)

	return location, err
}
