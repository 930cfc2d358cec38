package chain

import (
	"context"

	"github.com/okian/tokenrain/internal/domain/model"
)

// Source yields filtered transfer events for the lifetime of one
// subscription. Subscribe returns the event channel and a cancel function;
// cancelling releases the transport and eventually closes the channel.
// Transport failures are reported to the error sink and retried internally;
// they never surface as terminal errors to the consumer.
type Source interface {
	Subscribe(ctx context.Context) (<-chan model.RawTransferEvent, context.CancelFunc, error)
}
