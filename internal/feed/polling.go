package feed

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PollingSource avisa cada intervalo. El feed descarta los snapshots
// repetidos, así que los suscriptores solo ven cambios reales.
type PollingSource struct {
	interval time.Duration
}

func NewPollingSource(interval time.Duration) *PollingSource {
	return &PollingSource{interval: interval}
}

func (p *PollingSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		t := time.NewTicker(p.interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Fallback usa Primary y, si no se puede abrir (mongod standalone sin change
// streams), Secondary.
type Fallback struct {
	Primary   ChangeSource
	Secondary ChangeSource
	Log       *zap.Logger
}

func (f *Fallback) Changes(ctx context.Context) (<-chan struct{}, error) {
	ch, err := f.Primary.Changes(ctx)
	if err == nil {
		return ch, nil
	}
	f.Log.Warn("primary change source unavailable, falling back", zap.Error(err))
	return f.Secondary.Changes(ctx)
}
