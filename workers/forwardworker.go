package workers

import (
	"context"
	"fmt"

	"github.com/datasciritwik/ai-interview/transport"
)

// ForwardWorker drains recorded chunks off the chunk channel and pushes each
// one to the live transport. It is the only reader of the channel; the
// recorder side enqueues with a non-blocking send so forwarding can never
// stall chunk buffering.
type ForwardWorker struct {
	ctx          context.Context
	cancel       context.CancelFunc
	ChunkChannel <-chan []byte
	Transport    *transport.Transport
}

func NewForwardWorker(chunkChannel <-chan []byte, tr *transport.Transport) (*ForwardWorker, error) {
	// Params Validation
	if chunkChannel == nil {
		return nil, fmt.Errorf("chunk channel is required")
	}
	if tr == nil {
		return nil, fmt.Errorf("transport is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ForwardWorker{
		ctx:          ctx,
		cancel:       cancel,
		ChunkChannel: chunkChannel,
		Transport:    tr,
	}, nil
}

func (fw *ForwardWorker) Start() {
	go func() {
		for {
			select {
			case <-fw.ctx.Done():
				return
			case chunk, ok := <-fw.ChunkChannel:
				if !ok {
					return
				}
				// Best effort: Send drops the chunk itself when the
				// connection is not open.
				fw.Transport.Send(chunk)
			}
		}
	}()
}

func (fw *ForwardWorker) Stop() {
	fw.cancel()
}
