package transport

import (
	"context"
	"net"
	"sync/atomic"

	"farmio/internal/engine"
	"farmio/internal/logging"
)

// Acceptor is the TCP listen loop: blocks on the listener and spawns a
// connection handler per accepted socket. Closing the listener on context
// cancellation is what unblocks the pending Accept call.
type Acceptor struct {
	listener net.Listener
	reg      *engine.Registry
	log      *logging.Logger
}

func NewAcceptor(listener net.Listener, reg *engine.Registry, log *logging.Logger) *Acceptor {
	return &Acceptor{listener: listener, reg: reg, log: log}
}

// Run blocks until ctx is cancelled or the listener fails.
func (a *Acceptor) Run(ctx context.Context) {
	var shuttingDown atomic.Bool
	acceptDone := make(chan struct{})

	go func() {
		defer close(acceptDone)
		for {
			conn, err := a.listener.Accept()
			if err != nil {
				if !shuttingDown.Load() {
					a.log.Errorf("accept failed: %v", err)
				}
				return
			}
			go HandleConnection(ctx, conn, a.reg, a.log)
		}
	}()

	select {
	case <-ctx.Done():
		shuttingDown.Store(true)
		a.listener.Close()
		<-acceptDone
	case <-acceptDone:
	}
}
