package controller

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewServer arma el http.Server del servicio. Los requests heredan ctx, así
// que al cancelarlo los streams SSE terminan y Shutdown no queda esperándolos.
func NewServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
