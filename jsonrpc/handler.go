package jsonrpc

import (
	"context"
	"net/http"

	recall "github.com/recallhq/recall"
	"github.com/recallhq/recall/internal/mylog"
)

func NewHandler(r *recall.Recall, logger *mylog.Logger) (http.Handler, error) {
	rpcServer, err := newRPCServer(r, logger)
	if err != nil {
		return nil, err
	}

	return newRecoveryHandler(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithCancel(req.Context())
			defer cancel()

			rpcServer.ServeHTTP(w, req.WithContext(ctx))
		}),
	), nil
}

func NewHandlerWithHealth(r *recall.Recall, logger *mylog.Logger) (http.Handler, error) {
	mainHandler, err := NewHandler(r, logger)
	if err != nil {
		return nil, err
	}
	healthHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Warn("failed to write health response", "err", err)
		}
	})

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/health":
			healthHandler.ServeHTTP(w, req)
		case "/rpc":
			mainHandler.ServeHTTP(w, req)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}), nil
}
