package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	recall "github.com/recallhq/recall"
	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/internal/mylog"
	"github.com/recallhq/recall/jsonrpc"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	params := &struct {
		ConfigFile string
		Port       int
	}{}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the JSON-RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			conf, err := config.LoadFile(params.ConfigFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				conf.Server.Port = params.Port
			}

			logger := mylog.NewLogger(conf.Log.LogLevel, conf.Log.LogHandler)

			r, err := recall.NewRecall(
				ctx,
				recall.WithLogger(logger),
				recall.WithEngineConfig(&conf.Engine),
				recall.WithStoreConfig(&conf.Store),
				recall.WithClassifierConfig(&conf.Classifier),
				recall.WithQuotaConfig(&conf.Quota),
			)
			if err != nil {
				return errors.Wrap(err, "failed to create recall engine")
			}
			defer func() {
				if err := r.Close(); err != nil {
					logger.Error("failed to close store", mylog.Err(err))
				}
			}()

			handler, err := createServerHandler(r, logger)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port)
			logger.Info("server started", "addr", addr)
			defer logger.Info("server stopped")

			server := &http.Server{
				Addr:    addr,
				Handler: handler,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			go func() {
				<-ctx.Done()
				if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Error("failed to shutdown server", mylog.Err(err))
				}
			}()

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&params.ConfigFile, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().IntVarP(&params.Port, "port", "p", 3001, "Port to listen on")

	return cmd
}

func createServerHandler(r *recall.Recall, logger *mylog.Logger) (http.Handler, error) {
	rpcHandler, err := jsonrpc.NewHandlerWithHealth(r, logger)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.PathPrefix("/").Handler(rpcHandler)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return cors(router), nil
}
