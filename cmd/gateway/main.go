package main

import (
	"context"
	"net/http"

	"github.com/mealsnap/mealsnap/gateway"
	"github.com/mealsnap/mealsnap/gateway/server"
	"github.com/mealsnap/mealsnap/log"
)

func main() {
	ctx := context.Background()

	l := log.New("gateway")

	c, err := gateway.LoadConfig(ctx)
	if err != nil {
		l.Error("failed to load config", "error", err)
		return
	}

	if c.Dev {
		l.Info("running in dev mode, device signature verification is disabled")
	}

	srv, err := server.Make(c, l)
	if err != nil {
		l.Error("failed to setup server", "error", err)
		return
	}

	l.Info("starting server", "address", c.ListenAddr)
	l.Error("server error", "error", http.ListenAndServe(c.ListenAddr, srv.Router()))
}
