package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/rs/cors"

	"brandpulse/api/router"
	"brandpulse/cmd/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatal("failed to initialize:", err)
	}

	r := router.New(app.Store, app.Orchestrator)
	handler := cors.Default().Handler(r)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	app.Log.Infof("api server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
