package main

import (
	"log"
	"net/http"

	"github.com/gatekeepr/gatekeepr/internal/server"
)

func main() {
	cfg := server.ConfigFromEnv()

	h, err := server.NewHandlerWithOptions(server.HandlerOptions{Config: &cfg})
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, h); err != nil {
		log.Fatal(err)
	}
}
