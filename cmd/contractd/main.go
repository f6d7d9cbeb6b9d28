package main

import (
	"log"
	"os"

	"github.com/contractdesk/contractdesk/server"
)

func main() {
	srv := &server.Server{}
	if err := srv.Initialize(); err != nil {
		log.Fatalf("contractd: initialize: %v", err)
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("contractd: listening on %s", addr)
	if err := srv.NewGinEngine().Run(addr); err != nil {
		log.Fatalf("contractd: serve: %v", err)
	}
}
