// server/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/rexlx/inkwell/blog"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := blog.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	ctx := context.Background()
	db, err := blog.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to the database.")

	if err := db.CreateTables(ctx); err != nil {
		log.Fatalf("Could not create tables: %v", err)
	}
	if cfg.Seed {
		if err := blog.Seed(ctx, db); err != nil {
			log.Fatalf("Could not seed database: %v", err)
		}
		log.Println("Seeded fixture data.")
	}

	handlers := blog.NewHandlers(db, blog.NewSearch(db))
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)

	log.Printf("Starting server on %s", cfg.Addr)
	svr := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	if err := svr.ListenAndServe(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
