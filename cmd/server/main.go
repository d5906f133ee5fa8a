// Package main is the entry point for the repoview server.
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"repoview/internal/config"
	"repoview/internal/handler"
	"repoview/internal/watcher"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("repoview - repository file viewer")
	if cfg.GetConfigFilePath() != "" {
		log.Printf("Config file: %s", cfg.GetConfigFilePath())
	}
	log.Printf("Serving %d repositor(ies):", len(cfg.Repos))
	for _, r := range cfg.Repos {
		log.Printf("  %s -> %s (default ref: %s)", r.Key(), r.Path, r.DefaultRef)
	}
	log.Printf("Server starting at: http://localhost:%d", cfg.Port)

	// Open repositories and create handlers
	repos, err := handler.NewRepoSet(cfg)
	if err != nil {
		log.Fatalf("Failed to open repositories: %v", err)
	}
	fileHandler := handler.NewFileHandler(repos)
	treeHandler := handler.NewTreeHandler(repos)
	wsHandler := handler.NewWSHandler()

	// Setup ref watcher if enabled
	if cfg.Watch {
		w, err := watcher.New(cfg)
		if err != nil {
			log.Printf("Warning: failed to create ref watcher: %v", err)
		} else {
			w.OnChange(repos.OnRefUpdate)
			w.OnChange(wsHandler.OnRefUpdate)
			if err := w.Start(); err != nil {
				log.Printf("Warning: failed to start ref watcher: %v", err)
			}
			defer func() { _ = w.Stop() }()
			log.Printf("Ref watcher enabled")
		}
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// API routes
	api := r.Group("/api")
	{
		api.GET("/view/:owner/:repo/*path", fileHandler.GetView)
		api.GET("/raw/:owner/:repo/*path", fileHandler.GetRaw)
		api.GET("/refs/:owner/:repo", fileHandler.GetRefs)
		api.GET("/tree/:owner/:repo/*path", treeHandler.GetTree)
		api.GET("/ws", wsHandler.HandleWS)
	}

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
