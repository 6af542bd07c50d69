package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"vcfundsim/internal/config"
	"vcfundsim/internal/store"
	apiconfig "vcfundsim/pkg/api/config"
	"vcfundsim/pkg/api/fund"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	serverCfg := config.Load("config/server.yaml")

	ctx := context.Background()
	pool, err := store.InitDB(ctx)
	if err != nil {
		fmt.Printf("[WARNING] database unavailable, report cache will use file fallback only: %v\n", err)
	}
	defer store.Close()

	cache := store.NewReportCache(pool, "")

	fund.InitHandler(cache, serverCfg)
	http.HandleFunc("/api/fund/simulate", fund.HandleSimulate)

	configHandler := apiconfig.NewHandler(serverCfg)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	fmt.Printf("Fund simulation API server starting on :%s...\n", serverCfg.Port)
	fmt.Println("  - POST /api/fund/simulate")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")

	if err := http.ListenAndServe(":"+serverCfg.Port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
