// Package fund implements the HTTP API for running a fund-simulation
// request end to end: validate, simulate, aggregate, cache, narrate.
package fund

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vcfundsim/internal/aggregate"
	"vcfundsim/internal/config"
	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/narrative"
	"vcfundsim/internal/simerr"
	"vcfundsim/internal/simulate"
	"vcfundsim/internal/store"
	"vcfundsim/pkg/core/utils"
	"vcfundsim/pkg/models"
)

var (
	reportCache  *store.ReportCache
	serverConfig *config.Server
)

// InitHandler wires the package-level dependencies the HTTP handlers share.
// cache may be nil; narration and caching are both optional features.
func InitHandler(cache *store.ReportCache, cfg *config.Server) {
	reportCache = cache
	serverConfig = cfg
}

// HandleSimulate runs one fund-simulation request and returns the report.
func HandleSimulate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("read request body: %v", err), http.StatusBadRequest)
		return
	}

	var req models.Request
	if _, err := utils.SmartParse(string(body), &req); err != nil {
		http.Error(w, fmt.Sprintf("malformed request body: %v", err), http.StatusBadRequest)
		return
	}

	maxIters := config.DefaultMaxIterationsPerRun
	if serverConfig != nil && serverConfig.MaxIterationsPerRun > 0 {
		maxIters = serverConfig.MaxIterationsPerRun
	}
	if req.NumIterations > maxIters {
		http.Error(w, fmt.Sprintf("num_iterations %d exceeds max %d", req.NumIterations, maxIters), http.StatusBadRequest)
		return
	}

	fcReq := req.ToFundConfigRequest()
	cfg, err := fundconfig.New(fcReq)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	seed := cfg.Seed
	var cacheKey string
	enableCache := reportCache != nil && (serverConfig == nil || serverConfig.EnableReportCache)
	if enableCache {
		cacheKey = store.RequestKey(req, seed)
		if cached, err := reportCache.Get(r.Context(), cacheKey); err == nil && cached != nil {
			fmt.Printf("[FUND] cache hit for request hash %s\n", cacheKey)
			writeJSON(w, *cached)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	fmt.Printf("[SIMULATE] running %d iterations x %d periods (seed=%d)\n", cfg.NumIterations, cfg.NumPeriods, cfg.Seed)
	results, err := simulate.Run(ctx, cfg)
	if err != nil {
		writeRuntimeError(w, err)
		return
	}

	report, err := aggregate.Summarize(results, cfg)
	if err != nil {
		writeRuntimeError(w, err)
		return
	}

	if !req.IncludeFullDistribution {
		report.MoicDistribution = nil
	}

	narrationEnabled := serverConfig == nil || serverConfig.EnableNarrative
	if narrationEnabled {
		summary, err := narrative.Summarize(ctx, report, req.FundSizeM)
		if err != nil {
			fmt.Printf("[WARNING] narrative generation failed: %v\n", err)
		} else if summary != "" {
			html, err := narrative.RenderHTML(summary)
			if err != nil {
				fmt.Printf("[WARNING] narrative render failed: %v\n", err)
				report.Narrative = summary
			} else {
				report.Narrative = html
			}
		}
	}

	if enableCache {
		if err := reportCache.Save(r.Context(), cacheKey, report); err != nil {
			fmt.Printf("[WARNING] report cache save failed: %v\n", err)
		}
	}

	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("[ERROR] encode response: %v\n", err)
	}
}

func writeConfigError(w http.ResponseWriter, err error) {
	if cfgErr, ok := err.(*simerr.ConfigError); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": cfgErr.Message,
			"kind":  cfgErr.Kind,
			"path":  cfgErr.Path,
		})
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeRuntimeError(w http.ResponseWriter, err error) {
	if rtErr, ok := err.(*simerr.RuntimeError); ok {
		status := http.StatusInternalServerError
		if rtErr.Kind == simerr.KindCancelled {
			status = http.StatusGatewayTimeout
		}
		if rtErr.Kind == simerr.KindNoDeployableCapital {
			status = http.StatusUnprocessableEntity
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":               rtErr.Message,
			"kind":                rtErr.Kind,
			"completed_scenarios": rtErr.CompletedScenarios,
		})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
