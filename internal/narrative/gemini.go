// Package narrative generates an optional plain-English summary of a
// FundReport via Gemini. It is purely additive: the numeric report is
// complete without it. A missing API key yields an empty summary, and a
// failed call (network error, quota) is returned to the caller, which logs
// it and never surfaces it as a request error.
package narrative

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vcfundsim/pkg/core/llm"
	"vcfundsim/pkg/core/utils"
	"vcfundsim/pkg/models"
)

const defaultModel = "gemini-2.0-flash-exp"

// Summarize asks Gemini for a one-paragraph narrative of report. It returns
// ("", nil) when GEMINI_API_KEY is unset — narration is opt-in, not a
// missing-config error — and ("", err) only for a configured-but-failed call,
// which callers should log and ignore rather than fail the request on.
func Summarize(ctx context.Context, report models.FundReport, fundSizeM float64) (string, error) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return "", nil
	}

	provider := &llm.GeminiProvider{Model: defaultModel}
	text, err := provider.GenerateResponse(ctx, buildPrompt(report, fundSizeM), systemInstruction, nil)
	if err != nil {
		return "", err
	}
	return utils.CleanMarkdown(strings.TrimSpace(text)), nil
}

const systemInstruction = "You summarize venture fund Monte Carlo simulation results for a " +
	"general-partner audience in one short paragraph. State the median outcome, the spread " +
	"between P25 and P90, and the single largest driver of loss (failure rate at the stage " +
	"with the most failed companies). No preamble, no bullet points, no disclaimers."

func buildPrompt(r models.FundReport, fundSizeM float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fund size: $%.1fM\n", fundSizeM)
	fmt.Fprintf(&sb, "MOIC percentiles: P25=%.2fx P50=%.2fx P75=%.2fx P90=%.2fx mean=%.2fx\n",
		r.MoicPercentiles.P25, r.MoicPercentiles.P50, r.MoicPercentiles.P75, r.MoicPercentiles.P90, r.MoicPercentiles.Mean)
	fmt.Fprintf(&sb, "Average portfolio: %.1f companies, %.1f failed, %.1f alive, %.1f acquired\n",
		r.AvgTotalCompanies, r.AvgFailedCompanies, r.AvgActiveCompanies, r.AvgAcquiredCompanies)
	fmt.Fprintf(&sb, "Pro-rata skipped: %d (valuation cap), %d (reserve exhausted)\n",
		r.ProRataSkipsStageTooLate, r.ProRataSkipsReserveExhausted)
	return sb.String()
}
