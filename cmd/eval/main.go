package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/okalita/spot-optimizer/internal/condition"
	"github.com/okalita/spot-optimizer/internal/config"
	"github.com/okalita/spot-optimizer/internal/ote"
	"github.com/okalita/spot-optimizer/internal/pricestore"
	"github.com/okalita/spot-optimizer/pkg/logger"
)

// eval is a one-shot evaluator: it loads the day-ahead prices, evaluates an
// expression at the chosen hour (or replays it over the whole series) and
// prints the result as JSON.
func main() {
	var (
		expression = flag.String("exp", "", "condition expression JSON, e.g. [{\"price\":120}]")
		date       = flag.String("date", "", "evaluation date YYYY-MM-DD (default today)")
		hour       = flag.Int("hour", -1, "evaluation hour 0-23 (default current hour)")
		all        = flag.Bool("all", false, "replay the expression over every hour of the series")
	)
	flag.Parse()

	if *expression == "" {
		fmt.Fprintln(os.Stderr, "Usage: eval -exp '<expression>' [-date YYYY-MM-DD] [-hour H] [-all]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init("warn", cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root, err := condition.Parse(*expression)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid expression: %v\n", err)
		os.Exit(2)
	}

	now := time.Now().In(cfg.Location())
	if *date != "" {
		parsed, err := time.ParseInLocation(pricestore.DateFormat, *date, cfg.Location())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid date %q, expected YYYY-MM-DD\n", *date)
			os.Exit(2)
		}
		now = parsed.Add(time.Duration(now.Hour()) * time.Hour)
	}
	if *hour >= 0 {
		if *hour > 23 {
			fmt.Fprintf(os.Stderr, "Invalid hour %d, expected 0-23\n", *hour)
			os.Exit(2)
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, cfg.Location())
		now = day.Add(time.Duration(*hour) * time.Hour)
	}

	prices := pricestore.New(ote.NewClient(cfg.OTE.BaseURL, cfg.OTE.Timeout))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OTE.Timeout*3)
	defer cancel()

	evalCtx, err := prices.EvaluationContext(ctx, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load prices: %v\n", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if *all {
		results := root.EvaluateAll(evalCtx)
		logger.EvaluationsTotal.WithLabelValues("batch").Inc()
		encoder.Encode(map[string]interface{}{
			"results":   results,
			"prices":    evalCtx.Prices,
			"now_index": evalCtx.NowIndex,
		})
		return
	}

	result := root.Evaluate(evalCtx)
	logger.EvaluationsTotal.WithLabelValues("point").Inc()
	encoder.Encode(map[string]interface{}{
		"result":    result,
		"now":       evalCtx.Now,
		"now_index": evalCtx.NowIndex,
		"price":     evalCtx.CurrentPrice(),
	})
}
