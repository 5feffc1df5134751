// Command modelbench sends a fixed list of questions to registered models and
// writes replies and latencies to JSON and CSV for side-by-side review.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"DemoHub/pkg/config"
	"DemoHub/pkg/database"
	svc "DemoHub/pkg/services"
)

type resultItem struct {
	Query      string `json:"query"`
	Model      string `json:"model"`
	Response   string `json:"response"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type runSummary struct {
	RunID     string       `json:"run_id"`
	StartedAt string       `json:"started_at"`
	EndedAt   string       `json:"ended_at"`
	Env       string       `json:"env"`
	LLMOn     bool         `json:"llm_enabled"`
	Models    []string     `json:"models"`
	Results   []resultItem `json:"results"`
}

// parseQueries accepts ["q1", ...] or [{"q": "..."}, ...].
func parseQueries(data []byte) ([]string, error) {
	var arr []any
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("invalid queries file: %w", err)
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		var q string
		switch t := v.(type) {
		case string:
			q = t
		case map[string]any:
			q, _ = t["q"].(string)
		}
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("queries file is empty or malformed")
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []resultItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	_ = w.Write([]string{"query", "model", "duration_ms", "error", "response"})
	for _, it := range items {
		_ = w.Write([]string{it.Query, it.Model, strconv.FormatInt(it.DurationMs, 10), it.Error, it.Response})
	}
	w.Flush()
	return w.Error()
}

func run(ctx context.Context, gw *svc.Gateway, modelIDs, queries []string, timeout time.Duration, log *slog.Logger) []resultItem {
	results := make([]resultItem, 0, len(modelIDs)*len(queries))
	for _, id := range modelIDs {
		model, err := gw.Resolve(ctx, id)
		if err != nil {
			log.Warn("skip model", slog.String("model", id), slog.Any("err", err))
			continue
		}
		for i, q := range queries {
			qctx, cancel := context.WithTimeout(ctx, timeout)
			start := time.Now()
			reply, err := gw.Generate(qctx, svc.CompletionRequest{
				Model:    model,
				Messages: []svc.ChatMessage{{Role: "user", Text: q}},
			})
			cancel()
			item := resultItem{Query: q, Model: model.ID, Response: reply, DurationMs: time.Since(start).Milliseconds()}
			if err != nil {
				item.Error = err.Error()
			}
			results = append(results, item)
			log.Info("query done", slog.String("model", model.ID), slog.Int("n", i+1), slog.Int64("ms", item.DurationMs))
		}
	}
	return results
}

func main() {
	queriesPath := flag.String("queries", "queries.json", "JSON file with the questions")
	modelsFlag := flag.String("models", "", "comma separated model ids (default: every registered model)")
	outDir := flag.String("out", "bench_out", "output directory")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", slog.Any("err", err))
		os.Exit(1)
	}
	if !cfg.LLMEnabled {
		log.Warn("LLM_ENABLED=false, replies come from the local provider")
	}

	data, err := os.ReadFile(*queriesPath)
	if err != nil {
		log.Error("read queries", slog.Any("err", err))
		os.Exit(1)
	}
	queries, err := parseQueries(data)
	if err != nil {
		log.Error("parse queries", slog.Any("err", err))
		os.Exit(1)
	}

	db, err := database.OpenAndMigrate(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.Error("database", slog.Any("err", err))
		os.Exit(1)
	}
	ctx := context.Background()
	reg := svc.NewRegistry(db, cfg.DefaultModelID)
	if err := reg.Seed(ctx, svc.BuiltinModels(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GeminiAPIKey, cfg.GeminiModel)); err != nil {
		log.Error("seed models", slog.Any("err", err))
		os.Exit(1)
	}
	gw := svc.NewGateway(reg, cfg.LLMEnabled, log)

	var ids []string
	for _, id := range strings.Split(*modelsFlag, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		list, err := reg.List(ctx)
		if err != nil {
			log.Error("list models", slog.Any("err", err))
			os.Exit(1)
		}
		for _, m := range list {
			ids = append(ids, m.ID)
		}
	}

	started := time.Now()
	summary := runSummary{
		RunID:     started.Format("20060102-150405"),
		StartedAt: started.Format(time.RFC3339),
		Env:       cfg.AppEnv,
		LLMOn:     cfg.LLMEnabled,
		Models:    ids,
	}
	summary.Results = run(ctx, gw, ids, queries, cfg.StreamTimeout, log)
	summary.EndedAt = time.Now().Format(time.RFC3339)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("create out dir", slog.Any("err", err))
		os.Exit(1)
	}
	base := filepath.Join(*outDir, "bench_"+summary.RunID)
	if err := writeJSON(base+".json", summary); err != nil {
		log.Error("write json", slog.Any("err", err))
		os.Exit(1)
	}
	if err := writeCSV(base+".csv", summary.Results); err != nil {
		log.Error("write csv", slog.Any("err", err))
		os.Exit(1)
	}
	fmt.Println("results:", base+".json")
}
