package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/core"
	"github.com/yuchen-hong/labcase-tracker/internal/export"
	"github.com/yuchen-hong/labcase-tracker/internal/llm/openai"
	repo "github.com/yuchen-hong/labcase-tracker/internal/repository"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir   = flag.String("dir", "", "directory of report images to ingest (required)")
		out   = flag.String("out", "", "output XLSX file path (optional)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		printError("Error: AI_API_KEY env var is required\n")
		os.Exit(1)
	}
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}

	ctx := context.Background()

	db, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		printError("Error: opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close(logger)
	if err := db.Migrate(ctx, logger); err != nil {
		printError("Error: migrating database: %v\n", err)
		os.Exit(1)
	}

	images, err := collectImages(*dir)
	if err != nil {
		printError("Error: reading %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(images) == 0 {
		printError("Error: no images found in %s\n", *dir)
		os.Exit(1)
	}
	fmt.Printf("found %d image(s) in %s\n", len(images), *dir)

	users := repo.NewUserRepository(db, logger)
	cases := repo.NewCaseRepository(db, logger)
	reports := repo.NewReportRepository(db, logger)
	extractor := openai.NewClient(openai.FromLLMConfig(cfg.LLM), logger)
	processor := core.NewProcessor(logger, extractor, users, cases, reports)

	result, err := processor.ProcessBatch(ctx, images)
	if err != nil {
		printError("Error: batch aborted: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ingested %d case(s), %d error(s)\n", len(result.Results), len(result.Errors))
	for _, info := range result.Results {
		fmt.Printf("  %s  %s  %s  (%d reports)\n",
			info.User.Name, info.Case.Hospital, info.Case.ReportDate, len(info.Reports))
	}
	for _, msg := range result.Errors {
		fmt.Printf("  error: %s\n", msg)
	}

	if *out != "" {
		userIDs := make([]string, 0, len(result.Results))
		seen := map[string]bool{}
		for _, info := range result.Results {
			if !seen[info.User.ID] {
				seen[info.User.ID] = true
				userIDs = append(userIDs, info.User.ID)
			}
		}
		exporter := export.NewService(users, cases, reports, logger)
		data, err := exporter.ExportCaseReportsXLSX(ctx, userIDs)
		if err != nil {
			printError("Error: export: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			printError("Error: writing %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *out)
	}
}

// collectImages lists supported image files directly under dir, in name order
// so batch order is stable across runs.
func collectImages(dir string) ([]core.ImageInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	images := make([]core.ImageInput, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		mt := mime.TypeByExtension(filepath.Ext(name))
		if mt == "" {
			mt = "application/octet-stream"
		}
		images = append(images, core.ImageInput{Filename: name, MediaType: mt, Data: data})
	}
	return images, nil
}
