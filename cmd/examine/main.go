package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sdmeta/internal/config"
	"sdmeta/internal/database"
	"sdmeta/internal/llm"

	_ "github.com/mattn/go-sqlite3"

	_ "github.com/marcboeker/go-duckdb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbpath := flag.String("db", "", "Path to a sqlite or duckdb database")
	path := flag.String("path", "", "File path of the record to examine (default: first record)")
	tags := flag.Bool("tags", false, "Suggest training tags for the stored prompt")
	secretsPath := flag.String("secrets", "secrets.yml", "Path to the secrets file (used with -tags)")
	llmURL := flag.String("llm-url", "", "OpenAI-compatible endpoint (used with -tags)")
	llmModel := flag.String("llm-model", "", "Model name (used with -tags)")
	flag.Parse()

	if *dbpath == "" {
		flag.Usage()
		return fmt.Errorf("missing database")
	}

	ctx := context.Background()

	store, err := database.Open(*dbpath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	var rec database.Record
	if *path != "" {
		rec, err = store.GetByPath(ctx, *path)
	} else {
		rec, err = store.First(ctx)
	}
	if err != nil {
		return err
	}

	fields, err := rec.Fields()
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s\n", rec.FilePath)
	fmt.Printf("Format:   %s\n", rec.Format)
	fmt.Printf("Found in: %s\n", rec.FoundIn)
	for _, f := range fields {
		fmt.Printf("  %s: %s\n", f.Label, f.Value)
	}

	if !*tags {
		return nil
	}
	if rec.Prompt == "" {
		return fmt.Errorf("record has no prompt to suggest tags for")
	}

	secrets, err := config.LoadSecrets(*secretsPath)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}
	apiKey := secrets.LLMAPIKey()
	if apiKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for -tags")
	}

	client := llm.New(apiKey, *llmURL, *llmModel)
	suggested, err := client.SuggestTags(ctx, rec.Prompt)
	if err != nil {
		return fmt.Errorf("suggest tags: %w", err)
	}
	fmt.Printf("Suggested tags: %s\n", suggested)
	return nil
}
