package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"sdmeta/internal/config"
	"sdmeta/internal/database"
	"sdmeta/internal/extract"

	"github.com/knadh/koanf/v2"

	_ "github.com/mattn/go-sqlite3"

	_ "github.com/marcboeker/go-duckdb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

const (
	defaultBatchSize = 25
)

func run() error {
	fromConfig := flag.String("config", "", "Path to config file")
	file := flag.String("file", "", "Path to a PNG or WEBP file")
	dir := flag.String("dir", "", "Path to a directory containing PNG/WEBP files")
	dbpath := flag.String("db", "", "Path to a sqlite or duckdb database (use .duckdb for DuckDB)")
	raw := flag.Bool("raw", false, "Also print the raw metadata text")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *fromConfig != "" {
		cfg, err := config.LoadConfig(*fromConfig)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := config.LogLevel(cfg.String(config.LogLevelKey))
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return scanDirectoriesFromConfig(cfg)
	}

	if *file == "" && *dir == "" {
		flag.Usage()
		return fmt.Errorf("missing file or directory")
	}
	if *file != "" && *dir != "" {
		flag.Usage()
		return fmt.Errorf("please provide either a file or directory, not both")
	}

	if *file != "" {
		return extractFileCommand(*file, *raw)
	}
	return scanDirectoryCommand(*dir, *dbpath, 0, defaultBatchSize)
}

func scanDirectoriesFromConfig(cfg *koanf.Koanf) error {
	paths := cfg.Strings(config.ScanPathsKey)
	if len(paths) == 0 {
		return fmt.Errorf("no directories specified in config under %s", config.ScanPathsKey)
	}
	dbPath := cfg.String(config.DBPathKey)
	workers := cfg.Int(config.WorkersKey)
	batchSize := cfg.Int(config.BatchSizeKey)
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	for _, dir := range paths {
		if err := scanDirectoryCommand(dir, dbPath, workers, batchSize); err != nil {
			return err
		}
	}
	return nil
}

func extractFileCommand(file string, raw bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	rec, err := extract.Extract(data)
	if err != nil {
		return fmt.Errorf("extract %s: %w", file, err)
	}

	fmt.Printf("Format:   %s\n", rec.Format)
	fmt.Printf("Found in: %s\n", rec.FoundIn)
	for _, f := range rec.Fields {
		fmt.Printf("  %s: %s\n", f.Label, f.Value)
	}
	if raw {
		fmt.Printf("Raw:\n%s\n", rec.RawSnippet)
	}
	return nil
}

func getImagePaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".png", ".webp":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no .png or .webp files found in %s", root)
	}
	return paths, nil
}

type fileResult struct {
	database.Record
	err error
}

func scanDirectoryCommand(root, dbPath string, workers, batchSize int) error {
	paths, err := getImagePaths(root)
	if err != nil {
		return fmt.Errorf("error getting image paths: %w", err)
	}

	if dbPath == "" {
		dbPath = filepath.Join(root, "sdmeta.sqlite")
	}

	store, err := database.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	return scanDirectory(paths, store, workers, batchSize)
}

func scanDirectory(paths []string, store database.Store, workers, batchSize int) error {
	ctx := context.Background()

	existingPaths, err := store.ExistingPaths(ctx)
	if err != nil {
		return fmt.Errorf("error retrieving existing files: %w", err)
	}

	// Filter out files that are already in the database
	var filesToProcess []string
	for _, path := range paths {
		if _, exists := existingPaths[path]; !exists {
			filesToProcess = append(filesToProcess, path)
		}
	}

	skipped := len(paths) - len(filesToProcess)
	fmt.Printf("Found %d files, skipping %d already loaded files, processing %d new files\n",
		len(paths), skipped, len(filesToProcess))

	if len(filesToProcess) == 0 {
		fmt.Println("All files are already loaded in the database.")
		return nil
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	filesCh := make(chan string, numWorkers)
	resultsCh := make(chan fileResult)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	worker := func() {
		defer wg.Done()
		for path := range filesCh {
			resultsCh <- extractOne(path)
		}
	}
	for range numWorkers {
		go worker()
	}

	go func() {
		for _, p := range filesToProcess {
			filesCh <- p
		}
		close(filesCh)
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	processed := 0
	batch := make([]database.Record, 0, batchSize)
	for res := range resultsCh {
		processed++
		if res.err != nil {
			fmt.Fprintf(os.Stderr, "\n\nerror processing %s: %v\n\n", res.FilePath, res.err)
		} else {
			batch = append(batch, res.Record)
			if len(batch) >= batchSize {
				if err := store.InsertBatch(ctx, batch); err != nil {
					fmt.Fprintf(os.Stderr, "\n\nfailed to insert batch into db: %v\n\n", err)
				}
				batch = batch[:0]
			}
		}
		fmt.Printf("\rProcessed %d/%d new files", processed, len(filesToProcess))
	}

	if len(batch) > 0 {
		if err := store.InsertBatch(ctx, batch); err != nil {
			fmt.Fprintf(os.Stderr, "\n\nfailed to insert batch into db: %v\n\n", err)
		}
	}

	fmt.Println("\nDone!")
	return nil
}

func extractOne(path string) fileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{Record: database.Record{FilePath: path}, err: err}
	}
	rec, err := extract.Extract(data)
	if err != nil {
		return fileResult{Record: database.Record{FilePath: path}, err: err}
	}
	stored, err := database.FromExtract(path, rec)
	return fileResult{Record: stored, err: err}
}
