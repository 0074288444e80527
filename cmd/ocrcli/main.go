// ocrcli is a command-line tool for converting PDF documents to Markdown.
//
// It runs the same pipeline as the queue worker, but synchronously and
// without PostgreSQL: useful for local conversion, cache maintenance and
// submitting jobs to a running worker.
//
// Usage:
//
//	ocrcli convert -pdf document.pdf [-out output/]
//	ocrcli image -file page.png
//	ocrcli enqueue -pdf document.pdf
//	ocrcli cache -stats
//	ocrcli cache -clear
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"time"

	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/joho/godotenv"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/cache"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/ocr"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/pipeline"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/queue"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/refine"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/storage"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/textproc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		// Only the queue path needs Redis and PostgreSQL; local commands
		// run with whatever configuration is present.
		cfg = localConfig()
	}
	logger := logging.NewLogger("ocrcli")

	var cmdErr error
	switch os.Args[1] {
	case "convert":
		cmdErr = runConvert(cfg, logger, os.Args[2:])
	case "image":
		cmdErr = runImage(cfg, logger, os.Args[2:])
	case "enqueue":
		cmdErr = runEnqueue(cfg, logger, os.Args[2:])
	case "cache":
		cmdErr = runCache(cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: ocrcli <convert|image|enqueue|cache> [options]")
}

// localConfig is the fallback for commands that need no external services.
func localConfig() *config.Config {
	os.Setenv("REDIS_URL", "redis://localhost:6379")
	os.Setenv("DATABASE_URL", "postgres://localhost/ocr")
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// runConvert converts one PDF synchronously and writes the Markdown
// artifact.
func runConvert(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	pdfPath := fs.String("pdf", "", "Path to the PDF to convert")
	outDir := fs.String("out", cfg.OutputDir, "Output directory for the Markdown artifact")
	_ = fs.Parse(args)

	if *pdfPath == "" {
		return fmt.Errorf("must provide -pdf path")
	}

	store, err := cache.New(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	assembler, err := buildAssembler(cfg, store, logger)
	if err != nil {
		return err
	}

	result, err := assembler.Convert(context.Background(), *pdfPath)
	if err != nil {
		return err
	}

	artifacts, err := storage.NewArtifactStore(*outDir)
	if err != nil {
		return err
	}
	path, err := artifacts.SaveMarkdown(*pdfPath, result.Markdown)
	if err != nil {
		return err
	}

	fmt.Printf("Converted %d pages (%d OCR, %d cached, %d degraded, %d tables) in %s\n",
		result.PageCount, result.OCRPages, result.CachedPages,
		result.DegradedPages, result.TablesDetected, result.Duration.Round(10*time.Millisecond))
	fmt.Printf("Markdown written to %s\n", path)
	return nil
}

// runImage recognizes a single raster image and prints the text.
func runImage(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("image", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the PNG or JPEG image")
	_ = fs.Parse(args)

	if *filePath == "" {
		return fmt.Errorf("must provide -file path")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	pages, err := buildPageProcessor(cfg, cache.NewNoopStore(), logger)
	if err != nil {
		return err
	}
	text, err := pages.ProcessImage(context.Background(), img)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// runEnqueue submits a conversion job to the worker queue.
func runEnqueue(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	pdfPath := fs.String("pdf", "", "Path to the PDF to convert")
	_ = fs.Parse(args)

	if *pdfPath == "" {
		return fmt.Errorf("must provide -pdf path")
	}

	store := cache.NewNoopStore()
	assembler, err := buildAssembler(cfg, store, logger)
	if err != nil {
		return err
	}
	artifacts, err := storage.NewArtifactStore(cfg.OutputDir)
	if err != nil {
		return err
	}
	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
	}, assembler, nil, artifacts, logger)
	if err != nil {
		return err
	}
	defer consumer.Stop(context.Background())

	jobID, err := consumer.EnqueueDocument(context.Background(), *pdfPath, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Job %s enqueued on %s\n", jobID, cfg.QueueName)
	return nil
}

// runCache reports or clears the OCR result cache.
func runCache(cfg *config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	showStats := fs.Bool("stats", false, "Print cache statistics")
	clearAll := fs.Bool("clear", false, "Remove every cached page result")
	_ = fs.Parse(args)

	store, err := cache.New(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch {
	case *clearAll:
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
	case *showStats:
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Entries:     %d\n", stats.Entries)
		fmt.Printf("Size:        %d bytes\n", stats.SizeBytes)
		if !stats.LastUpdate.IsZero() {
			fmt.Printf("Last update: %s\n", stats.LastUpdate.Format("2006-01-02 15:04:05"))
		}
	default:
		return fmt.Errorf("must provide -stats or -clear")
	}
	return nil
}

func buildPageProcessor(cfg *config.Config, store cache.Store, logger *logging.Logger) (*pipeline.PageProcessor, error) {
	engine, err := ocr.New(ocr.KindTesseract, ocr.Options{TesseractPath: cfg.TesseractPath})
	if err != nil {
		return nil, err
	}
	corrections := textproc.LoadCorrections(cfg.CorrectionsPath, logger)
	postprocessor := textproc.NewPostprocessor(corrections)
	return pipeline.NewPageProcessor(cfg, engine, store, postprocessor, logger), nil
}

func buildAssembler(cfg *config.Config, store cache.Store, logger *logging.Logger) (*pipeline.Assembler, error) {
	pages, err := buildPageProcessor(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	refiner, err := refine.New(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewAssembler(cfg, pages, refiner, logger), nil
}
