package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"photoanimator/internal/catalog"
	"photoanimator/internal/infra"
	"photoanimator/internal/providers/video"
	"photoanimator/internal/storage"
	"photoanimator/internal/studio"
	"photoanimator/internal/tui"
)

func main() {
	_ = godotenv.Load()

	imagePath := flag.String("image", "", "Path of the photo to animate")
	locale := flag.String("locale", "", "Notice language (ru or en)")
	logPath := flag.String("log", "", "Write logs to this file instead of discarding them")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := infra.NewLoggerTo(logOut, cfg.AppEnv)

	pipelineOpts := video.Options{
		Kind:    video.Kind(cfg.Pipeline),
		Latency: cfg.PipelineLatency,
		BaseURL: cfg.PipelineBaseURL,
		APIKey:  cfg.PipelineAPIKey,
		Timeout: cfg.PipelineTimeout,
		FPS:     cfg.FFmpegFPS,
		Width:   cfg.FFmpegWidth,
		Height:  cfg.FFmpegHeight,
		Logger:  &logger,
	}
	pipeline, err := video.New(pipelineOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.Open(context.Background(), storage.Options{
		Driver: cfg.StorageDriver,
		Path:   cfg.StoragePath,
		S3: storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3PathStyle,
			Prefix:       cfg.S3Prefix,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		os.Exit(1)
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}

	lang := *locale
	if lang == "" {
		lang = studio.MatchLocale(os.Getenv("LANG"), cfg.DefaultLocale)
	}
	ctrl, err := studio.NewController(studio.Options{
		Pipeline:        pipeline,
		Logger:          &logger,
		Locale:          lang,
		ExpectedLatency: video.ExpectedLatency(pipelineOpts),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "controller: %v\n", err)
		os.Exit(1)
	}

	program := tea.NewProgram(tui.NewModel(ctrl, store, *imagePath, cat.SuggestionsFor(ctrl.Locale())))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	_, runErr := program.Run()
	ctrl.Close()
	ctrl.Wait()
	if runErr != nil {
		fmt.Printf("Error running program: %v\n", runErr)
		os.Exit(1)
	}
}
