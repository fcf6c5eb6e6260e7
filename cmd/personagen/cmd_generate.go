package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"personagen/cmd/personagen/ui"
	"personagen/internal/config"
	"personagen/internal/generation"
	"personagen/internal/progress"
	"personagen/internal/session"
	"personagen/internal/tokens"
	"personagen/internal/types"
)

var (
	genProvider  string
	genStyle     string
	genSize      string
	genQuality   string
	genAspect    string
	genReference string
	genCount     int
	genPlain     bool
)

// generateCmd generates an image from a prompt.
var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate an image from a personalized prompt",
	Long: `Generates an image from the given prompt.

Markers like [FIRSTNAME] are resolved against your saved token profile
before the prompt is sent. The call goes through the managed gateway when
configured, falling back to the provider's own API with a local key.

Examples:
  personagen generate "photo of [FIRSTNAME] at [COMPANY]"
  personagen generate --provider gemini --style watercolor "a castle"
  personagen generate --provider stability --aspect-ratio 16:9 --count 2 "a harbor at dawn"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genProvider, "provider", "p", "openai", "provider: openai, gemini, stability")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "style hint (e.g. watercolor, vivid)")
	generateCmd.Flags().StringVar(&genSize, "size", "", "image size (square, landscape, portrait)")
	generateCmd.Flags().StringVar(&genQuality, "quality", "", "image quality (standard, hd)")
	generateCmd.Flags().StringVar(&genAspect, "aspect-ratio", "", "aspect ratio (e.g. 16:9)")
	generateCmd.Flags().StringVar(&genReference, "reference-image", "", "reference image URL or data URI (stability)")
	generateCmd.Flags().IntVar(&genCount, "count", 1, "number of images (1-4, provider permitting)")
	generateCmd.Flags().BoolVar(&genPlain, "plain", false, "plain line output instead of the live view")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	persister, err := buildPersister(cfg)
	if err != nil {
		return err
	}

	store := tokens.NewStore(tokens.StoreConfig{
		OwnerID:       cfg.Tokens.OwnerID,
		DebounceDelay: cfg.GetDebounceDelay(),
		Persister:     persister,
		Logger:        logger,
	})
	defer store.Close()

	ctx := cmd.Context()
	if err := store.Hydrate(ctx); err != nil {
		// A cold profile is not fatal; the defaults still resolve.
		logger.Warn("could not load saved tokens", zap.Error(err))
	}

	gw := generation.BuildGateway(cfg, logger)
	registry := generation.BuildRegistry(cfg, gw, logger)
	statusScript, reasoningScript := buildScripts(cfg)
	coordinator := session.NewCoordinator(session.CoordinatorConfig{
		Store:           store,
		Registry:        registry,
		Logger:          logger,
		StatusScript:    statusScript,
		ReasoningScript: reasoningScript,
	})
	defer coordinator.Close()

	// Edits to the config file during the session swap in fresh provider
	// keys and gateway settings for the next generation.
	watcher, err := config.NewWatcher(configPath, func(fresh *config.Config) {
		if ownerID != "" {
			fresh.Tokens.OwnerID = ownerID
		}
		freshGw := generation.BuildGateway(fresh, logger)
		coordinator.SwapRegistry(generation.BuildRegistry(fresh, freshGw, logger))
	}, logger)
	if err != nil {
		logger.Warn("config hot reload unavailable", zap.Error(err))
	} else {
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config hot reload unavailable", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	req := &types.GenerationRequest{
		Prompt:   strings.Join(args, " "),
		Provider: types.Provider(genProvider),
		Options: types.ProviderOptions{
			Size:              genSize,
			Quality:           genQuality,
			Style:             genStyle,
			AspectRatio:       genAspect,
			Count:             genCount,
			ReferenceImageURL: genReference,
		},
	}

	if genPlain {
		return runGeneratePlain(ctx, coordinator, req)
	}
	return runGenerateView(ctx, coordinator, req)
}

// buildScripts applies the configured pacing to the shipped progress scripts.
// The status stream takes the configured interval; both streams honor the
// elapsed ceiling.
func buildScripts(cfg *config.Config) (status, reasoning progress.Script) {
	status = progress.GenerationScript()
	status.Interval = cfg.GetProgressInterval()
	status.Ceiling = cfg.GetProgressCeiling()

	reasoning = progress.ReasoningScript()
	reasoning.Ceiling = cfg.GetProgressCeiling()
	return status, reasoning
}

// runGenerateView drives the live bubbletea view.
func runGenerateView(ctx context.Context, coordinator *session.Coordinator, req *types.GenerationRequest) error {
	model := ui.NewGenerateModel(req.Prompt, string(req.Provider), coordinator.Cancel)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	_, err := coordinator.Generate(ctx, req, session.Events{
		OnStatus:    func(status string) { program.Send(ui.StatusMsg(status)) },
		OnReasoning: func(text string) { program.Send(ui.ReasoningMsg(text)) },
		OnProgress:  func(percent int) { program.Send(ui.ProgressMsg(percent)) },
		OnResult:    func(result *types.GenerationResult) { program.Send(ui.ResultMsg{Result: result}) },
		OnError:     func(err error) { program.Send(ui.ErrorMsg{Err: err}) },
		OnCancelled: func() { program.Send(ui.CancelledMsg{}) },
	})
	if err != nil {
		return err
	}

	final, err := program.Run()
	if err != nil {
		return err
	}

	if m, ok := final.(ui.GenerateModel); ok && m.Err() != nil {
		// The view already showed the failure; a non-zero exit remains.
		return fmt.Errorf("generation failed: %w", m.Err())
	}
	return nil
}

// runGeneratePlain prints the streams as plain lines, for logs and scripts.
func runGeneratePlain(ctx context.Context, coordinator *session.Coordinator, req *types.GenerationRequest) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	done := make(chan error, 1)
	_, err := coordinator.Generate(ctx, req, session.Events{
		OnStatus: func(status string) { fmt.Println(status) },
		OnReasoning: func(text string) {
			if verbose {
				fmt.Println("  · " + text)
			}
		},
		OnResult: func(result *types.GenerationResult) {
			urls := result.ImageURLs
			if len(urls) == 0 {
				urls = []string{result.ImageURL}
			}
			for _, url := range urls {
				fmt.Println(url)
			}
			done <- nil
		},
		OnError:     func(err error) { done <- err },
		OnCancelled: func() { done <- context.Canceled },
	})
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			coordinator.Cancel()
			return <-done
		}
	})
	return g.Wait()
}
