package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"concept-visualizer-be/internal/config"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/chunker"
	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/formatter"
	"concept-visualizer-be/pkg/llm/factory"
	"concept-visualizer-be/pkg/render"
	"concept-visualizer-be/pkg/utils"

	"github.com/fatih/color"
)

func main() {
	file := flag.String("file", "", "path to a plain text file")
	out := flag.String("out", "", "write the formatted html here")
	skipRender := flag.Bool("skip-render", false, "extract and format only")
	flag.Parse()

	if *file == "" {
		color.Red("usage: visualize -file <path> [-out formatted.html] [-skip-render]")
		os.Exit(2)
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	text := string(raw)

	cfg := config.Load()
	sysLogger := logger.NewNopLogger()
	newRenderer := func(provider, model string) *render.LLMRenderer {
		p, err := factory.NewLLMProvider(factory.Settings{
			Provider:      provider,
			Model:         model,
			GeminiAPIKey:  cfg.Keys.GoogleGemini,
			OpenAIAPIKey:  cfg.Keys.OpenAI,
			OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
			OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize provider %s: %v", provider, err)
		}
		return render.NewLLMRenderer(p, render.Layout(cfg.Ai.RenderLayout), sysLogger)
	}

	extractionProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider:      cfg.Ai.ExtractionProvider,
		Model:         cfg.Ai.ExtractionModel,
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
		OpenAIAPIKey:  cfg.Keys.OpenAI,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize extraction provider: %v", err)
	}
	formatProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider:      cfg.Ai.FormatProvider,
		Model:         cfg.Ai.FormatModel,
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
		OpenAIAPIKey:  cfg.Keys.OpenAI,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize format provider: %v", err)
	}

	ctx := context.Background()
	color.Cyan("=== Concept Visualizer ===")
	fmt.Printf("Input: %s (%d bytes)\n", *file, len(text))

	start := time.Now()
	extracted, err := concept.NewLLMExtractor(extractionProvider, sysLogger).Extract(ctx, text)
	if err != nil {
		color.Red("Extraction failed: %v", err)
		os.Exit(1)
	}
	refined := concept.Refine(text, extracted, sysLogger)
	color.Green("Extracted %d concepts (%d after refinement) in %s", len(extracted), len(refined), time.Since(start).Round(time.Millisecond))

	survivors := refined
	if !*skipRender {
		renderer := newRenderer(cfg.Ai.DefaultRenderer, renderModel(cfg))
		survivors = survivors[:0:0]
		for _, c := range refined {
			if _, err := renderer.Render(ctx, c.Title, c.Description); err != nil {
				color.Yellow("  skip %q: %v", c.Title, err)
				continue
			}
			survivors = append(survivors, c)
		}
		if len(survivors) == 0 {
			color.Red("No concepts could be visualized")
			os.Exit(1)
		}
		color.Green("Rendered %d of %d visualizations", len(survivors), len(refined))
	}

	indexed := concept.Index(text, survivors)
	for _, c := range indexed {
		fmt.Printf("%s %s [%d,%d)\n", color.CyanString("#%d", c.Index), color.New(color.Bold).Sprint(c.Title), c.StartOffset, c.EndOffset)
		fmt.Printf("    %q\n", utils.SafeSlice(text, c.StartOffset, c.StartOffset+80))
	}

	orchestrator := formatter.NewOrchestrator(
		formatter.NewChunkFormatter(formatProvider, sysLogger),
		chunker.Options{
			TargetParagraphs: cfg.Pipeline.TargetParagraphs,
			MaxParagraphs:    cfg.Pipeline.MaxParagraphs,
			RescueContext:    cfg.Pipeline.RescueContext,
		},
		cfg.Pipeline.FormatConcurrency,
		sysLogger,
	)
	formatted, err := orchestrator.Format(ctx, text, indexed)
	if err != nil {
		color.Red("Formatting failed: %v", err)
		os.Exit(1)
	}
	color.Green("Formatted %d bytes of html in %s total", len(formatted), time.Since(start).Round(time.Millisecond))

	if *out != "" {
		if err := os.WriteFile(*out, []byte(formatted), 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", *out, err)
		}
		fmt.Printf("Wrote %s\n", *out)
	}
}

func renderModel(cfg *config.Config) string {
	if cfg.Ai.DefaultRenderer == factory.ProviderOpenAI {
		return cfg.Ai.OpenAIRenderModel
	}
	return cfg.Ai.GeminiRenderModel
}
