package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/agent"
	"github.com/docsentry/docsentry/pkg/config"
	"github.com/docsentry/docsentry/pkg/ingest"
	"github.com/docsentry/docsentry/pkg/llm"
	"github.com/docsentry/docsentry/pkg/loader"
	"github.com/docsentry/docsentry/pkg/logx"
	"github.com/docsentry/docsentry/pkg/mailer"
	"github.com/docsentry/docsentry/pkg/processor"
	"github.com/docsentry/docsentry/pkg/rag"
	"github.com/docsentry/docsentry/pkg/store"
	"github.com/docsentry/docsentry/server"
)

type options struct {
	configPath string
	docsDir    string
	serve      bool
	addr       string
	debug      bool
}

func main() {
	godotenv.Load()

	opts := parseFlags()
	logx.Init(logx.Options{Console: true, Debug: opts.debug})

	if err := run(opts); err != nil {
		logx.Fatal().Err(err).Msg("docsentry failed")
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to config file")
	flag.StringVar(&opts.docsDir, "docs-dir", "", "Directory of contract documents to ingest")
	flag.BoolVar(&opts.serve, "serve", false, "Start the HTTP/WebSocket server instead of the chat loop")
	flag.StringVar(&opts.addr, "addr", "", "Server listen address (with -serve)")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	return opts
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s: %s", e.Field, e.Message)
		}
		return fmt.Errorf("invalid configuration")
	}
	if opts.docsDir != "" {
		cfg.Loader.DocumentsDir = opts.docsDir
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     cfg.LLM.EmbeddingModel,
		BaseURL:   cfg.LLM.BaseURL,
		RateLimit: cfg.LLM.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("initialize embedder: %w", err)
	}

	chatEngine, err := llm.NewWithConfig(chatConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initialize chat engine: %w", err)
	}

	index, err := store.Create(ctx, store.IndexConfig{
		ConnString: cfg.Index.URL,
		TableName:  cfg.Index.TableName,
		VectorDim:  cfg.Index.VectorDim,
		BatchSize:  cfg.Index.BatchSize,
	}, embedder)
	if err != nil {
		return fmt.Errorf("initialize vector index: %w", err)
	}
	defer index.Close()

	docLoader := loader.NewWithConfig(loader.LoaderConfig{
		PDFToTextPath: cfg.Loader.PDFToText,
	})
	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Processor.ChunkSize,
		ChunkOverlap: cfg.Processor.ChunkOverlap,
	})
	pipeline := ingest.New(docLoader, &chunker, index)
	engine := rag.NewWithConfig(index, chatEngine, rag.EngineConfig{TopK: cfg.Index.TopK})

	if opts.docsDir != "" {
		if err := runIngest(ctx, pipeline, cfg.Loader.DocumentsDir); err != nil {
			return err
		}
	}

	if opts.serve {
		contractAgent := agent.NewWithConfig(index, agent.AgentConfig{
			ExpirationWindowDays: cfg.Agent.ExpirationWindowDays,
		})
		var sender types.ReportSender
		if cfg.Email.Enabled {
			sender = mailer.New(mailer.MailerConfig{
				From:       cfg.Email.From,
				To:         cfg.Email.To,
				SMTPServer: cfg.Email.SMTPServer,
				SMTPPort:   cfg.Email.SMTPPort,
				Username:   cfg.Email.Username,
				Password:   cfg.Email.Password,
			})
		}
		srv := server.New(server.Config{Addr: cfg.Server.Addr}, engine, pipeline, contractAgent, sender)
		return srv.ListenAndServe(ctx)
	}

	return chatLoop(ctx, engine)
}

func chatConfigFrom(cfg *config.Config) llm.ChatConfig {
	return llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	}
}

func runIngest(ctx context.Context, pipeline *ingest.Pipeline, dir string) error {
	color.Blue("\nIngesting contract documents from %s\n", dir)

	spinner := getSpinner("Loading and indexing documents...")
	result, err := pipeline.Run(ctx, dir)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return fmt.Errorf("ingest documents: %w", err)
	}
	if result.Documents == 0 {
		color.Yellow("\nNo documents processed\n")
		return nil
	}

	color.Green("\n✓ Indexed %d documents as %d chunks\n", result.Documents, result.Chunks)
	return nil
}

func chatLoop(ctx context.Context, engine *rag.Engine) error {
	color.Cyan("\nAsk about your contracts (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.ToLower(query) == "exit" {
			break
		}
		if query == "" {
			continue
		}

		querySpinner := getSpinner("Searching contracts...")
		result := engine.Query(ctx, query)
		querySpinner.Finish()
		fmt.Print("\r")

		assistantPrompt("Assistant: %s\n", result.Answer)
		if len(result.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, src := range result.Sources {
				fmt.Printf("  - %s (Page %s)\n", src.Document, src.Page)
			}
		}
	}

	return scanner.Err()
}
