package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/agent"
	"github.com/docsentry/docsentry/pkg/config"
	"github.com/docsentry/docsentry/pkg/llm"
	"github.com/docsentry/docsentry/pkg/logx"
	"github.com/docsentry/docsentry/pkg/mailer"
	"github.com/docsentry/docsentry/pkg/store"
)

// daily-report runs the expiration and conflict scans against an already
// populated index, prints the report, and optionally emails it. Meant to be
// driven by cron.
func main() {
	godotenv.Load()

	var configPath string
	var noEmail bool
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&noEmail, "no-email", false, "Print the report without sending email")
	flag.Parse()

	logx.Init(logx.Options{Console: true})

	if err := run(configPath, noEmail); err != nil {
		logx.Error().Err(err).Msg("daily report failed")
		os.Exit(1)
	}
}

func run(configPath string, noEmail bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     cfg.LLM.EmbeddingModel,
		BaseURL:   cfg.LLM.BaseURL,
		RateLimit: cfg.LLM.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("initialize embedder: %w", err)
	}

	index, err := store.Open(ctx, store.IndexConfig{
		ConnString: cfg.Index.URL,
		TableName:  cfg.Index.TableName,
		VectorDim:  cfg.Index.VectorDim,
		BatchSize:  cfg.Index.BatchSize,
	}, embedder)
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return fmt.Errorf("index %q does not exist; run docsentry with -docs-dir first", cfg.Index.TableName)
		}
		return fmt.Errorf("open vector index: %w", err)
	}
	defer index.Close()

	var sender types.ReportSender
	if cfg.Email.Enabled && !noEmail {
		sender = mailer.New(mailer.MailerConfig{
			From:       cfg.Email.From,
			To:         cfg.Email.To,
			SMTPServer: cfg.Email.SMTPServer,
			SMTPPort:   cfg.Email.SMTPPort,
			Username:   cfg.Email.Username,
			Password:   cfg.Email.Password,
		})
	}

	contractAgent := agent.NewWithConfig(index, agent.AgentConfig{
		ExpirationWindowDays: cfg.Agent.ExpirationWindowDays,
	})

	report, err := contractAgent.RunDaily(ctx, sender)
	fmt.Println(report)
	if err != nil {
		color.Red("Report generated but delivery failed: %v", err)
		return err
	}

	return nil
}
