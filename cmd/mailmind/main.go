package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mailmind-app/mailmind/internal/analyze"
	"github.com/mailmind-app/mailmind/internal/config"
	"github.com/mailmind-app/mailmind/internal/history"
	"github.com/mailmind-app/mailmind/internal/inbox"
	"github.com/mailmind-app/mailmind/internal/oracle"
	"github.com/mailmind-app/mailmind/internal/store"
	"github.com/mailmind-app/mailmind/internal/web"
)

var (
	cfgFile string
	verbose bool
)

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailmind",
		Short: "MailMind - AI email analysis and smart replies",
		Long: `MailMind analyzes the emails in your local mailbox store: it summarizes
each message, detects its tone, categorizes it against your keyword rules,
and drafts a suggested reply.

Running mailmind with no subcommand processes every new email in
database.json and writes the results back in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mailmind/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create starter data files in the current directory",
		Long: `Write a default rules file (template.json), default feature settings
(AI_settings.json), and an empty mailbox store (database.json) if they do
not already exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch recent emails from your inbox into the store",
		Long: `Connect to your mailbox over IMAP and merge recent messages into
database.json. New messages are flagged for analysis on the next run.

Requires inbox settings in the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest()
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the local dashboard API",
		Long: `Start a local HTTP server exposing the mailbox store, analysis runs,
rules, and settings as a JSON API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent runs to show")

	return cmd
}

// runBatch is the main entry point: one idempotent pass over the store.
// A disabled summarization setting or an empty store is a clean no-op exit;
// a missing store or rules file, or a failed save, is an error.
func runBatch() error {
	log := newLogger()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	settings, err := store.LoadSettings(cfg.Store.Settings)
	if err != nil {
		log.Warn().Err(err).Msg("settings unavailable, using defaults")
	}
	if !settings.EmailSummarization {
		fmt.Println("Email summarization is disabled in settings; nothing to do.")
		return nil
	}

	db, err := store.Load(cfg.Store.Database)
	if err != nil {
		return fmt.Errorf("failed to load email store: %w", err)
	}
	if len(db.Emails) == 0 {
		fmt.Println("No emails in the store.")
		return nil
	}

	rules, err := store.LoadRules(cfg.Store.Rules)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	oracles, err := oracle.New(oracle.Config{
		Provider:     oracle.Provider(cfg.Oracle.Provider),
		BaseURL:      cfg.Oracle.BaseURL,
		Model:        cfg.Oracle.Model,
		OpenAIAPIKey: cfg.Oracle.OpenAIAPIKey,
		OpenAIModel:  cfg.Oracle.OpenAIModel,
	})
	if err != nil {
		return fmt.Errorf("failed to set up oracles: %w", err)
	}

	var journal analyze.Recorder
	j, err := history.Open(cfg.History)
	if err != nil {
		log.Warn().Err(err).Msg("run journal unavailable")
	} else {
		defer j.Close()
		journal = j
	}

	ctx, cancel := signalContext()
	defer cancel()

	proc := analyze.NewProcessor(oracles, settings, rules.Rules, log)
	runner := analyze.NewRunner(db, cfg.Store.Database, proc, settings, rules, journal, log)

	stats, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to save email store: %w", err)
	}

	fmt.Println()
	fmt.Printf("📊 Done: %d processed, %d skipped", stats.Processed, stats.Skipped)
	if stats.Degraded > 0 {
		fmt.Printf(", %d degraded", stats.Degraded)
	}
	fmt.Println()

	return nil
}

func runInit() error {
	created := 0

	if _, err := os.Stat(store.DefaultRulesPath); os.IsNotExist(err) {
		rules := store.DefaultRules()
		if err := rules.Save(store.DefaultRulesPath); err != nil {
			return fmt.Errorf("failed to write rules: %w", err)
		}
		fmt.Printf("✅ Created %s with default categories\n", store.DefaultRulesPath)
		created++
	}

	if _, err := os.Stat(store.DefaultSettingsPath); os.IsNotExist(err) {
		settings := store.DefaultSettings()
		if err := settings.Save(store.DefaultSettingsPath); err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
		fmt.Printf("✅ Created %s with all features enabled\n", store.DefaultSettingsPath)
		created++
	}

	if _, err := os.Stat(store.DefaultDatabasePath); os.IsNotExist(err) {
		db := &store.Database{Emails: []*store.Email{}}
		if err := db.Save(store.DefaultDatabasePath); err != nil {
			return fmt.Errorf("failed to write store: %w", err)
		}
		fmt.Printf("✅ Created empty %s\n", store.DefaultDatabasePath)
		created++
	}

	configPath := resolveConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath, config.Default()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("✅ Created config at %s\n", configPath)
		created++
	}

	if created == 0 {
		fmt.Println("All data files already exist; nothing to do.")
	} else {
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  1. Run 'mailmind ingest' to pull emails from your inbox")
		fmt.Println("     (configure inbox settings first, see 'mailmind ingest --help')")
		fmt.Println("  2. Run 'mailmind' to analyze them")
		fmt.Println("  3. Run 'mailmind serve' to browse the results")
	}

	return nil
}

func runIngest() error {
	log := newLogger()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateInbox(); err != nil {
		fmt.Println("📧 Inbox sync is not configured.")
		fmt.Println()
		fmt.Println("Add the following to your config file:")
		fmt.Println()
		fmt.Println("inbox:")
		fmt.Println("  enabled: true")
		fmt.Println("  provider: gmail")
		fmt.Println("  email: your-email@gmail.com")
		fmt.Println("  password: your-app-password  # Use an App Password, not your main password")
		return err
	}

	db, err := store.Load(cfg.Store.Database)
	if errors.Is(err, os.ErrNotExist) {
		db = &store.Database{Emails: []*store.Email{}}
	} else if err != nil {
		return fmt.Errorf("failed to load email store: %w", err)
	}

	syncer := inbox.NewSyncer(cfg.Inbox, log)
	if err := syncer.Connect(); err != nil {
		return fmt.Errorf("failed to connect to inbox: %w", err)
	}
	defer syncer.Close()

	fmt.Printf("📬 Fetching emails from the last %d days...\n", cfg.Inbox.Days)

	fetched, err := syncer.Fetch()
	if err != nil {
		return fmt.Errorf("failed to fetch emails: %w", err)
	}

	added := inbox.Merge(db, fetched)
	if err := db.Save(cfg.Store.Database); err != nil {
		return fmt.Errorf("failed to save email store: %w", err)
	}

	fmt.Printf("✅ %d fetched, %d new\n", len(fetched), added)
	if added > 0 {
		fmt.Println("Run 'mailmind' to analyze the new emails.")
	}

	return nil
}

func runServe() error {
	log := newLogger()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	oracles, err := oracle.New(oracle.Config{
		Provider:     oracle.Provider(cfg.Oracle.Provider),
		BaseURL:      cfg.Oracle.BaseURL,
		Model:        cfg.Oracle.Model,
		OpenAIAPIKey: cfg.Oracle.OpenAIAPIKey,
		OpenAIModel:  cfg.Oracle.OpenAIModel,
	})
	if err != nil {
		return fmt.Errorf("failed to set up oracles: %w", err)
	}

	var journal *history.Journal
	if j, err := history.Open(cfg.History); err != nil {
		log.Warn().Err(err).Msg("run journal unavailable")
	} else {
		defer j.Close()
		journal = j
	}

	ctx, cancel := signalContext()
	defer cancel()

	server := web.NewServer(cfg, oracles, journal, log)
	return server.ListenAndServe(ctx)
}

func runStatus(limit int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if db, err := store.Load(cfg.Store.Database); err == nil {
		pending := 0
		for _, e := range db.Emails {
			if e.NeedsAnalysis() {
				pending++
			}
		}
		fmt.Println("📊 Store")
		fmt.Println(strings.Repeat("━", 40))
		fmt.Printf("  Emails:   %d\n", len(db.Emails))
		fmt.Printf("  Analyzed: %d\n", len(db.Emails)-pending)
		fmt.Printf("  Pending:  %d\n", pending)
		fmt.Println()
	}

	journal, err := history.Open(cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	defer journal.Close()

	runs, err := journal.RecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to read runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No analysis runs recorded yet.")
		return nil
	}

	fmt.Printf("📜 Recent Runs (last %d)\n", limit)
	fmt.Println(strings.Repeat("━", 40))

	for _, r := range runs {
		status := "✅"
		if r.Degraded > 0 {
			status = "⚠️ "
		}
		fmt.Printf("%s %s - %d processed, %d skipped, %d degraded\n",
			status,
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Processed,
			r.Skipped,
			r.Degraded,
		)
	}

	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	return ctx, cancel
}
