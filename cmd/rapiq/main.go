// RAP HeadLine HQ: conversational company-news aggregation.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragulg06/RAP-HeadLine-HQ/api"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/extract"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/generate"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/llm"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/pipeline"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/session"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/source"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rapiq",
	Short: "RAP HeadLine HQ, conversational company-news aggregation",
	Long: `RAP HeadLine HQ
Fetches company news from multiple sources in parallel, merges duplicate
stories, scores them by impact, and answers questions about them in a
conversational chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildOrchestrator wires the pipeline from the loaded config.
func buildOrchestrator() (*pipeline.Orchestrator, error) {
	var sources []source.Source
	for _, sc := range cfg.EnabledSources() {
		switch sc.Kind {
		case "rss":
			sources = append(sources, source.NewRSS(sc, cfg.Fetch.MaxItemsPerSource))
		case "duckduckgo":
			sources = append(sources, source.NewDuckDuckGo(sc, cfg.Fetch.MaxItemsPerSource, cfg.Fetch.UserAgent))
		case "searx":
			sources = append(sources, source.NewSearx(sc, cfg.Fetch.MaxItemsPerSource, cfg.Fetch.UserAgent))
		default:
			return nil, fmt.Errorf("unknown source kind %q", sc.Kind)
		}
	}

	router, err := llm.NewRouterFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	}

	pool := source.NewPool(sources, cfg.Fetch.PerSourceTimeout, cfg.Fetch.PoolDeadline)
	gen := generate.NewGenerator(router, cfg.LLM)
	extractor := extract.NewLLM(router, extract.NewHeuristic(nil))
	return pipeline.NewOrchestrator(cfg, session.NewManager(cfg.Session), extractor, pool, gen), nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("RAP HeadLine HQ %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Query Command ---

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a one-off news question",
	Long:  "Run a single news query without an interactive session, e.g. `rapiq query \"latest on Tesla\"`.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := buildOrchestrator()
		if err != nil {
			return err
		}

		company, _ := cmd.Flags().GetString("company")
		style, _ := cmd.Flags().GetString("style")
		timeRange, _ := cmd.Flags().GetString("range")
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		resp := orch.Query(ctx, models.QueryRequest{
			UserInput:       strings.Join(args, " "),
			Company:         company,
			Style:           style,
			TimeRange:       timeRange,
			ImpactThreshold: threshold,
		})
		fmt.Println(resp.Text)
		if resp.Bundle != nil && resp.Bundle.Degraded {
			fmt.Fprintln(os.Stderr, "note: results may be incomplete (some sources unavailable or window widened)")
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().String("company", "", "company to query (skips extraction)")
	queryCmd.Flags().String("style", "", "response style (professional, casual, bullets, executive, technical)")
	queryCmd.Flags().String("range", "", "time window (1h, 6h, 24h, 1w)")
	queryCmd.Flags().Float64("threshold", 0, "minimum impact score [1,10]")
}

// --- Chat Command ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start interactive chat mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := buildOrchestrator()
		if err != nil {
			return err
		}

		fmt.Println("RAP HeadLine HQ chat. Ask about a company; 'exit' to quit.")
		scanner := bufio.NewScanner(os.Stdin)
		sessionID := ""

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			resp := orch.Query(ctx, models.QueryRequest{SessionID: sessionID, UserInput: line})
			cancel()

			sessionID = resp.SessionID
			fmt.Println(resp.Text)
			fmt.Println()
		}
		return scanner.Err()
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := buildOrchestrator()
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting API server on %s\n", addr)
		return api.NewServer(cfg, orch).ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  RAP HeadLine HQ System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider: %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Time Window:  %s (default)\n", cfg.Session.DefaultRange)
		fmt.Println()

		fmt.Println("  Sources:")
		for _, src := range cfg.Sources {
			state := "disabled"
			if src.Enabled {
				state = "enabled"
			}
			fmt.Printf("    %-12s %-10s credibility %.1f\n", src.ID, state, src.Credibility)
		}
		fmt.Println()

		router, err := llm.NewRouterFromConfig(cfg)
		if err != nil {
			fmt.Printf("  LLM: unavailable (%v)\n", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			fmt.Println("  LLM Providers:")
			for name, pingErr := range router.HealthCheck(ctx) {
				status := "ok"
				if pingErr != nil {
					status = pingErr.Error()
				}
				fmt.Printf("    %-12s %s\n", name, status)
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
