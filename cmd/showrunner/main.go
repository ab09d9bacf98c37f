// Command showrunner is the conversational media orchestration CLI. It wires
// a language model provider, the built-in media agents and a session store
// into the reasoning engine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/showrunner-ai/showrunner"
	"github.com/showrunner-ai/showrunner/agents"
	"github.com/showrunner-ai/showrunner/config"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/engine"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/llm/anthropic"
	"github.com/showrunner-ai/showrunner/llm/openai"
	"github.com/showrunner-ai/showrunner/logging"
	"github.com/showrunner-ai/showrunner/metrics"
	"github.com/showrunner-ai/showrunner/platform"
	"github.com/showrunner-ai/showrunner/session"
	redisstore "github.com/showrunner-ai/showrunner/session/redis"
	pgstore "github.com/showrunner-ai/showrunner/session/postgres"
)

// version is set via ldflags.
var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:     "showrunner",
		Short:   "Conversational media orchestration engine",
		Version: version,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(newChatCmd(), newAgentsCmd(), newSessionsCmd(), newCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.Provider {
	case "openai":
		sdk := openaisdk.NewClient(oaioption.WithAPIKey(cfg.OpenAIKey))
		return openai.NewClientFromSDK(&sdk, func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "anthropic":
		return anthropic.NewClient(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicKey
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case "mock":
		return llm.NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (core.SessionStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return session.NewInMemoryStore(), nil
	case "redis":
		return redisstore.New(redisstore.Config{Addr: cfg.Store.RedisURL})
	case "postgres":
		store, err := pgstore.New(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, err
		}
		if err := store.CreateSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildRunner(ctx context.Context, cfg *config.Config) (*showrunner.Showrunner, error) {
	client, err := buildClient(cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.Config{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		Output:    os.Stderr,
		Component: "engine",
	})
	opts := []engine.Option{
		engine.WithSessionStore(store),
		engine.WithLogger(logger),
		engine.WithContextBudget(cfg.Engine.ContextBudget),
		engine.WithPlanRetries(cfg.Engine.PlanRetries),
		engine.WithAgentTimeout(cfg.Engine.AgentTimeout.Std()),
		engine.WithConcurrentSteps(cfg.Engine.ConcurrentSteps),
		engine.WithEventBufferSize(cfg.Engine.EventBufferSize),
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, engine.WithMetrics(metrics.NewRecorder(nil)))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	s := showrunner.New(client, opts...)
	if err := agents.RegisterAll(s.Registry(), platformClient(cfg), client); err != nil {
		return nil, err
	}
	return s, nil
}

// platformClient returns the media platform binding. The hosted client is
// configured per deployment; without one the agents report the missing
// binding instead of crashing.
func platformClient(_ *config.Config) platform.Client {
	return unconfiguredPlatform{}
}

type unconfiguredPlatform struct{}

func (unconfiguredPlatform) Upload(context.Context, string, string) (*platform.Media, error) {
	return nil, fmt.Errorf("no media platform configured")
}

func (unconfiguredPlatform) Search(context.Context, string, string, int) ([]platform.SearchResult, error) {
	return nil, fmt.Errorf("no media platform configured")
}

func (unconfiguredPlatform) StreamURL(context.Context, string, float64, float64) (string, error) {
	return "", fmt.Errorf("no media platform configured")
}

func (unconfiguredPlatform) Transcript(context.Context, string) (string, error) {
	return "", fmt.Errorf("no media platform configured")
}

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := buildRunner(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = core.NewID()
			}

			fmt.Printf("session %s (ctrl-d to exit)\n", sessionID)
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}

				_, events, errs, err := s.Chat(cmd.Context(), sessionID, input)
				if err != nil {
					return err
				}
				for ev := range events {
					printEvent(ev)
				}
				if err := <-errs; err != nil {
					fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to resume")
	return cmd
}

func printEvent(ev core.Event) {
	switch ev.Kind {
	case core.EventStepStarted:
		fmt.Printf("  [%s] started\n", ev.Agent)
	case core.EventStepProgress:
		fmt.Printf("  [%s] %s\n", ev.Agent, ev.Text)
	case core.EventStepSucceeded:
		fmt.Printf("  [%s] done\n", ev.Agent)
	case core.EventStepFailed:
		fmt.Printf("  [%s] failed: %s\n", ev.Agent, ev.Text)
	case core.EventStepSkipped:
		fmt.Printf("  [%s] skipped\n", ev.Agent)
	case core.EventStepCancelled:
		fmt.Printf("  [%s] cancelled\n", ev.Agent)
	case core.EventTurnCommitted, core.EventTurnAborted:
		fmt.Printf("turn %s: %v\n", ev.Kind, ev.Payload["status"])
	}
}

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := buildRunner(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			for _, desc := range s.Registry().Descriptors() {
				fmt.Printf("%-12s %s\n", desc.Name, desc.Description)
			}
			return nil
		},
	}
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, sess := range sessions {
				fmt.Printf("%s  %d turn(s)  updated %s\n",
					sess.ID, len(sess.GetTurns()), sess.Updated.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("provider: %s\n", cfg.Provider)
			fmt.Printf("store:    %s\n", cfg.Store.Backend)

			if _, err := buildStore(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("store check failed: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
