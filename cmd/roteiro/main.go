package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/roteiro/config"
	"github.com/mohammad-safakhou/roteiro/internal/llm"
	"github.com/mohammad-safakhou/roteiro/internal/pipeline"
	"github.com/mohammad-safakhou/roteiro/internal/server"
	"github.com/mohammad-safakhou/roteiro/internal/study"
	"github.com/mohammad-safakhou/roteiro/internal/trip"
)

func main() {
	_ = godotenv.Load()

	var root = &cobra.Command{Use: "roteiro", Short: "Staged LLM trip and study planning"}

	var tripReq trip.Request
	var tripCmd = &cobra.Command{
		Use:   "trip",
		Short: "Generate a trip itinerary and print its sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvFallback(&tripReq.Destination, "ROTEIRO_DESTINATION")
			applyEnvFallback(&tripReq.StartDate, "ROTEIRO_START_DATE")
			applyEnvFallback(&tripReq.EndDate, "ROTEIRO_END_DATE")
			applyEnvFallback(&tripReq.Budget, "ROTEIRO_BUDGET")
			applyEnvFallback(&tripReq.Preferences, "ROTEIRO_PREFERENCES")

			if err := tripReq.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}

			outputs, err := runHeadless(trip.Stages(tripReq))
			if err != nil {
				return err
			}
			for _, sec := range trip.Sections() {
				printSection(sec.Title, outputs.Get(sec.Key))
			}
			return nil
		},
	}
	tripCmd.Flags().StringVar(&tripReq.Destination, "destination", "", "destination (city, country)")
	tripCmd.Flags().StringVar(&tripReq.StartDate, "start", "", "start date (YYYY-MM-DD)")
	tripCmd.Flags().StringVar(&tripReq.EndDate, "end", "", "end date (YYYY-MM-DD)")
	tripCmd.Flags().StringVar(&tripReq.Budget, "budget", "", "approximate budget (optional)")
	tripCmd.Flags().StringVar(&tripReq.Preferences, "preferences", "", "preferences and notes (optional)")

	var studyReq study.Request
	var studyCmd = &cobra.Command{
		Use:   "study",
		Short: "Generate study material and print its sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvFallback(&studyReq.Topic, "ROTEIRO_TOPIC")
			applyEnvFallback(&studyReq.Audience, "ROTEIRO_AUDIENCE")
			applyEnvFallback(&studyReq.Objective, "ROTEIRO_OBJECTIVE")

			if err := studyReq.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}

			outputs, err := runHeadless(study.Stages(studyReq))
			if err != nil {
				return err
			}
			for _, sec := range study.Sections(studyReq.AnswerKey) {
				printSection(sec.Title, outputs.Get(sec.Key))
			}
			return nil
		},
	}
	studyCmd.Flags().StringVar(&studyReq.Topic, "topic", "", "study theme")
	studyCmd.Flags().StringVar(&studyReq.Audience, "audience", "", "audience or level (optional)")
	studyCmd.Flags().StringVar(&studyReq.Objective, "objective", "", "learning objective (optional)")
	studyCmd.Flags().BoolVar(&studyReq.AnswerKey, "answer-key", false, "include the answer key stage")

	var serveAddr string
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if serveAddr == "" {
				serveAddr = os.Getenv("ROTEIRO_HTTP_ADDR")
			}
			if serveAddr == "" {
				serveAddr = cfg.Server.Addr
			}
			provider, err := llm.Resolve(cfg.LLM)
			if err != nil {
				return err
			}
			logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
			return server.New(cfg, provider, logger).Run(serveAddr)
		},
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")

	root.AddCommand(tripCmd, studyCmd, serveCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runHeadless resolves the capability from configuration, runs the stages
// and returns the populated state.
func runHeadless(stages []pipeline.Stage) (pipeline.State, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	provider, err := llm.Resolve(cfg.LLM)
	if err != nil {
		return nil, err
	}

	var opts []pipeline.Option
	if cfg.General.Debug {
		opts = append(opts, pipeline.WithLogger(log.New(os.Stderr, "[PIPELINE] ", log.LstdFlags)))
	}
	p, err := pipeline.New(provider, stages, opts...)
	if err != nil {
		return nil, err
	}

	result, state, err := p.Run(context.Background())
	if err != nil {
		return state, err
	}
	return result.Outputs, nil
}

func printSection(title, content string) {
	fmt.Printf("\n=== %s ===\n\n%s\n", strings.ToUpper(title), content)
}

func applyEnvFallback(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}
