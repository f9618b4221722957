package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/competition/prizepool"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/config"
	"github.com/mcdev12/votearena/go/internal/models"
	"github.com/mcdev12/votearena/go/internal/store"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and Connect server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			return serveRun(cmd.Context(), cfg)
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := setupServices(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg, services, reg)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	bgErr := services.runBackground(runCtx)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case runErr = <-serveErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	case runErr = <-bgErr:
		log.Error().Err(runErr).Msg("background service failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("votearena shutdown complete")
	return runErr
}

func resolveCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "resolve <competition-id>",
		Short: "Print a competition's current read model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			competitionID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid competition id: %w", err)
			}
			now := time.Now()
			if at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
			}

			pool, err := setupDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			snap, err := store.NewRepository(pool).LoadSnapshot(cmd.Context(), competitionID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view.Build(snap, now))
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate at this RFC3339 instant instead of now")
	return cmd
}

func prizesCommand() *cobra.Command {
	var (
		hostMinimum string
		revenue     string
		rank        int
	)
	cmd := &cobra.Command{
		Use:   "prizes",
		Short: "Print the prize breakdown for a host minimum and vote revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := prizes(hostMinimum, revenue, rank)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&hostMinimum, "host-minimum", "", "guaranteed host contribution (default 1000)")
	cmd.Flags().StringVar(&revenue, "revenue", "0", "vote revenue already attributed to the pool")
	cmd.Flags().IntVar(&rank, "rank", 0, "also print the prize for this rank")
	return cmd
}

type prizesOutput struct {
	Breakdown prizepool.Breakdown  `json:"breakdown"`
	Prize     *prizepool.PrizeInfo `json:"prize,omitempty"`
}

func prizes(hostMinimum, revenue string, rank int) (prizesOutput, error) {
	var minimum *decimal.Decimal
	if hostMinimum != "" {
		d, err := decimal.NewFromString(hostMinimum)
		if err != nil {
			return prizesOutput{}, fmt.Errorf("invalid --host-minimum: %w", err)
		}
		minimum = &d
	}
	rev, err := decimal.NewFromString(revenue)
	if err != nil {
		return prizesOutput{}, fmt.Errorf("invalid --revenue: %w", err)
	}

	out := prizesOutput{Breakdown: prizepool.Calculate(prizepool.HostMinimum(minimum), rev)}
	if rank != 0 {
		out.Prize = prizepool.ForRank(rank, out.Breakdown)
	}
	return out, nil
}

func emitVoteCommand() *cobra.Command {
	var (
		competition string
		contestant  string
		amount      float64
		count       int
	)
	cmd := &cobra.Command{
		Use:   "emit-vote",
		Short: "Publish a vote_inserted event on the configured transport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.Realtime.Transport == config.TransportMemory {
				return errors.New("the memory transport does not reach other processes; use nats or postgres")
			}

			env, err := voteEnvelope(competition, contestant, amount, count)
			if err != nil {
				return err
			}

			s := &Services{}
			defer s.Close()
			if err := s.setupTransport(cmd.Context(), cfg); err != nil {
				return err
			}
			if err := s.Publisher.Publish(cmd.Context(), env); err != nil {
				return fmt.Errorf("failed to publish vote: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), env)
		},
	}
	cmd.Flags().StringVar(&competition, "competition", "", "competition id")
	cmd.Flags().StringVar(&contestant, "contestant", "", "contestant id")
	cmd.Flags().Float64Var(&amount, "amount", 1, "amount paid")
	cmd.Flags().IntVar(&count, "count", 1, "votes cast")
	_ = cmd.MarkFlagRequired("competition")
	_ = cmd.MarkFlagRequired("contestant")
	return cmd
}

func voteEnvelope(competition, contestant string, amount float64, count int) (events.Envelope, error) {
	competitionID, err := uuid.Parse(competition)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("invalid --competition: %w", err)
	}
	contestantID, err := uuid.Parse(contestant)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("invalid --contestant: %w", err)
	}
	return events.NewEnvelope(competitionID, events.KindVoteInserted, events.VoteInserted{
		VoteID:       uuid.New(),
		ContestantID: contestantID,
		AmountPaid:   models.NewAmount(amount),
		VoteCount:    count,
		CreatedAt:    time.Now().UTC(),
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
