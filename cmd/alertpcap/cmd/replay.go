package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/els0r/alertpcap/pkg/alertpcap"
	"github.com/els0r/alertpcap/pkg/replay"
	"github.com/els0r/telemetry/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xlab/tablewriter"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [pcap file]",
		Short: "Replay a pcap file through the capture file cache",
		Long: `Replay a pcap file through the capture file cache

Packets are tracked as bidirectional flows. Flows matching the alert
predicate (--match.* flags) are written to per-flow capture files under
the alert directory, preceded by their buffered pre-alert records.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReplay,
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.FromContext(ctx)

	cfg := cacheConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	matcher, err := alertMatcher()
	if err != nil {
		return err
	}

	cache, err := alertpcap.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize capture file cache: %w", err)
	}

	summary, err := replay.Run(ctx, replay.Config{
		Path:        args[0],
		Cache:       cache,
		Matcher:     matcher,
		BacklogSize: viper.GetInt(flagAlertBacklogSize),
	})
	if cerr := cache.Close(ctx); cerr != nil {
		logger.Errorf("failed to tear down capture file cache: %v", cerr)
	}
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), summary)

	return nil
}

func printSummary(w io.Writer, summary *replay.Summary) {
	table := tablewriter.CreateTable()
	table.UTF8Box()

	table.AddTitle("Replay Summary")
	table.AddHeaders("packets", "flows", "alert flows", "files created", "records written", "backlog flushed", "errors")
	table.AddRow(
		summary.Packets,
		summary.Flows,
		summary.AlertFlows,
		summary.Cache.FilesCreated,
		summary.Cache.RecordsWritten,
		summary.Cache.BacklogRecordsFlushed,
		summary.ParseErrors+summary.EventErrors,
	)

	fmt.Fprintln(w, table.Render())
}
