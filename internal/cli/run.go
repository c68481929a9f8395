package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homelistingai/outreach/internal/db"
	"github.com/homelistingai/outreach/internal/executor"
	"github.com/homelistingai/outreach/internal/logging"
	"github.com/homelistingai/outreach/internal/scheduler"
	"github.com/homelistingai/outreach/internal/transport"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sequence scheduler daemon",
	Long: "Run the scheduler loop that advances active sequence instances\n" +
		"until interrupted. Email and SMS deliveries are logged (dry run)\n" +
		"unless real transports are configured.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.Component("daemon")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		eventRepo := db.NewEventRepository(database)

		defs, err := loadDefinitions()
		if err != nil {
			return fmt.Errorf("failed to load sequence definitions: %w", err)
		}
		logger.Info().Int("definitions", len(defs)).Msg("sequence definitions loaded")

		exec := executor.New(
			transport.NewConsoleEmailTransport(),
			executor.WithSMSTransport(transport.NewConsoleSMSTransport()),
			executor.WithEventRepository(eventRepo),
			executor.WithUnsubscribeBaseURL(cfg.Mail.UnsubscribeBaseURL),
		)

		sched := scheduler.New(scheduler.Config{
			TickInterval:            cfg.TickInterval(),
			ExecuteTimeout:          cfg.ExecuteTimeout(),
			MaxConcurrentExecutions: cfg.Scheduler.MaxConcurrentExecutions,
		}, scheduler.NewStore(), exec, eventRepo)

		if err := sched.Start(ctx); err != nil {
			return err
		}
		logger.Info().Msg("daemon running, press ctrl-c to stop")

		<-ctx.Done()
		return sched.Stop()
	},
}
