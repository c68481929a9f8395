package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/homelistingai/outreach/internal/campaign"
	"github.com/homelistingai/outreach/internal/db"
	"github.com/homelistingai/outreach/internal/models"
	"github.com/homelistingai/outreach/internal/transport"
)

var (
	campaignAction    string
	campaignLeadsFile string
	campaignBatchSize int
	campaignThrottle  time.Duration
	campaignAPIURL    string
	campaignUserID    string
)

func init() {
	rootCmd.AddCommand(campaignCmd)
	campaignCmd.AddCommand(campaignRunCmd)

	campaignRunCmd.Flags().StringVar(&campaignAction, "action", "", "action type to assign (required)")
	campaignRunCmd.Flags().StringVar(&campaignLeadsFile, "leads", "", "JSON file with the lead list (required)")
	campaignRunCmd.Flags().IntVar(&campaignBatchSize, "batch-size", 0, "leads per batch (default from config)")
	campaignRunCmd.Flags().DurationVar(&campaignThrottle, "throttle", -1, "wait between batches (default from config)")
	campaignRunCmd.Flags().StringVar(&campaignAPIURL, "api", "", "CRM API base URL; omit for a dry run")
	campaignRunCmd.Flags().StringVar(&campaignUserID, "user", "", "user to notify on completion")
	campaignRunCmd.MarkFlagRequired("action")
	campaignRunCmd.MarkFlagRequired("leads")
}

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Run bulk campaigns",
}

var campaignRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Enroll a lead list into an action in throttled batches",
	Long: "Enroll every deliverable lead from the list into the action.\n" +
		"Without --api, assignments are logged instead of sent. Ctrl-C\n" +
		"aborts the run at the next batch boundary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := readLeads(campaignLeadsFile)
		if err != nil {
			return err
		}

		batchSize := campaignBatchSize
		if batchSize <= 0 {
			batchSize = cfg.Campaign.BatchSize
		}
		throttle := campaignThrottle
		if throttle < 0 {
			throttle = cfg.Throttle()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		var assigner campaign.Assigner = transport.NewLogAssigner()
		var notifier campaign.Notifier = transport.NewLogNotifier()
		if campaignAPIURL != "" {
			assigner = transport.NewHTTPAssigner(campaignAPIURL, nil)
			notifier = transport.NewHTTPNotifier(campaignAPIURL, nil)
		}

		opts := []campaign.Option{
			campaign.WithEventRepository(db.NewEventRepository(database)),
		}
		if campaignUserID != "" {
			opts = append(opts, campaign.WithNotifier(notifier, campaignUserID))
		}
		runner := campaign.New(assigner, opts...)

		summary, err := runner.Run(ctx, leads, campaignAction, batchSize, throttle)
		if err != nil {
			return err
		}

		snap := runner.Snapshot()
		for _, line := range snap.Logs {
			fmt.Println(line)
		}
		if snap.Status == models.CampaignStatusAborted {
			fmt.Printf("aborted after %d of %d leads (%d sent, %d failed, %d skipped)\n",
				snap.Processed, snap.Total, summary.Sent, summary.Failed, summary.Skipped)
		}
		return nil
	},
}

func readLeads(path string) ([]models.Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lead list: %w", err)
	}

	var leads []models.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("failed to parse lead list %s: %w", path, err)
	}
	return leads, nil
}
