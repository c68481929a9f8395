package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/homelistingai/outreach/internal/db"
	"github.com/homelistingai/outreach/internal/models"
)

var (
	eventsType     string
	eventsEntity   string
	eventsEntityID string
	eventsLimit    int
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)

	eventsListCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type (e.g. step.executed)")
	eventsListCmd.Flags().StringVar(&eventsEntity, "entity-type", "", "filter by entity type (instance, campaign, lead)")
	eventsListCmd.Flags().StringVar(&eventsEntityID, "entity-id", "", "filter by entity id")
	eventsListCmd.Flags().IntVar(&eventsLimit, "limit", 50, "max events to show")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		query := db.EventQuery{Limit: eventsLimit}
		if eventsType != "" {
			eventType := models.EventType(eventsType)
			query.Type = &eventType
		}
		if eventsEntity != "" {
			entityType := models.EntityType(eventsEntity)
			query.EntityType = &entityType
		}
		if eventsEntityID != "" {
			query.EntityID = &eventsEntityID
		}

		eventList, err := db.NewEventRepository(database).Query(ctx, query)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(eventList))
		for _, event := range eventList {
			rows = append(rows, []string{
				event.Timestamp.Local().Format(time.DateTime),
				string(event.Type),
				string(event.EntityType),
				event.EntityID,
			})
		}
		return writeTable(os.Stdout, []string{"TIME", "TYPE", "ENTITY", "ID"}, rows)
	},
}
