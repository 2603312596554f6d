package cli

import (
	"context"
	"fmt"
	"log"

	"adaptiq-quiz-service/internal/config"
	"adaptiq-quiz-service/internal/importer"
	pgstore "adaptiq-quiz-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewImportCmd runs the one-shot Open Trivia DB question import.
func NewImportCmd(configPath *string) *cobra.Command {
	var amount int
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import questions from the Open Trivia Database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, amount, cmd.Flags().Changed("amount"))
		},
	}
	cmd.Flags().IntVar(&amount, "amount", 10, "questions per category and difficulty")
	return cmd
}

func runImport(ctx context.Context, configPath string, amount int, amountSet bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if !amountSet && cfg.Import.Amount > 0 {
		amount = cfg.Import.Amount
	}
	client := importer.NewClient(cfg.Import.BaseURL)
	job := importer.NewImporter(client, pgstore.NewQuestionStore(pool), cfg.Import.Categories)

	log.Printf("starting question import...")
	total, err := job.Run(ctx, amount)
	if err != nil {
		return err
	}
	log.Printf("import completed, %d questions imported", total)
	return nil
}
