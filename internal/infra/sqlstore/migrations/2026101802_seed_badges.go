package migrations

import (
	"context"

	"edu-quiz-service/internal/domain"
	"edu-quiz-service/internal/infra/sqlstore"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			rows := make([]sqlstore.BadgeRow, len(domain.BadgeCatalog))
			for i, b := range domain.BadgeCatalog {
				rows[i] = sqlstore.BadgeRow{
					ID:        b.ID,
					Name:      b.Name,
					Category:  string(b.Category),
					Tier:      string(b.Tier),
					Threshold: b.Threshold,
				}
			}
			_, err := db.NewInsert().
				Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("category = EXCLUDED.category").
				Set("tier = EXCLUDED.tier").
				Set("threshold = EXCLUDED.threshold").
				Returning("NULL").
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, "DELETE FROM badges")
			return err
		},
	)
}
