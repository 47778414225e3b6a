package portfolio

import (
	"context"
	"strings"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
)

type MigrationResult struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Failed   int `json:"failed"`
}

// MigrateHeadlines moves the legacy headline column into profession and
// clears it. Profession wins when both are set. Safe to run repeatedly.
func (s *Service) MigrateHeadlines(ctx context.Context) (MigrationResult, error) {
	var res MigrationResult

	items, err := s.store.ListWithLegacyHeadline(ctx)
	if err != nil {
		return res, apperrors.Internal(err, "failed to load legacy headlines")
	}
	res.Scanned = len(items)

	for _, item := range items {
		_, err := s.mutate(ctx, s.byID(item.ID), func(p *models.PortfolioSubmission, _ bool) error {
			if strings.TrimSpace(p.Profession) == "" {
				p.Profession = strings.TrimSpace(p.LegacyHeadline)
			}
			p.LegacyHeadline = ""
			return nil
		})
		if err != nil {
			res.Failed++
			logger.Warn("headline migration failed", "submission_id", item.ID, "error", err)
			continue
		}
		res.Migrated++
	}

	logger.Info("headline migration done", "scanned", res.Scanned, "migrated", res.Migrated, "failed", res.Failed)
	return res, nil
}
