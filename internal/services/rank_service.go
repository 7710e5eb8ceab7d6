package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
)

// Compile-time check to ensure RankServiceImpl implements RankService
var _ RankService = (*RankServiceImpl)(nil)

// RankServiceImpl recomputes leaderboard positions from accumulated totals.
// The rows are a derived view: this service only sorts and assigns, it never
// originates points or wins.
type RankServiceImpl struct {
	rankRepo repositories.RankRepository
}

// NewRankService creates a new RankServiceImpl
func NewRankService(rankRepo repositories.RankRepository) *RankServiceImpl {
	return &RankServiceImpl{rankRepo: rankRepo}
}

// Recompute reassigns positions for one scope. Ordering: relevant points
// descending, totalWins descending, account creation order. The chain is total,
// so positions are unique 1..N; trend compares against the position stored by
// the previous recompute.
func (s *RankServiceImpl) Recompute(ctx context.Context, scope models.RankScope, gameType models.CompetitionType) error {
	rows, err := s.rankRepo.FindAll(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load leaderboard rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	if scope == models.RankScopeCountry {
		byCountry := make(map[string][]*models.Rank)
		for _, row := range rows {
			byCountry[row.Country] = append(byCountry[row.Country], row)
		}
		for country, group := range byCountry {
			if err := s.assignPositions(ctx, scope, gameType, group); err != nil {
				return fmt.Errorf("failed to recompute country %q: %w", country, err)
			}
		}
		return nil
	}
	return s.assignPositions(ctx, scope, gameType, rows)
}

// RecomputeAffected refreshes every scope a settlement of the given game type
// touches: the world board, the country boards, and the game-type board.
func (s *RankServiceImpl) RecomputeAffected(ctx context.Context, gameType models.CompetitionType) error {
	if err := s.Recompute(ctx, models.RankScopeWorld, ""); err != nil {
		return err
	}
	if err := s.Recompute(ctx, models.RankScopeCountry, ""); err != nil {
		return err
	}
	return s.Recompute(ctx, models.RankScopeWorld, gameType)
}

// GetRankings serves one leaderboard page
func (s *RankServiceImpl) GetRankings(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, country string, page, limit int) ([]*models.Rank, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.rankRepo.FindPage(ctx, scope, gameType, country, page, limit)
}

// assignPositions sorts one group of rows and writes position and trend
func (s *RankServiceImpl) assignPositions(ctx context.Context, scope models.RankScope, gameType models.CompetitionType, rows []*models.Rank) error {
	sort.SliceStable(rows, func(i, j int) bool {
		pi, wi := sortKey(rows[i], gameType)
		pj, wj := sortKey(rows[j], gameType)
		if pi != pj {
			return pi > pj
		}
		if wi != wj {
			return wi > wj
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	updates := make([]repositories.RankPositionUpdate, 0, len(rows))
	for i, row := range rows {
		position := i + 1
		previous := previousPosition(row, scope, gameType)
		trend := models.RankTrendStable
		switch {
		case previous == 0:
			trend = models.RankTrendStable
		case position < previous:
			trend = models.RankTrendUp
		case position > previous:
			trend = models.RankTrendDown
		}
		updates = append(updates, repositories.RankPositionUpdate{
			UserID:   row.UserID,
			Position: position,
			Trend:    trend,
		})
	}
	if err := s.rankRepo.UpdatePositions(ctx, scope, gameType, updates); err != nil {
		return err
	}
	slog.Debug("Leaderboard positions updated", "scope", scope, "gameType", gameType, "rows", len(updates))
	return nil
}

// sortKey returns the points and wins relevant to the targeted leaderboard
func sortKey(row *models.Rank, gameType models.CompetitionType) (int, int) {
	if gameType == "" {
		return row.Points, row.TotalWins
	}
	if stats := row.GameStats(gameType); stats != nil {
		return stats.Points, stats.TotalWins
	}
	return row.Points, row.TotalWins
}

// previousPosition reads the position stored before this recompute overwrites it
func previousPosition(row *models.Rank, scope models.RankScope, gameType models.CompetitionType) int {
	if gameType != "" {
		if stats := row.GameStats(gameType); stats != nil {
			return stats.Position
		}
		return 0
	}
	if scope == models.RankScopeCountry {
		return row.CountryRank.Position
	}
	return row.WorldRank.Position
}
