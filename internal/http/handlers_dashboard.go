package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"contas/internal/core"
)

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	ov, err := s.getOverview(r.Context(), year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOverviewResponse(ov))
}

func (s *Server) getOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	key := s.overviewKey(year, month)

	if data, found := s.overviewCache.Get(key); found {
		slog.DebugContext(ctx, "Overview cache hit", "year", year, "month", month)
		return data, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	data, err := s.deps.Overview.ReadMonthOverview(cctx, year, month)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("read month overview (year=%d, month=%d): %w", year, month, err)
	}

	s.overviewCache.Set(key, data)
	slog.DebugContext(ctx, "Overview cached",
		"year", year, "month", month,
		"net_cents", data.Net.Cents, "categories", len(data.ByCategory))
	return data, nil
}
