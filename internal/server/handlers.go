package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"CoinCompare/internal/calculator"
	"CoinCompare/internal/model"

	"github.com/gorilla/mux"
)

type coinView struct {
	Name string                  `json:"name"`
	IDs  map[model.Source]string `json:"ids"`
}

type sourceView struct {
	Source  model.Source        `json:"source"`
	Status  model.SourceStatus  `json:"status"`
	Reason  string              `json:"reason,omitempty"`
	Summary *calculator.Summary `json:"summary,omitempty"`
	Points  []model.PricePoint  `json:"points"`
}

type compareResponse struct {
	Coin      string               `json:"coin"`
	Days      int                  `json:"days"`
	FetchedAt time.Time            `json:"fetched_at"`
	Sources   []sourceView         `json:"sources"`
	Combined  model.CombinedSeries `json:"combined"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCoins(w http.ResponseWriter, _ *http.Request) {
	coins := make([]coinView, 0, len(s.coins))
	for _, c := range s.coins {
		coins = append(coins, coinView{Name: c.Name, IDs: c.IDs})
	}
	WriteJSON(w, http.StatusOK, coins)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["coin"]
	coin, ok := s.coins.Lookup(name)
	if !ok {
		WriteError(w, WrapError(ErrNotFound, fmt.Sprintf("unknown coin %q", name), http.StatusNotFound))
		return
	}

	days, err := parseDays(r.URL.Query().Get("days"))
	if err != nil {
		WriteError(w, err)
		return
	}

	cmp := s.comparer.Compare(r.Context(), coin, days)
	if cmp.NoData() {
		s.logger.Warn("no data for comparison", "coin", coin.Name, "days", days)
		WriteError(w, WrapError(ErrNoData, ErrNoData.Error(), http.StatusServiceUnavailable))
		return
	}

	WriteJSON(w, http.StatusOK, newCompareResponse(cmp))
}

func parseDays(raw string) (int, error) {
	if raw == "" {
		return model.DefaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < model.MinDays || days > model.MaxDays {
		return 0, WrapError(ErrInvalidInput,
			fmt.Sprintf("days must be an integer between %d and %d", model.MinDays, model.MaxDays),
			http.StatusBadRequest)
	}
	return days, nil
}

func newCompareResponse(cmp model.Comparison) compareResponse {
	resp := compareResponse{
		Coin:      cmp.Coin,
		Days:      cmp.Days,
		FetchedAt: cmp.FetchedAt,
		Combined:  cmp.Combined,
	}
	for _, r := range cmp.Results() {
		view := sourceView{
			Source: r.Source,
			Status: r.Status,
			Reason: r.Reason,
			Points: r.Series.Points,
		}
		if view.Points == nil {
			view.Points = []model.PricePoint{}
		}
		if summary, err := calculator.Summarize(r.Series); err == nil {
			view.Summary = &summary
		}
		resp.Sources = append(resp.Sources, view)
	}
	return resp
}
