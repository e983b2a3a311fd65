package rest

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/evansbrianrobert/NBAStats/internal/dataset"
	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// Handler serves artifact queries.
type Handler struct {
	store *dataset.Store
	log   *logrus.Entry
}

// NewHandler creates a Handler.
func NewHandler(store *dataset.Store, log *logrus.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.WithField("component", "rest"),
	}
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "nbastats",
	})
}

// GetSeasons lists the seasons that have weighted-stats artifacts.
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	years, err := h.store.WeightedYears()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list seasons")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"seasons": years})
}

// GetWeightedStats returns one season's team-game stat table.
func (h *Handler) GetWeightedStats(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}

	rows, err := h.store.LoadWeighted(year)
	if err != nil {
		respondError(w, http.StatusNotFound, "no weighted stats for season")
		return
	}

	out := make([]teamGameStatsDTO, len(rows))
	for i, row := range rows {
		out[i] = toDTO(row)
	}
	respondJSON(w, http.StatusOK, map[string]any{"year": year, "rows": out})
}

// GetTrainingSummary reports the shape of the built training set.
func (h *Handler) GetTrainingSummary(w http.ResponseWriter, r *http.Request) {
	examples, err := h.store.LoadTraining()
	if err != nil {
		respondError(w, http.StatusNotFound, "no training set built")
		return
	}

	years := make(map[int]int)
	for _, ex := range examples {
		years[ex.Year]++
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"examples":         len(examples),
		"examples_by_year": years,
		"feature_columns":  stats.FeatureColumns,
	})
}

// teamGameStatsDTO is the JSON shape of a TeamGameStats row; missing stat
// values render as nulls.
type teamGameStatsDTO struct {
	Seq      int      `json:"seq"`
	GameIdx  int      `json:"game_idx"`
	HomeTeam string   `json:"home_team"`
	AwayTeam string   `json:"away_team"`
	Home     bool     `json:"home"`
	EFGPct   *float64 `json:"efg_pct"`
	DRtg     *float64 `json:"drtg"`
	ORtg     *float64 `json:"ortg"`
	TOVPct   *float64 `json:"tov_pct"`
	BLKPct   *float64 `json:"blk_pct"`
	ORBPct   *float64 `json:"orb_pct"`
	DRBPct   *float64 `json:"drb_pct"`
	TRBPct   *float64 `json:"trb_pct"`
	ASTPct   *float64 `json:"ast_pct"`
	STLPct   *float64 `json:"stl_pct"`
	FTr      *float64 `json:"ft_rate"`
	ThreePAr *float64 `json:"three_par"`
	TSPct    *float64 `json:"ts_pct"`
	FTPct    *float64 `json:"ft_pct"`
	PTS      *float64 `json:"pts"`
}

func toDTO(r stats.TeamGameStats) teamGameStatsDTO {
	return teamGameStatsDTO{
		Seq:      r.Seq,
		GameIdx:  r.GameIdx,
		HomeTeam: r.HomeTeam,
		AwayTeam: r.AwayTeam,
		Home:     r.Home,
		EFGPct:   optional(r.EFGPct),
		DRtg:     optional(r.DRtg),
		ORtg:     optional(r.ORtg),
		TOVPct:   optional(r.TOVPct),
		BLKPct:   optional(r.BLKPct),
		ORBPct:   optional(r.ORBPct),
		DRBPct:   optional(r.DRBPct),
		TRBPct:   optional(r.TRBPct),
		ASTPct:   optional(r.ASTPct),
		STLPct:   optional(r.STLPct),
		FTr:      optional(r.FTr),
		ThreePAr: optional(r.ThreePAr),
		TSPct:    optional(r.TSPct),
		FTPct:    optional(r.FTPct),
		PTS:      optional(r.PTS),
	}
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
