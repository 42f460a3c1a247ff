package adapthttp

import (
	"fmt"
	"net/http"
	"time"

	"babymeasure/internal/app"
	"babymeasure/internal/domain"
)

func (s *Server) handleChartsDaily(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	points, err := s.svc.Charts.GetDaily(r.Context(), days)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":  days,
		"today": time.Now().In(s.loc).Format("2006-01-02"),
		"items": points,
	})
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	c, err := pathCategory(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	rng, err := s.rangeQuery(r)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	png, err := s.svc.Charts.RenderChart(r.Context(), c, rng)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// rangeQuery reads the optional from and to days. A missing from selects
// the most recent window; a missing to means now.
func (s *Server) rangeQuery(r *http.Request) (*domain.TimeRange, error) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" {
		return nil, fmt.Errorf("%w: to requires from", app.ErrInvalidInput)
	}
	start, err := time.ParseInLocation("2006-01-02", from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", app.ErrInvalidInput, err)
	}
	end := time.Now().In(s.loc)
	if to != "" {
		day, err := time.ParseInLocation("2006-01-02", to, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: to: %v", app.ErrInvalidInput, err)
		}
		end = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: from after to", app.ErrInvalidInput)
	}
	return &domain.TimeRange{Start: start, End: end}, nil
}
