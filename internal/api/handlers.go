package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/evaluator"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/publisher"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/venues/p2p"
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

func cryptoParam(r *http.Request) (string, error) {
	c := strings.TrimSpace(r.URL.Query().Get("crypto"))
	if c == "" {
		c = "BTC"
	}
	c = strings.ToUpper(c)
	if !symbolRe.MatchString(c) {
		return "", fmt.Errorf("invalid crypto symbol %q", c)
	}
	return c, nil
}

func currencyParam(r *http.Request) string {
	cur := strings.TrimSpace(r.URL.Query().Get("currency"))
	if cur == "" {
		cur = "USD"
	}
	return strings.ToUpper(cur)
}

// getPrices returns the raw round: one entry per venue that answered.
func (s *Server) getPrices(w http.ResponseWriter, r *http.Request) {
	crypto, err := cryptoParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	currency := currencyParam(r)

	round := s.collector.Collect(r.Context(), crypto)
	payload := publisher.Scan(round, uuid.NewString(), currency, s.cfg.Rates.RubPerUSD)
	s.writeJSON(w, http.StatusOK, payload)
}

// getVerified returns the single best consensus-backed opportunity, or null
// when the round is too thin or nothing clears the threshold.
func (s *Server) getVerified(w http.ResponseWriter, r *http.Request) {
	crypto, err := cryptoParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	round := s.collector.Collect(r.Context(), crypto)
	var opp *types.Opportunity
	if best, ok := evaluator.Best(round, evaluator.Verified); ok {
		opp = &best
	} else {
		s.log.Debug("verified: no opportunity",
			zap.String("crypto", crypto),
			zap.Int("quotes", len(round.Quotes)))
	}
	s.writeJSON(w, http.StatusOK, publisher.Verified(opp, crypto, time.Now()))
}

func (s *Server) getP2P(w http.ResponseWriter, r *http.Request) {
	boards := p2p.CollectBoards(r.Context(), s.p2p, s.log)
	eb := make([]evaluator.Board, len(boards))
	for i, b := range boards {
		eb[i] = evaluator.Board{Platform: b.Platform, Buy: b.Buy, Sell: b.Sell}
	}
	opps := evaluator.P2PPairs(eb, evaluator.P2P)
	s.writeJSON(w, http.StatusOK, publisher.P2P(opps, time.Now()))
}

func (s *Server) getSchemes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "scheme store is not configured")
		return
	}
	list, err := s.store.Recent(r.Context(), s.cfg.Cron.SchemesLimit)
	if err != nil {
		s.log.Error("schemes: query failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load schemes")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"schemes":   list,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// postSchemesUpdate triggers the same sweep the cron binary runs, gated by
// the admin token.
func (s *Server) postSchemesUpdate(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.adminAuthorized(r); !ok {
		if status == http.StatusUnauthorized {
			s.writeError(w, status, "missing X-Admin-Auth header")
		} else {
			s.writeError(w, status, "invalid admin credentials")
		}
		return
	}
	if s.runner == nil {
		s.writeError(w, http.StatusNotFound, "scheme store is not configured")
		return
	}

	sum, err := s.runner.Sweep(r.Context(), s.cfg.Cron.Cryptos)
	if err != nil {
		s.log.Error("schemes update failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "scheme update failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"new_schemes":     sum.NewSchemes,
		"deleted_schemes": sum.DeletedSchemes,
		"errors":          sum.Errors,
		"timestamp":       sum.Timestamp,
	})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
