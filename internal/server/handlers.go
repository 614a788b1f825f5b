package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lottery/internal/blockchain"
	"lottery/internal/logger"
	"lottery/internal/lottery"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DepositRequest struct {
	Operator string `json:"operator"`
	Amount   uint64 `json:"amount"`
}

type PlayRequest struct {
	Player   string `json:"player"`
	Operator string `json:"operator"`
}

type FreePlayRequest struct {
	Player        string `json:"player"`
	ReferralCount uint8  `json:"referralCount"`
}

type AirdropRequest struct {
	Amount uint64 `json:"amount"`
}

type BalanceResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	SOL      string `json:"sol"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.cfg.Engine.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	body, err := decode(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	operator, err := parseAddress("operator", req.Operator)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.cfg.Authorizer.Authorize(r, body, operator); err != nil {
		writeError(w, err)
		return
	}

	if err := s.cfg.Engine.DepositPrizePool(r.Context(), operator, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	body, err := decode(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	player, err := parseAddress("player", req.Player)
	if err != nil {
		writeError(w, err)
		return
	}
	operator, err := parseAddress("operator", req.Operator)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.cfg.Authorizer.Authorize(r, body, player); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.cfg.Engine.Play(r.Context(), player, operator)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFreePlay(w http.ResponseWriter, r *http.Request) {
	var req FreePlayRequest
	body, err := decode(w, r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	player, err := parseAddress("player", req.Player)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.cfg.Authorizer.Authorize(r, body, player); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.cfg.Engine.FreePlay(r.Context(), player, req.ReferralCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	address, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}

	lamports, err := s.cfg.Engine.Balance(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address:  address.String(),
		Lamports: lamports,
		SOL:      blockchain.FormatSOL(lamports),
	})
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.AllowAirdrop {
		http.NotFound(w, r)
		return
	}

	address, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req AirdropRequest
	if _, err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.cfg.Engine.Airdrop(r.Context(), address, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPlays(w http.ResponseWriter, r *http.Request) {
	player, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}

	plays, err := s.cfg.Engine.Plays(r.Context(), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plays)
}

// decode reads the request body into v and returns the raw bytes for signature checks.
func decode(w http.ResponseWriter, r *http.Request, v any) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return body, nil
}

func parseAddress(field, raw string) (solana.PublicKey, error) {
	address, err := blockchain.ParseAddress(raw)
	if err != nil {
		return address, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return address, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := lottery.Kind(err)
	switch {
	case errors.Is(err, errBadRequest):
		kind = "bad_request"
	case errors.Is(err, errForbidden):
		kind = "forbidden"
	}

	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		logger.Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func statusOf(kind string) int {
	switch kind {
	case "bad_request":
		return http.StatusBadRequest
	case "forbidden", "unauthorized", "operator_mismatch", "authorization_mismatch":
		return http.StatusForbidden
	case "insufficient_funds":
		return http.StatusPaymentRequired
	case "insufficient_referrals", "invalid_amount", "arithmetic_overflow":
		return http.StatusUnprocessableEntity
	case "not_initialized":
		return http.StatusNotFound
	case "already_initialized":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
