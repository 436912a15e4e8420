// Package api is the HTTP gateway in front of the engine. Mutating
// requests are signed action envelopes; the server recovers the signer and
// hands it to the engine as the authenticated actor. A websocket hub
// streams fills and resolutions.
package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/core/market"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/predict"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/crypto"
)

type Server struct {
	app    *predict.App
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(app *predict.App, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		app:    app,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{id}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/markets/{id}/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/accounts/{address}", s.handleGetAccount).Methods("GET")
	api.HandleFunc("/accounts/{address}/positions", s.handleGetPositions).Methods("GET")

	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/claim", s.handleClaim).Methods("POST")

	api.HandleFunc("/admin/markets", s.handleCreateMarket).Methods("POST")
	api.HandleFunc("/admin/markets/resolve", s.handleResolveMarket).Methods("POST")
	api.HandleFunc("/admin/fees/collect", s.handleCollectFees).Methods("POST")

	api.HandleFunc("/bridge/transfers", s.handleBridgeTransfer).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the gateway. Blocks until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ---- Signed action plumbing ----

// decodeAction parses the envelope and recovers the signer from the raw
// payload bytes. The payload is only unmarshalled after recovery so the
// signed bytes are exactly what the engine acts on.
func decodeAction(r *http.Request, want string, payload any) (common.Address, error) {
	var env SignedAction
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return common.Address{}, fmt.Errorf("%w: bad envelope: %v", core.ErrInvalidArgument, err)
	}
	if env.Action != want {
		return common.Address{}, fmt.Errorf("%w: action %q, expected %q", core.ErrInvalidArgument, env.Action, want)
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(env.Signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: bad signature hex", core.ErrInvalidArgument)
	}
	actor, err := crypto.RecoverActor(env.Payload, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
	}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return common.Address{}, fmt.Errorf("%w: bad payload: %v", core.ErrInvalidArgument, err)
	}
	return actor, nil
}

func parseOutcome(s string) (market.Outcome, error) {
	switch strings.ToLower(s) {
	case "yes":
		return market.Yes, nil
	case "no":
		return market.No, nil
	default:
		return market.Unresolved, fmt.Errorf("%w: outcome %q", core.ErrInvalidArgument, s)
	}
}

// ---- Mutating handlers ----

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var p PlaceOrderPayload
	actor, err := decodeAction(r, "place_order", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	outcome, err := parseOutcome(p.Outcome)
	if err != nil {
		respondError(w, err)
		return
	}
	res, err := s.app.PlaceOrder(actor, p.Market, outcome, p.Bid, p.Price, p.Qty)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := PlaceOrderResponse{OrderID: res.OrderID, Resting: res.Resting, Fills: make([]FillInfo, len(res.Fills))}
	for i, f := range res.Fills {
		fi := FillInfo{Market: p.Market, MakerID: f.MakerID, Price: f.Price, Qty: f.Qty}
		resp.Fills[i] = fi
		s.hub.Broadcast(fillsChannel(p.Market), fi)
	}
	respondJSON(w, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var p CancelOrderPayload
	actor, err := decodeAction(r, "cancel_order", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.app.CancelOrder(actor, p.Market, p.Order); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"cancelled": true})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var p WithdrawPayload
	actor, err := decodeAction(r, "withdraw", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.app.Withdraw(actor, p.Amount); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"withdrawn": true})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var p ClaimPayload
	actor, err := decodeAction(r, "claim", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	payout, err := s.app.Claim(actor, p.Market)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, ClaimResponse{Market: p.Market, Payout: payout})
}

func (s *Server) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var p CreateMarketPayload
	actor, err := decodeAction(r, "create_market", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := s.app.CreateMarket(actor, p.Question, p.Category, p.Expire)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]uint64{"market": id})
}

func (s *Server) handleResolveMarket(w http.ResponseWriter, r *http.Request) {
	var p ResolveMarketPayload
	actor, err := decodeAction(r, "resolve_market", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	outcome, err := parseOutcome(p.Outcome)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.app.ResolveMarket(actor, p.Market, outcome); err != nil {
		respondError(w, err)
		return
	}
	s.hub.Broadcast("markets", map[string]any{"market": p.Market, "resolved": true, "outcome": p.Outcome})
	respondJSON(w, map[string]bool{"resolved": true})
}

func (s *Server) handleCollectFees(w http.ResponseWriter, r *http.Request) {
	var p CollectFeesPayload
	actor, err := decodeAction(r, "collect_fees", &p)
	if err != nil {
		respondError(w, err)
		return
	}
	if !common.IsHexAddress(p.To) {
		respondError(w, fmt.Errorf("%w: recipient %q", core.ErrInvalidArgument, p.To))
		return
	}
	amount, err := s.app.CollectFees(actor, common.HexToAddress(p.To))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]int64{"collected": amount})
}

// handleBridgeTransfer accepts the inbound transfer notification from the
// currency bridge relayer. The relayer is trusted infrastructure: in a
// production deployment this endpoint sits behind the relayer's own
// authentication, not user signatures.
func (s *Server) handleBridgeTransfer(w http.ResponseWriter, r *http.Request) {
	var p BridgeTransfer
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, fmt.Errorf("%w: %v", core.ErrInvalidArgument, err))
		return
	}
	if !common.IsHexAddress(p.From) || !common.IsHexAddress(p.To) {
		respondError(w, fmt.Errorf("%w: bad address", core.ErrInvalidArgument))
		return
	}
	err := s.app.OnTransfer(common.HexToAddress(p.From), common.HexToAddress(p.To), p.Symbol, p.Amount, p.Memo)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"accepted": true})
}

// ---- Read handlers ----

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	markets := s.app.Markets()
	out := make([]MarketInfo, len(markets))
	for i, m := range markets {
		out[i] = marketInfo(*m)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	m, err := s.app.Market(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, marketInfo(m))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	orders, err := s.app.OpenOrders(id)
	if err != nil {
		respondError(w, fmt.Errorf("%w: market %d", core.ErrNotFound, id))
		return
	}
	out := make([]OrderInfo, len(orders))
	for i, o := range orders {
		out[i] = OrderInfo{
			ID: o.ID, Market: o.Market, Owner: o.Owner.Hex(),
			Bid: o.Bid, Price: o.Price, Qty: o.Qty, Short: o.Short,
			CreatedAt: o.CreatedAt,
		}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "address")
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, AccountInfo{Address: addr.Hex(), Balance: s.app.Balance(addr)})
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "address")
	if err != nil {
		respondError(w, err)
		return
	}
	rows := s.app.Positions(addr)
	out := make([]PositionInfo, len(rows))
	for i, p := range rows {
		out[i] = PositionInfo{Market: p.Market, Yes: p.Yes, No: p.No}
	}
	respondJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ---- Helpers ----

func marketInfo(m market.Market) MarketInfo {
	return MarketInfo{
		ID: m.ID, Question: m.Question, Category: m.Category,
		Expire: m.Expire, Resolved: m.Resolved, Outcome: m.Outcome.String(),
		CreatedAt: m.CreatedAt,
	}
}

func fillsChannel(marketID uint64) string {
	return fmt.Sprintf("fills:%d", marketID)
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", core.ErrInvalidArgument, name, mux.Vars(r)[name])
	}
	return id, nil
}

func pathAddress(r *http.Request, name string) (common.Address, error) {
	raw := mux.Vars(r)[name]
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: address %q", core.ErrInvalidArgument, raw)
	}
	return common.HexToAddress(raw), nil
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: kindOf(err), Details: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, core.ErrMarketResolved),
		errors.Is(err, core.ErrNotResolved),
		errors.Is(err, core.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidArgument),
		errors.Is(err, core.ErrInvalidDeposit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, core.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, core.ErrMarketResolved):
		return "market_resolved"
	case errors.Is(err, core.ErrNotResolved):
		return "not_resolved"
	case errors.Is(err, core.ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, core.ErrInvalidDeposit):
		return "invalid_deposit"
	case errors.Is(err, core.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, core.ErrOverflow):
		return "overflow"
	default:
		return "internal"
	}
}
