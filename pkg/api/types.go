package api

import "encoding/json"

// SignedAction is the envelope for every mutating request: the raw payload
// bytes are what the client signed, so they pass through unre-encoded to
// signature recovery.
type SignedAction struct {
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"` // 0x-prefixed 65-byte hex
}

// Action payloads.

type PlaceOrderPayload struct {
	Market  uint64 `json:"market"`
	Outcome string `json:"outcome"` // "yes" or "no"
	Bid     bool   `json:"bid"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}

type CancelOrderPayload struct {
	Market uint64 `json:"market"`
	Order  uint64 `json:"order"`
}

type WithdrawPayload struct {
	Amount int64 `json:"amount"`
}

type ClaimPayload struct {
	Market uint64 `json:"market"`
}

type CreateMarketPayload struct {
	Question string `json:"question"`
	Category string `json:"category"`
	Expire   int64  `json:"expire"`
}

type ResolveMarketPayload struct {
	Market  uint64 `json:"market"`
	Outcome string `json:"outcome"`
}

type CollectFeesPayload struct {
	To string `json:"to"`
}

// BridgeTransfer mirrors the inbound transfer notification from the
// external currency ledger.
type BridgeTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Symbol string `json:"symbol"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

// Read models.

type MarketInfo struct {
	ID        uint64 `json:"id"`
	Question  string `json:"question"`
	Category  string `json:"category"`
	Expire    int64  `json:"expire"`
	Resolved  bool   `json:"resolved"`
	Outcome   string `json:"outcome"`
	CreatedAt int64  `json:"created_at"`
}

type OrderInfo struct {
	ID        uint64 `json:"id"`
	Market    uint64 `json:"market"`
	Owner     string `json:"owner"`
	Bid       bool   `json:"bid"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
	Short     bool   `json:"short"`
	CreatedAt int64  `json:"created_at"`
}

type AccountInfo struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

type PositionInfo struct {
	Market uint64 `json:"market"`
	Yes    int64  `json:"yes_shares"`
	No     int64  `json:"no_shares"`
}

type PlaceOrderResponse struct {
	OrderID uint64     `json:"order_id"`
	Resting int64      `json:"resting_qty"`
	Fills   []FillInfo `json:"fills"`
}

type FillInfo struct {
	Market  uint64 `json:"market"`
	MakerID uint64 `json:"maker_id"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}

type ClaimResponse struct {
	Market uint64 `json:"market"`
	Payout int64  `json:"payout"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WSSubscribeRequest is the client -> hub control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSEvent is the hub -> client broadcast envelope.
type WSEvent struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}
