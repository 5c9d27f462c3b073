package gateway

import (
	"stockdash/internal/dashboard"
	"stockdash/internal/model"
)

// WebSocket message types.
const (
	MsgRender = "RENDER"
	MsgPage   = "PAGE"
	MsgError  = "ERROR"
	MsgPong   = "PONG"
)

// RenderMsg asks for one render pass over the WebSocket.
// A nil Indicators uses the server default.
type RenderMsg struct {
	Type       string `json:"type"`
	ReqID      string `json:"req_id,omitempty"`
	Symbol     string `json:"symbol"`
	Period     string `json:"period"`
	Indicators *bool  `json:"indicators,omitempty"`
}

// PageMsg answers a RenderMsg.
type PageMsg struct {
	Type  string          `json:"type"`
	ReqID string          `json:"req_id,omitempty"`
	Page  *dashboard.Page `json:"page"`
}

// ErrorResponse is the error body of REST endpoints and WebSocket replies.
type ErrorResponse struct {
	Type   string `json:"type,omitempty"`
	ReqID  string `json:"req_id,omitempty"`
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// PeriodInfo is the REST response type for /api/periods.
type PeriodInfo struct {
	Value   model.Period `json:"value"`
	Label   string       `json:"label"`
	Default bool         `json:"default"`
}
