// Package answer talks to the remote answer service that turns a query and its
// chat history into a reply.
package answer

import (
	"context"
	"encoding/json"

	"chatkit/src/config"
	"chatkit/src/models"
)

// NoResponse is the reply text used when the service returns neither field.
const NoResponse = "(No response)"

// Answerer turns a request into a reply.
type Answerer interface {
	Answer(ctx context.Context, req Request) (*Response, error)
}

// AnswererFunc adapts a function to Answerer.
type AnswererFunc func(ctx context.Context, req Request) (*Response, error)

func (f AnswererFunc) Answer(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Request is the JSON body posted to the answer endpoint.
type Request struct {
	Namespace    string                `json:"namespace"`
	Query        string                `json:"query"`
	Type         string                `json:"type,omitempty"`
	TopK         int                   `json:"top_k,omitempty"`
	AIModel      string                `json:"aiModel,omitempty"`
	Temperature  *float64              `json:"temperature,omitempty"`
	KioskMode    bool                  `json:"kiosk_mode"`
	Threshold    *float64              `json:"threshold,omitempty"`
	ChatHistory  []models.HistoryEntry `json:"chatHistory"`
	HeaderPrompt string                `json:"headerPrompt,omitempty"`
	FooterPrompt string                `json:"footerPrompt,omitempty"`
}

// Response is whatever JSON object the service returned.
type Response struct {
	Fields map[string]any
}

func (r *Response) UnmarshalJSON(data []byte) error {
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		// non-object bodies still parse, they just carry no answer
		r.Fields = map[string]any{}
		return nil
	}
	r.Fields = fields
	return nil
}

// Text returns the answer field, else the response field, else NoResponse.
func (r *Response) Text() string {
	if r == nil {
		return NoResponse
	}
	for _, key := range []string{"answer", "response"} {
		if s, ok := r.Fields[key].(string); ok && s != "" {
			return s
		}
	}
	return NoResponse
}

// BuildRequest merges the configured defaults with the dynamic query and history.
// The threshold is only sent in kiosk mode.
func BuildRequest(api config.APISettings, query string, history []models.HistoryEntry) Request {
	if history == nil {
		history = []models.HistoryEntry{}
	}
	req := Request{
		Namespace:    api.Namespace,
		Query:        query,
		Type:         api.Type,
		TopK:         api.TopK,
		AIModel:      api.AIModel,
		Temperature:  api.Temperature,
		KioskMode:    api.KioskMode,
		ChatHistory:  history,
		HeaderPrompt: api.HeaderPrompt,
		FooterPrompt: api.FooterPrompt,
	}
	if api.KioskMode {
		req.Threshold = api.Threshold
	}
	return req
}
