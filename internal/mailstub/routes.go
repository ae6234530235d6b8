package mailstub

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type messageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type authInput struct {
	Authorization string `header:"Authorization"`
}

func registerHealth(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}

func (s *Stub) registerMessages(api huma.API) {
	type listOutput struct {
		Body struct {
			Messages           []messageRef `json:"messages,omitempty"`
			ResultSizeEstimate int          `json:"resultSizeEstimate"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-messages", Method: http.MethodGet, Path: MessagesPath, Summary: "List inbox messages, newest first", Tags: []string{"Messages"}},
		func(ctx context.Context, input *authInput) (*listOutput, error) {
			if status := s.hit(ctx, RouteList); status != 0 {
				return nil, huma.NewError(status, "forced failure")
			}
			if !s.authorized(input.Authorization) {
				return nil, huma.Error401Unauthorized("Request had invalid authentication credentials.")
			}

			s.mu.Lock()
			refs := make([]messageRef, 0, len(s.messages))
			for _, m := range s.messages {
				refs = append(refs, messageRef{ID: m.ID, ThreadID: m.ThreadID})
			}
			s.mu.Unlock()

			out := &listOutput{}
			out.Body.Messages = refs
			out.Body.ResultSizeEstimate = len(refs)
			return out, nil
		})

	type getInput struct {
		Authorization string `header:"Authorization"`
		ID            string `path:"id"`
	}
	type getOutput struct {
		Body Message
	}
	huma.Register(api, huma.Operation{OperationID: "get-message", Method: http.MethodGet, Path: MessagesPath + "{id}", Summary: "Get a message", Tags: []string{"Messages"}},
		func(ctx context.Context, input *getInput) (*getOutput, error) {
			if status := s.hit(ctx, RouteMessage); status != 0 {
				return nil, huma.NewError(status, "forced failure")
			}
			if !s.authorized(input.Authorization) {
				return nil, huma.Error401Unauthorized("Request had invalid authentication credentials.")
			}

			s.mu.Lock()
			defer s.mu.Unlock()
			for _, m := range s.messages {
				if m.ID == input.ID {
					return &getOutput{Body: m}, nil
				}
			}
			return nil, huma.Error404NotFound("Requested entity was not found.")
		})
}
