package mailstub

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// AdminPath prefixes the routes that drive the stub from outside the process.
const AdminPath = "/admin"

func (s *Stub) registerAdmin(api huma.API) {
	type deliverInput struct {
		Body struct {
			Snippet string `json:"snippet" minLength:"1" doc:"Message preview text, usually containing the OTP"`
		}
	}
	type deliverOutput struct {
		Body Message
	}
	huma.Register(api, huma.Operation{OperationID: "deliver-message", Method: http.MethodPost, Path: AdminPath + "/messages", Summary: "Deliver a message to the inbox", Tags: []string{"Admin"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *deliverInput) (*deliverOutput, error) {
			return &deliverOutput{Body: s.Deliver(input.Body.Snippet)}, nil
		})

	type forceInput struct {
		Route string `path:"route" enum:"token,list,message"`
		Body  struct {
			Status int `json:"status" minimum:"400" maximum:"599"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "force-status", Method: http.MethodPut, Path: AdminPath + "/forced/{route}", Summary: "Force a route to answer with a status", Tags: []string{"Admin"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *forceInput) (*struct{}, error) {
			s.ForceStatus(Route(input.Route), input.Body.Status)
			return nil, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-forced", Method: http.MethodDelete, Path: AdminPath + "/forced", Summary: "Clear forced statuses", Tags: []string{"Admin"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *struct{}) (*struct{}, error) {
			s.ClearForced()
			return nil, nil
		})
}
