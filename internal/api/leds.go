package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/ledd/internal/api/models"
	"github.com/smazurov/ledd/internal/ledd"
)

// registerLEDRoutes registers the LED control endpoints.
func (s *Server) registerLEDRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List LEDs",
		Description: "List the physical LEDs with their colours, then the aliases, then ALL",
		Tags:        []string{"leds"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.LEDListResponse, error) {
		entries, err := s.service.List(ctx)
		if err != nil {
			return nil, serviceError("Failed to list LEDs", err)
		}
		resp := &models.LEDListResponse{}
		resp.Body.LEDs = make([]models.LEDEntry, len(entries))
		for i, e := range entries {
			resp.Body.LEDs[i] = models.LEDEntry{Name: e.Name, Colour: e.Colour, Kind: e.Kind}
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-supported-states",
		Method:      http.MethodGet,
		Path:        "/api/leds/states",
		Summary:     "Supported States",
		Description: "List the states the LED hardware shows natively. Other flashing states are emulated.",
		Tags:        []string{"leds"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.StatesResponse, error) {
		states, err := s.service.SupportedStates(ctx)
		if err != nil {
			return nil, serviceError("Failed to read supported states", err)
		}
		resp := &models.StatesResponse{}
		resp.Body.States = states
		if resp.Body.States == nil {
			resp.Body.States = []string{}
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led",
		Method:      http.MethodGet,
		Path:        "/api/leds/{name}",
		Summary:     "Get LED State",
		Description: "Get the state of an LED, or of every LED an alias or ALL stands for",
		Tags:        []string{"leds"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDNameInput) (*models.LEDStatesResponse, error) {
		return s.getStates(ctx, []string{input.Name})
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-leds",
		Method:      http.MethodPost,
		Path:        "/api/leds/get",
		Summary:     "Get LED States",
		Description: "Get the state of several targets in one request. Failures are reported per LED.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDGetRequest) (*models.LEDStatesResponse, error) {
		return s.getStates(ctx, input.Body.LEDs)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-leds",
		Method:      http.MethodPost,
		Path:        "/api/leds/set",
		Summary:     "Set LED States",
		Description: "Apply state changes in order. Each target may be an LED, an alias or ALL; failures are reported per LED.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDSetRequest) (*models.LEDResultsResponse, error) {
		reqs := make([]ledd.SetRequest, len(input.Body.LEDs))
		for i, l := range input.Body.LEDs {
			reqs[i] = ledd.SetRequest{
				Name:      l.Name,
				State:     l.State,
				Priority:  l.Priority,
				LockID:    l.LockID,
				FlashType: l.FlashType,
				FlashTime: time.Duration(l.FlashTimeMs) * time.Millisecond,
				Forever:   l.Forever,
			}
		}

		results, err := s.service.Set(ctx, reqs)
		if err != nil {
			return nil, serviceError("Failed to set LEDs", err)
		}
		resp := &models.LEDResultsResponse{}
		resp.Body.LEDs = make([]models.LEDResultRecord, len(results))
		for i, r := range results {
			resp.Body.LEDs[i] = models.LEDResultRecord{Name: r.Name, Success: r.Err == nil, State: r.State, Error: errString(r.Err)}
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "activate-priority",
		Method:      http.MethodPost,
		Path:        "/api/leds/{name}/activate",
		Summary:     "Activate Priority",
		Description: "Turn on a priority for the target. Activating the locked priority takes the lock with the given token.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ActivationRequest) (*models.LEDResultsResponse, error) {
		results, err := s.service.Activate(ctx, input.Name, input.Body.Priority, input.Body.LockID)
		if err != nil {
			return nil, serviceError("Failed to activate priority", err)
		}
		return activationResponse(results), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "deactivate-priority",
		Method:      http.MethodPost,
		Path:        "/api/leds/{name}/deactivate",
		Summary:     "Deactivate Priority",
		Description: "Turn off a priority for the target. Deactivating the locked priority releases the lock held by the given token.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ActivationRequest) (*models.LEDResultsResponse, error) {
		results, err := s.service.Deactivate(ctx, input.Name, input.Body.Priority, input.Body.LockID)
		if err != nil {
			return nil, serviceError("Failed to deactivate priority", err)
		}
		return activationResponse(results), nil
	})
}

func (s *Server) getStates(ctx context.Context, names []string) (*models.LEDStatesResponse, error) {
	reqs := make([]ledd.GetRequest, len(names))
	for i, name := range names {
		reqs[i] = ledd.GetRequest{Name: name}
	}

	results, err := s.service.Get(ctx, reqs)
	if err != nil {
		return nil, serviceError("Failed to read LEDs", err)
	}
	resp := &models.LEDStatesResponse{}
	resp.Body.LEDs = make([]models.LEDStateRecord, len(results))
	for i, r := range results {
		resp.Body.LEDs[i] = models.LEDStateRecord{
			Name:     r.Name,
			Success:  r.Err == nil,
			State:    r.State,
			LockID:   r.LockID,
			Priority: r.Priority,
			Error:    errString(r.Err),
		}
	}
	return resp, nil
}

func activationResponse(results []ledd.ActivationResult) *models.LEDResultsResponse {
	resp := &models.LEDResultsResponse{}
	resp.Body.LEDs = make([]models.LEDResultRecord, len(results))
	for i, r := range results {
		resp.Body.LEDs[i] = models.LEDResultRecord{
			Name:    r.Name,
			Success: r.Err == nil,
			LockID:  r.LockID,
			Error:   errString(r.Err),
		}
	}
	return resp
}
