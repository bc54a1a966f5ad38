package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/ledd/internal/api/models"
)

// registerPatternRoutes registers the pattern endpoints.
func (s *Server) registerPatternRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-patterns",
		Method:      http.MethodGet,
		Path:        "/api/patterns",
		Summary:     "List Patterns",
		Description: "List every defined pattern",
		Tags:        []string{"patterns"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PatternListResponse, error) {
		names, err := s.service.Patterns(ctx)
		if err != nil {
			return nil, serviceError("Failed to list patterns", err)
		}
		return patternList(names), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-playing-patterns",
		Method:      http.MethodGet,
		Path:        "/api/patterns/playing",
		Summary:     "Playing Patterns",
		Description: "List the patterns that are currently playing",
		Tags:        []string{"patterns"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PatternListResponse, error) {
		names, err := s.service.PlayingPatterns(ctx)
		if err != nil {
			return nil, serviceError("Failed to list playing patterns", err)
		}
		return patternList(names), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "play-pattern",
		Method:      http.MethodPost,
		Path:        "/api/patterns/{name}/play",
		Summary:     "Play Pattern",
		Description: "Start a pattern. Playing patterns that drive the same LEDs at the same priority are stopped first.",
		Tags:        []string{"patterns"},
		Errors:      []int{401, 404, 409, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.PatternPlayRequest) (*models.PatternActionResponse, error) {
		if err := s.service.PlayPattern(ctx, input.Name, input.Body.Retrigger); err != nil {
			return nil, serviceError("Failed to play pattern", err)
		}
		return &models.PatternActionResponse{Body: models.PatternActionData{Pattern: input.Name, Action: "play"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-pattern",
		Method:      http.MethodPost,
		Path:        "/api/patterns/{name}/stop",
		Summary:     "Stop Pattern",
		Description: "Stop a playing pattern, applying its end step",
		Tags:        []string{"patterns"},
		Errors:      []int{401, 404, 409, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.PatternNameInput) (*models.PatternActionResponse, error) {
		if err := s.service.StopPattern(ctx, input.Name); err != nil {
			return nil, serviceError("Failed to stop pattern", err)
		}
		return &models.PatternActionResponse{Body: models.PatternActionData{Pattern: input.Name, Action: "stop"}}, nil
	})
}

func patternList(names []string) *models.PatternListResponse {
	if names == nil {
		names = []string{}
	}
	return &models.PatternListResponse{Body: models.PatternListData{Patterns: names}}
}
