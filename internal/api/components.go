package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/hudview/hudview/internal/api/models"
	"github.com/hudview/hudview/internal/control"
)

// ComponentNameInput selects a component by name.
type ComponentNameInput struct {
	Name string `path:"name" example:"GPS" doc:"Component name (Accelerometer, Camera, CameraDisplay, Control, ControlDisplay, GPS, HandlebarButtons, LightSensor)"`
}

func (s *Server) registerComponentRoutes() {
	if s.options.Components == nil {
		s.logger.Debug("No component service, skipping component routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-components",
		Method:      http.MethodGet,
		Path:        "/api/components",
		Summary:     "List Components",
		Description: "Status of every configured component",
		Tags:        []string{"components"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.ComponentListResponse, error) {
		statuses := s.options.Components.Components()
		out := make([]models.ComponentData, 0, len(statuses))
		for _, st := range statuses {
			out = append(out, componentToAPI(st))
		}
		return &models.ComponentListResponse{
			Body: models.ComponentListData{Components: out, Count: len(out)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-component",
		Method:      http.MethodGet,
		Path:        "/api/components/{name}",
		Summary:     "Get Component",
		Description: "Status of one component",
		Tags:        []string{"components"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(ctx context.Context, input *ComponentNameInput) (*models.ComponentResponse, error) {
		st, err := s.options.Components.Component(input.Name)
		if err != nil {
			return nil, componentError(err)
		}
		return &models.ComponentResponse{Body: componentToAPI(st)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-component",
		Method:      http.MethodPost,
		Path:        "/api/components/{name}/restart",
		Summary:     "Restart Component",
		Description: "Stop and start one enabled component",
		Tags:        []string{"components"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409, 500},
	}, func(ctx context.Context, input *ComponentNameInput) (*models.ComponentResponse, error) {
		if err := s.options.Components.Restart(input.Name); err != nil {
			return nil, componentError(err)
		}
		st, err := s.options.Components.Component(input.Name)
		if err != nil {
			return nil, componentError(err)
		}
		s.logger.Info("Component restarted via API", "component", input.Name)
		return &models.ComponentResponse{Body: componentToAPI(st)}, nil
	})
}

func componentError(err error) error {
	switch {
	case errors.Is(err, control.ErrUnknownComponent), errors.Is(err, control.ErrNotConfigured):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, control.ErrDisabled):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError("Component operation failed", err)
	}
}

func componentToAPI(st control.Status) models.ComponentData {
	return models.ComponentData{
		Name:         st.Name,
		Program:      st.Program,
		Enabled:      st.Enabled,
		State:        st.State,
		PID:          st.PID,
		StartedAt:    st.StartedAt,
		ExitCode:     st.ExitCode,
		RestartCount: st.RestartCount,
		LastError:    st.LastError,
		LastLine:     st.LastLine,
	}
}
