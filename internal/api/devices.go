package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/hudview/hudview/internal/api/models"
	"github.com/hudview/hudview/internal/camera"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "Enumerate V4L2 capture nodes and their formats",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.DeviceListResponse, error) {
		devices, err := camera.ListDevices(s.options.DevicePattern)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list devices", err)
		}
		return &models.DeviceListResponse{
			Body: models.DeviceListData{Devices: devices, Count: len(devices)},
		}, nil
	})
}
