package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/hudview/hudview/internal/led"
)

// LEDBody sets one LED.
type LEDBody struct {
	Type    string  `json:"type" example:"status" doc:"LED type (board-specific: status, user, act, pwr)"`
	Enabled bool    `json:"enabled" example:"true" doc:"Whether the LED should be on or off"`
	Pattern *string `json:"pattern,omitempty" example:"solid" doc:"Optional LED pattern (solid, blink, heartbeat)"`
}

// LEDRequest represents a request to control an LED
type LEDRequest struct {
	Body LEDBody
}

// LEDFlashRequest lights an LED for a short time.
type LEDFlashRequest struct {
	Body struct {
		Type       string `json:"type" example:"status" doc:"LED type"`
		DurationMs int    `json:"duration_ms" minimum:"1" maximum:"5000" default:"200" example:"200" doc:"How long the LED stays on"`
	}
}

// LEDCapabilities lists what the board supports.
type LEDCapabilities struct {
	AvailableTypes    []string `json:"available_types" doc:"List of available LED types on this board"`
	AvailablePatterns []string `json:"available_patterns" doc:"List of available LED patterns on this board"`
}

// LEDCapabilitiesResponse represents the LED capabilities of the current board
type LEDCapabilitiesResponse struct {
	Body LEDCapabilities
}

func (s *Server) registerLEDRoutes() {
	ctrl := s.options.LEDController
	if ctrl == nil {
		s.logger.Debug("LED controller not available, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Control an LED's state and optional pattern. LED types and patterns are board-specific.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *LEDRequest) (*struct{}, error) {
		pattern := ""
		if input.Body.Pattern != nil {
			pattern = *input.Body.Pattern
		}
		if err := ctrl.Set(input.Body.Type, input.Body.Enabled, pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "flash-led",
		Method:      http.MethodPost,
		Path:        "/api/leds/flash",
		Summary:     "Flash LED",
		Description: "Switch an LED on for a short time, as the handlebar button does on each press",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *LEDFlashRequest) (*struct{}, error) {
		d := time.Duration(input.Body.DurationMs) * time.Millisecond
		if err := led.Flash(ctx, ctrl, input.Body.Type, d); err != nil {
			return nil, huma.Error400BadRequest("Failed to flash LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Description: "Get the list of available LED types and patterns for this board",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*LEDCapabilitiesResponse, error) {
		return &LEDCapabilitiesResponse{
			Body: LEDCapabilities{
				AvailableTypes:    ctrl.Available(),
				AvailablePatterns: ctrl.Patterns(),
			},
		}, nil
	})

	s.logger.Info("LED routes registered")
}
