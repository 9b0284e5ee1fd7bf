package handlers

import (
	"aihq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProviderHandler handles provider-related requests
type ProviderHandler struct {
	gateway *services.GatewayService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(gateway *services.GatewayService) *ProviderHandler {
	return &ProviderHandler{gateway: gateway}
}

// List returns the registered providers (names and kinds only, no credentials)
func (h *ProviderHandler) List(c *fiber.Ctx) error {
	providers := h.gateway.Providers()

	type PublicProvider struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}

	publicProviders := make([]PublicProvider, len(providers))
	for i, p := range providers {
		publicProviders[i] = PublicProvider{Name: p.Name, Kind: p.Kind}
	}

	return c.JSON(fiber.Map{
		"providers": publicProviders,
		"count":     len(publicProviders),
	})
}
