package models

// Provider capability kinds. Each inbound request is routed to the enabled
// provider registered for the capability it needs.
const (
	ProviderKindChat   = "chat"   // text generation (primary brain)
	ProviderKindTrend  = "trend"  // secondary trend-check completions
	ProviderKindImage  = "image"  // image generation
	ProviderKindVerify = "verify" // identity verification
)

// Provider represents an external hosted inference service.
type Provider struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	BaseURL       string `json:"base_url"`
	APIKey        string `json:"api_key,omitempty"` // omitted from responses for security
	Model         string `json:"model,omitempty"`
	FallbackModel string `json:"fallback_model,omitempty"`
	Enabled       bool   `json:"enabled"`
}

// ProvidersConfig represents the providers.json file structure.
type ProvidersConfig struct {
	Providers []Provider `json:"providers"`
}

// ProviderStatus is a point-in-time health snapshot for a provider.
type ProviderStatus struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Healthy     bool   `json:"healthy"`
	LastError   string `json:"last_error,omitempty"`
	LastChecked string `json:"last_checked,omitempty"`
}
