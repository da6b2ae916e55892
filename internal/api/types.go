package api

// ErrorResponse is the uniform error body for every endpoint.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse reports service liveness and the active provider.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Version  string `json:"version"`
}

// TranscriptRequest is the body for transcript analysis.
type TranscriptRequest struct {
	Transcript string `json:"transcript"`
}

// TokenRequest exchanges an API key for a bearer token.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// TokenResponse carries the minted bearer token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
