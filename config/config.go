package config

import (
	"os"
	"strconv"
)

// GetGeminiModel returns the Gemini model to use from environment variable
// Defaults to "gemini-2.5-flash" if not set
func GetGeminiModel() string {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		// Default to flash model if not specified
		return "gemini-2.5-flash"
	}
	return model
}

// GetGeminiAPIKey returns the Gemini API key from environment variable
func GetGeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// GetMongoDBURI returns the MongoDB connection URI from environment variable
func GetMongoDBURI() string {
	return os.Getenv("MONGODB_URI")
}

// GetAllowedOrigins returns the allowed CORS origins from environment variable
func GetAllowedOrigins() string {
	return os.Getenv("ALLOWED_ORIGINS")
}

// GetServerAddr returns the HTTP listen address, defaulting to :8080
func GetServerAddr() string {
	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		return ":8080"
	}
	return addr
}

// GetXClientID returns the X OAuth2 client ID
func GetXClientID() string {
	return os.Getenv("X_CLIENT_ID")
}

// GetXClientSecret returns the X OAuth2 client secret
func GetXClientSecret() string {
	return os.Getenv("X_CLIENT_SECRET")
}

// GetXRedirectURL returns the OAuth callback URL registered with X
func GetXRedirectURL() string {
	url := os.Getenv("X_REDIRECT_URL")
	if url == "" {
		return "http://localhost:8080/auth/x/callback"
	}
	return url
}

// GetBackroomRounds returns how many rounds each generated dialogue runs.
// A round is one message from each participant. Defaults to 2.
func GetBackroomRounds() int {
	rounds, err := strconv.Atoi(os.Getenv("BACKROOM_ROUNDS"))
	if err != nil || rounds <= 0 {
		return 2
	}
	return rounds
}
