package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvCounselMode is the environment variable name for mode selection.
	EnvCounselMode = "COUNSEL_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewChatCompleter creates a chat-completions client based on the
// COUNSEL_MODE environment variable. If COUNSEL_MODE=MOCK, returns a
// MockClient; otherwise returns a real Client.
func NewChatCompleter(baseURL, apiKey, guardModel string, timeout time.Duration) ChatCompleter {
	mode := os.Getenv(EnvCounselMode)

	if mode == ModeMock {
		log.Println("COUNSEL_MODE=MOCK detected, using mock LLM client")
		return NewMockClient(guardModel)
	}

	return NewClient(baseURL, apiKey, timeout)
}
