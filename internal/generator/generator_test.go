package generator

import (
	"testing"

	"github.com/ShayCichocki/bugtriage/internal/logging"
)

func TestNew(t *testing.T) {
	logger := logging.Discard()

	g, err := New(Config{Provider: ProviderNone}, logger)
	if err != nil || g != nil {
		t.Errorf("New(none) = %v, %v, want nil, nil", g, err)
	}

	g, err = New(Config{Provider: "Ollama", URL: "http://localhost:11434"}, logger)
	if err != nil {
		t.Fatalf("New(ollama) error = %v", err)
	}
	if _, ok := g.(*Ollama); !ok {
		t.Errorf("New(ollama) = %T, want *Ollama", g)
	}

	g, err = New(Config{Provider: ProviderAnthropic, APIKey: "k"}, logger)
	if err != nil {
		t.Fatalf("New(anthropic) error = %v", err)
	}
	if _, ok := g.(*Anthropic); !ok {
		t.Errorf("New(anthropic) = %T, want *Anthropic", g)
	}

	if _, err := New(Config{Provider: "gpt"}, logger); err == nil {
		t.Error("New(unknown) error = nil, want error")
	}
}
