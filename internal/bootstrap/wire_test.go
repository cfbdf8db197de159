package bootstrap

import (
	"context"
	"testing"

	"talkline/internal/voicestore"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("OPENAI_API_KEY", "oa-test")
	t.Setenv("TALKLINE_POSTGRES_DSN", "")
	t.Setenv("TALKLINE_REDIS_ADDR", "")
	t.Setenv("TALKLINE_KAFKA_BROKERS", "")
}

func TestBuildFailsWithoutCredentials(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Build(context.Background()); err == nil {
		t.Fatalf("expected error without capability credentials")
	}
}

func TestBuildDefaultsToMemoryStore(t *testing.T) {
	setMinimalEnv(t)

	services, err := Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer services.Close()

	if services.Machine == nil {
		t.Fatalf("machine not wired")
	}
	if services.History == nil {
		t.Fatalf("history not wired")
	}
	if _, ok := services.Store.(*voicestore.Memory); !ok {
		t.Fatalf("expected in-memory store, got %T", services.Store)
	}
}
