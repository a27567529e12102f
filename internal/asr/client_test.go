package asr_test

import (
	"context"
	"errors"
	"testing"

	"autosub/internal/asr"
	"autosub/internal/config"
	"autosub/internal/services"
)

func TestMockClientNeedsNoCredentials(t *testing.T) {
	client, err := asr.New(asr.Credentials{Kind: asr.ProviderMock})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	words, err := client.Transcribe(context.Background(), []byte("whatever"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("expected mock words")
	}
	for i := 1; i < len(words); i++ {
		if words[i].StartMS < words[i-1].EndMS {
			t.Errorf("mock words out of order at %d", i)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := asr.New(asr.Credentials{Kind: ProviderKindUnknown})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

const ProviderKindUnknown asr.ProviderKind = "whisper"

func TestCredentialsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Name = "alibaba"
	cfg.Alibaba.AccessKeyID = " LTAI "
	cfg.Alibaba.AccessKeySecret = "secret"
	cfg.Alibaba.AppKey = "app"
	cfg.Alibaba.PollIntervalSeconds = 3
	cfg.Alibaba.PollMaxAttempts = 7

	creds := asr.CredentialsFromConfig(&cfg)
	if creds.Kind != asr.ProviderAlibaba {
		t.Errorf("kind = %q", creds.Kind)
	}
	if creds.Alibaba.AccessKeyID != "LTAI" {
		t.Errorf("expected trimmed access key, got %q", creds.Alibaba.AccessKeyID)
	}
	if creds.Alibaba.PollInterval.Seconds() != 3 {
		t.Errorf("poll interval = %v", creds.Alibaba.PollInterval)
	}
	if creds.Alibaba.PollMaxAttempts != 7 {
		t.Errorf("poll attempts = %d", creds.Alibaba.PollMaxAttempts)
	}
}
