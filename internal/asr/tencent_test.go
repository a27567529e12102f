package asr_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autosub/internal/asr"
	"autosub/internal/services"
)

func tencentCreds() asr.Credentials {
	return asr.Credentials{
		Kind: asr.ProviderTencent,
		Tencent: asr.TencentCredentials{
			AppID:      "12345",
			SecretID:   "AKIDtest",
			SecretKey:  "secret",
			EngineType: "16k_zh_video",
		},
	}
}

func fixedOptions(baseURL string) []asr.Option {
	return []asr.Option{
		asr.WithBaseURL(baseURL),
		asr.WithNonceFunc(func() string { return "fixed-nonce" }),
		asr.WithNowFunc(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	}
}

func TestTencentTranscribeFlattensWords(t *testing.T) {
	audio := []byte("raw m4a audio")
	var gotAuth string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		if r.URL.Query().Get("secretid") != "AKIDtest" {
			t.Errorf("missing secretid in query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("nonce") != "fixed-nonce" {
			t.Errorf("missing nonce in query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"code": 0,
			"message": "success",
			"flash_result": [{
				"sentence_list": [
					{"start_time": 1000, "sentence": "你好", "word_list": [
						{"word": "你", "start_time": 0, "end_time": 200},
						{"word": "好", "start_time": 200, "end_time": 400}
					]},
					{"start_time": 5000, "sentence": "世界", "word_list": [
						{"word": "世界", "start_time": 100, "end_time": 600}
					]}
				]
			}]
		}`))
	}))
	defer server.Close()

	client, err := asr.New(tencentCreds(), fixedOptions(server.URL)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	words, err := client.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if gotAuth == "" {
		t.Error("expected Authorization header to carry the signature")
	}
	if !bytes.Equal(gotBody, audio) {
		t.Error("expected raw audio bytes as request body")
	}

	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	// Offsets are sentence-relative on the wire and absolute after flattening.
	if words[0].StartMS != 1000 || words[0].EndMS != 1200 {
		t.Errorf("word 0 = [%d, %d], want [1000, 1200]", words[0].StartMS, words[0].EndMS)
	}
	if words[2].StartMS != 5100 || words[2].EndMS != 5600 {
		t.Errorf("word 2 = [%d, %d], want [5100, 5600]", words[2].StartMS, words[2].EndMS)
	}
}

func TestTencentProviderErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 4001, "message": "invalid signature"}`))
	}))
	defer server.Close()

	client, err := asr.New(tencentCreds(), fixedOptions(server.URL)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider classification, got %v", err)
	}
	code, ok := services.ProviderCode(err)
	if !ok || code != "4001" {
		t.Errorf("expected code 4001, got %q", code)
	}
}

func TestTencentHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := asr.New(tencentCreds(), fixedOptions(server.URL)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider classification for HTTP 403, got %v", err)
	}
}

func TestTencentTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // immediately, so the dial fails

	client, err := asr.New(tencentCreds(), fixedOptions(server.URL)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network classification, got %v", err)
	}
}

func TestTencentMissingCredentials(t *testing.T) {
	creds := tencentCreds()
	creds.Tencent.SecretKey = ""
	if _, err := asr.New(creds); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
