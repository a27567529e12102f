package asr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autosub/internal/asr"
	"autosub/internal/services"
)

func alibabaCreds() asr.Credentials {
	return asr.Credentials{
		Kind: asr.ProviderAlibaba,
		Alibaba: asr.AlibabaCredentials{
			AccessKeyID:     "LTAItest",
			AccessKeySecret: "secret",
			AppKey:          "appkey",
			Region:          "cn-shanghai",
			PollInterval:    time.Millisecond,
			PollMaxAttempts: 5,
		},
	}
}

const alibabaResultJSON = `{
	"Sentences": [
		{"BeginTime": 0, "EndTime": 2000, "Text": "你好世界", "Words": [
			{"Word": "你好", "BeginTime": 0, "EndTime": 900},
			{"Word": "世界", "BeginTime": 900, "EndTime": 2000}
		]}
	]
}`

func TestAlibabaSubmitAndPoll(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("Signature") == "" {
			t.Errorf("expected signed query, got %s", r.URL.RawQuery)
		}
		switch query.Get("Action") {
		case "SubmitTask":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode submit body: %v", err)
			}
			if body["app_key"] != "appkey" {
				t.Errorf("missing app_key in body: %v", body)
			}
			link, _ := body["file_link"].(string)
			if !strings.HasPrefix(link, "data:audio/mp4;base64,") {
				t.Errorf("file_link is not a data URI: %.40s", link)
			}
			if body["enable_words"] != true {
				t.Error("expected enable_words in submit body")
			}
			w.Write([]byte(`{"TaskId": "task-1", "StatusText": "QUEUEING"}`))
		case "GetTaskResult":
			if query.Get("TaskId") != "task-1" {
				t.Errorf("unexpected TaskId %q", query.Get("TaskId"))
			}
			polls++
			if polls < 3 {
				w.Write([]byte(`{"StatusText": "RUNNING"}`))
				return
			}
			resp, _ := json.Marshal(map[string]string{
				"StatusText": "SUCCESS",
				"Result":     alibabaResultJSON,
			})
			w.Write(resp)
		default:
			t.Errorf("unexpected Action %q", query.Get("Action"))
		}
	}))
	defer server.Close()

	client, err := asr.New(alibabaCreds(), asr.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	words, err := client.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	// Offsets in this protocol are already absolute.
	if words[1].StartMS != 900 || words[1].EndMS != 2000 {
		t.Errorf("word 1 = [%d, %d], want [900, 2000]", words[1].StartMS, words[1].EndMS)
	}
}

func TestAlibabaPollBudgetExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Action") == "SubmitTask" {
			w.Write([]byte(`{"TaskId": "task-1"}`))
			return
		}
		w.Write([]byte(`{"StatusText": "RUNNING"}`))
	}))
	defer server.Close()

	client, err := asr.New(alibabaCreds(), asr.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestAlibabaTaskFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Action") == "SubmitTask" {
			w.Write([]byte(`{"TaskId": "task-1"}`))
			return
		}
		w.Write([]byte(`{"StatusText": "FAILED"}`))
	}))
	defer server.Close()

	client, err := asr.New(alibabaCreds(), asr.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider classification, got %v", err)
	}
	if code, _ := services.ProviderCode(err); code != "FAILED" {
		t.Errorf("expected code FAILED, got %q", code)
	}
}

func TestAlibabaSubmitWithoutTaskID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"StatusText": "REQUEST_INVALID"}`))
	}))
	defer server.Close()

	client, err := asr.New(alibabaCreds(), asr.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider classification, got %v", err)
	}
}

func TestAlibabaSentenceFallbackWithoutWords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Action") == "SubmitTask" {
			w.Write([]byte(`{"TaskId": "task-1"}`))
			return
		}
		resp, _ := json.Marshal(map[string]string{
			"StatusText": "SUCCESS",
			"Result":     `{"Sentences": [{"BeginTime": 100, "EndTime": 2000, "Text": "整句回退"}]}`,
		})
		w.Write(resp)
	}))
	defer server.Close()

	client, err := asr.New(alibabaCreds(), asr.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	words, err := client.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(words) != 1 || words[0].Text != "整句回退" {
		t.Fatalf("expected sentence-level fallback, got %+v", words)
	}
	if words[0].StartMS != 100 || words[0].EndMS != 2000 {
		t.Errorf("fallback word bounds = [%d, %d]", words[0].StartMS, words[0].EndMS)
	}
}

func TestAlibabaMissingCredentials(t *testing.T) {
	creds := alibabaCreds()
	creds.Alibaba.AppKey = ""
	if _, err := asr.New(creds); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
