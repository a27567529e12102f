package asr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"autosub/internal/logging"
	"autosub/internal/services"
	"autosub/internal/subtitle"
)

const (
	alibabaBaseURLFormat = "https://filetrans.%s.aliyuncs.com"
	alibabaAPIVersion    = "2018-08-17"
	alibabaTaskVersion   = "4.0"

	taskStatusQueueing        = "QUEUEING"
	taskStatusRunning         = "RUNNING"
	taskStatusSuccess         = "SUCCESS"
	taskStatusSuccessNoSpeech = "SUCCESS_WITH_NO_VALID_FRAGMENT"
)

// alibabaClient implements the async-submit-then-poll protocol: a signed
// POST creates a transcription task, then signed GET polls run at a fixed
// interval until the task reaches a terminal status or the attempt budget
// is exhausted.
type alibabaClient struct {
	creds   AlibabaCredentials
	http    *http.Client
	logger  *slog.Logger
	baseURL string
	nonce   func() string
	now     func() time.Time
}

func newAlibabaClient(creds AlibabaCredentials, options clientOptions) (*alibabaClient, error) {
	for _, field := range []struct{ name, value string }{
		{"alibaba.access_key_id", creds.AccessKeyID},
		{"alibaba.access_key_secret", creds.AccessKeySecret},
		{"alibaba.app_key", creds.AppKey},
	} {
		if field.value == "" {
			return nil, services.Wrap(services.ErrConfiguration, "transcribe", "alibaba credentials",
				field.name+" is required", nil)
		}
	}
	if creds.PollInterval <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "alibaba credentials",
			"poll interval must be positive", nil)
	}
	if creds.PollMaxAttempts <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "alibaba credentials",
			"poll attempt budget must be positive", nil)
	}

	baseURL := options.baseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf(alibabaBaseURLFormat, creds.Region)
	}
	return &alibabaClient{
		creds:   creds,
		http:    options.httpClient,
		logger:  logging.NewComponentLogger(options.logger, "asr-alibaba"),
		baseURL: baseURL,
		nonce:   options.nonce,
		now:     options.now,
	}, nil
}

// Wire shapes for the file transcription API.
type alibabaSubmitBody struct {
	AppKey      string `json:"app_key"`
	FileLink    string `json:"file_link"`
	Version     string `json:"version"`
	EnableWords bool   `json:"enable_words"`
}

type alibabaTaskResponse struct {
	TaskID     string `json:"TaskId"`
	StatusText string `json:"StatusText"`
	Result     string `json:"Result"`
}

type alibabaResult struct {
	Sentences []alibabaSentence `json:"Sentences"`
}

type alibabaSentence struct {
	BeginTime int64         `json:"BeginTime"`
	EndTime   int64         `json:"EndTime"`
	Text      string        `json:"Text"`
	Words     []alibabaWord `json:"Words"`
}

type alibabaWord struct {
	Word      string `json:"Word"`
	BeginTime int64  `json:"BeginTime"`
	EndTime   int64  `json:"EndTime"`
}

func (c *alibabaClient) Transcribe(ctx context.Context, audio []byte) ([]subtitle.Word, error) {
	taskID, err := c.submit(ctx, audio)
	if err != nil {
		return nil, err
	}
	c.logger.Info("transcription task submitted", logging.String("task_id", taskID))
	return c.poll(ctx, taskID)
}

// submit creates the transcription task. The audio travels inline as a
// base64 data URI in the JSON body, so no separate object storage upload
// is needed.
func (c *alibabaClient) submit(ctx context.Context, audio []byte) (string, error) {
	body, err := json.Marshal(alibabaSubmitBody{
		AppKey:      c.creds.AppKey,
		FileLink:    "data:audio/mp4;base64," + base64.StdEncoding.EncodeToString(audio),
		Version:     alibabaTaskVersion,
		EnableWords: true,
	})
	if err != nil {
		return "", services.Wrap(services.ErrParse, "transcribe", "encode submit body", "", err)
	}

	requestURL := c.signedURL(http.MethodPost, map[string]string{"Action": "SubmitTask"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, "transcribe", "build submit request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	decoded, err := c.do(req)
	if err != nil {
		return "", err
	}
	if decoded.TaskID == "" {
		return "", services.NewProviderError(decoded.StatusText, "submit response carried no TaskId")
	}
	return decoded.TaskID, nil
}

// poll issues signed status requests at the configured interval. The
// attempt budget makes timeout a designed outcome rather than an endless
// retry loop.
func (c *alibabaClient) poll(ctx context.Context, taskID string) ([]subtitle.Word, error) {
	for attempt := 1; attempt <= c.creds.PollMaxAttempts; attempt++ {
		requestURL := c.signedURL(http.MethodGet, map[string]string{
			"Action": "GetTaskResult",
			"TaskId": taskID,
		})
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrNetwork, "transcribe", "build poll request", "", err)
		}

		decoded, err := c.do(req)
		if err != nil {
			return nil, err
		}

		switch decoded.StatusText {
		case taskStatusSuccess, taskStatusSuccessNoSpeech:
			c.logger.Info("transcription task finished",
				logging.String("task_id", taskID),
				logging.Int("attempts", attempt),
			)
			return parseAlibabaResult(decoded.Result)
		case taskStatusQueueing, taskStatusRunning:
			c.logger.Debug("transcription task pending",
				logging.String("task_id", taskID),
				logging.String("status", decoded.StatusText),
				logging.Int("attempt", attempt),
			)
		default:
			return nil, services.NewProviderError(decoded.StatusText,
				fmt.Sprintf("task %s failed", taskID))
		}

		if attempt == c.creds.PollMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, services.Wrap(services.ErrNetwork, "transcribe", "poll", "cancelled", ctx.Err())
		case <-time.After(c.creds.PollInterval):
		}
	}

	return nil, services.Wrap(services.ErrTimeout, "transcribe", "poll",
		fmt.Sprintf("task %s not terminal after %d attempts", taskID, c.creds.PollMaxAttempts), nil)
}

func (c *alibabaClient) do(req *http.Request) (*alibabaTaskResponse, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "transcribe", "request", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "transcribe", "read response", "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.NewProviderError(strconv.Itoa(resp.StatusCode),
			fmt.Sprintf("file transcription returned HTTP %d", resp.StatusCode))
	}

	var decoded alibabaTaskResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrParse, "transcribe", "decode response", "", err)
	}
	return &decoded, nil
}

// signedURL builds the endpoint URL with the common POP parameters, the
// action-specific parameters, and the computed Signature. Every poll is
// signed fresh: nonce and timestamp change per request.
func (c *alibabaClient) signedURL(method string, extra map[string]string) string {
	params := map[string]string{
		"AccessKeyId":      c.creds.AccessKeyID,
		"Format":           "JSON",
		"RegionId":         c.creds.Region,
		"SignatureMethod":  "HMAC-SHA1",
		"SignatureNonce":   c.nonce(),
		"SignatureVersion": "1.0",
		"Timestamp":        c.now().UTC().Format("2006-01-02T15:04:05Z"),
		"Version":          alibabaAPIVersion,
	}
	for key, value := range extra {
		params[key] = value
	}
	signature := signAlibaba(c.creds.AccessKeySecret, method, params)
	params["Signature"] = signature
	return c.baseURL + "/?" + canonicalQuery(params)
}

// parseAlibabaResult decodes the JSON-encoded result text. Offsets in this
// protocol are already absolute. When the response carries no word-level
// detail, sentence-level entries stand in as single words and downstream
// segmentation degrades to one cue per sentence.
func parseAlibabaResult(result string) ([]subtitle.Word, error) {
	if result == "" {
		return nil, nil
	}
	var decoded alibabaResult
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		return nil, services.Wrap(services.ErrParse, "transcribe", "decode task result", "", err)
	}

	hasWords := false
	for _, sentence := range decoded.Sentences {
		if len(sentence.Words) > 0 {
			hasWords = true
			break
		}
	}

	var words []subtitle.Word
	for _, sentence := range decoded.Sentences {
		if hasWords {
			for _, word := range sentence.Words {
				words = append(words, subtitle.Word{
					Text:    word.Word,
					StartMS: word.BeginTime,
					EndMS:   word.EndTime,
				})
			}
			continue
		}
		words = append(words, subtitle.Word{
			Text:    sentence.Text,
			StartMS: sentence.BeginTime,
			EndMS:   sentence.EndTime,
		})
	}
	return words, nil
}
