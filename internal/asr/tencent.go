package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"autosub/internal/logging"
	"autosub/internal/services"
	"autosub/internal/subtitle"
)

const (
	tencentBaseURL   = "https://asr.cloud.tencent.com"
	tencentFlashPath = "/asr/flash/v1/"
	tencentVoiceType = "m4a"
	// Signed requests carry an expiry one day out, matching the replay
	// window the service accepts.
	tencentExpirySeconds = 24 * 60 * 60
)

// tencentClient implements the synchronous-submit protocol: one signed POST
// carrying the raw audio body, with the word-level result embedded directly
// in the response.
type tencentClient struct {
	creds   TencentCredentials
	http    *http.Client
	logger  *slog.Logger
	baseURL string
	nonce   func() string
	now     func() time.Time
}

func newTencentClient(creds TencentCredentials, options clientOptions) (*tencentClient, error) {
	for _, field := range []struct{ name, value string }{
		{"tencent.app_id", creds.AppID},
		{"tencent.secret_id", creds.SecretID},
		{"tencent.secret_key", creds.SecretKey},
		{"tencent.engine_type", creds.EngineType},
	} {
		if field.value == "" {
			return nil, services.Wrap(services.ErrConfiguration, "transcribe", "tencent credentials",
				field.name+" is required", nil)
		}
	}

	baseURL := options.baseURL
	if baseURL == "" {
		baseURL = tencentBaseURL
	}
	return &tencentClient{
		creds:   creds,
		http:    options.httpClient,
		logger:  logging.NewComponentLogger(options.logger, "asr-tencent"),
		baseURL: baseURL,
		nonce:   options.nonce,
		now:     options.now,
	}, nil
}

// Wire shapes for the flash recognition response.
type tencentResponse struct {
	Code        int                    `json:"code"`
	Message     string                 `json:"message"`
	FlashResult []tencentChannelResult `json:"flash_result"`
}

type tencentChannelResult struct {
	SentenceList []tencentSentence `json:"sentence_list"`
}

type tencentSentence struct {
	StartTime int64         `json:"start_time"`
	Text      string        `json:"sentence"`
	WordList  []tencentWord `json:"word_list"`
}

type tencentWord struct {
	Word      string `json:"word"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}

func (c *tencentClient) Transcribe(ctx context.Context, audio []byte) ([]subtitle.Word, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "tencent endpoint", c.baseURL, err)
	}

	now := c.now().UTC()
	params := map[string]string{
		"secretid":     c.creds.SecretID,
		"engine_type":  c.creds.EngineType,
		"voice_format": tencentVoiceType,
		"timestamp":    strconv.FormatInt(now.Unix(), 10),
		"expired":      strconv.FormatInt(now.Unix()+tencentExpirySeconds, 10),
		"nonce":        c.nonce(),
	}

	path := tencentFlashPath + c.creds.AppID
	query := canonicalQuery(params)
	signature := signTencent(c.creds.SecretKey, http.MethodPost, endpoint.Host, path, params)

	requestURL := c.baseURL + path + "?" + query
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(audio))
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "transcribe", "build request", requestURL, err)
	}
	req.Header.Set("Authorization", signature)
	req.Header.Set("Content-Type", "application/octet-stream")

	c.logger.Debug("submitting flash recognition request",
		logging.Int("audio_bytes", len(audio)),
		logging.String("engine_type", c.creds.EngineType),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "transcribe", "flash request", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "transcribe", "read response", "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.NewProviderError(strconv.Itoa(resp.StatusCode),
			fmt.Sprintf("flash recognition returned HTTP %d", resp.StatusCode))
	}

	var decoded tencentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrParse, "transcribe", "decode response", "", err)
	}
	if decoded.Code != 0 {
		return nil, services.NewProviderError(strconv.Itoa(decoded.Code), decoded.Message)
	}

	words := flattenTencentResult(decoded.FlashResult)
	c.logger.Debug("flash recognition complete", logging.Int("words", len(words)))
	return words, nil
}

// flattenTencentResult merges all sentences into one word list. Word
// offsets in the flash response are relative to their sentence, so each is
// shifted by the sentence's start offset to the absolute timeline.
func flattenTencentResult(channels []tencentChannelResult) []subtitle.Word {
	var words []subtitle.Word
	for _, channel := range channels {
		for _, sentence := range channel.SentenceList {
			for _, word := range sentence.WordList {
				words = append(words, subtitle.Word{
					Text:    word.Word,
					StartMS: sentence.StartTime + word.StartTime,
					EndMS:   sentence.StartTime + word.EndTime,
				})
			}
		}
	}
	return words
}
