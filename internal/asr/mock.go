package asr

import (
	"context"

	"autosub/internal/subtitle"
)

// mockClient returns a canned word stream without touching the network.
// Useful for exercising the full pipeline before provider credentials are
// configured.
type mockClient struct{}

func newMockClient() *mockClient { return &mockClient{} }

func (*mockClient) Transcribe(_ context.Context, _ []byte) ([]subtitle.Word, error) {
	return []subtitle.Word{
		{Text: "这是一条示例字幕", StartMS: 1000, EndMS: 4800},
		{Text: "。", StartMS: 4800, EndMS: 5000},
		{Text: "识别接口调用成功", StartMS: 6000, EndMS: 9800},
		{Text: "！", StartMS: 9800, EndMS: 10000},
	}, nil
}
