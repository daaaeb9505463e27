package adapters

import (
	"context"
	"time"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// mockAIClient は gemini.GenerativeModel のテスト用モックなのだ。
type mockAIClient struct {
	// 他のメソッド（GenerateContent等）を埋め込みで解決するために interface を持たせると便利なのだ
	gemini.GenerativeModel
	generateFunc func(model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	calls        int
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(model, parts, opts)
	}
	return nil, nil
}

// mockCache は ImageCacher のテスト用モックなのだ。
type mockCache struct {
	data map[string]any
	sets int
	hits int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]any)}
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	if ok {
		m.hits++
	}
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.sets++
	m.data[key] = value
}

// textResponse はテキストのみの gemini.Response を組み立てるヘルパーなのだ。
func textResponse(text string) *gemini.Response {
	return &gemini.Response{
		Text: text,
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
			}},
		},
	}
}

// imageResponse はインライン画像入りの gemini.Response を組み立てるヘルパーなのだ。
func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "here is your image"},
						{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
					},
				},
			}},
		},
	}
}
