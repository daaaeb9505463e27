package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/faults"
	"github.com/shouni/go-angle-kit/pkg/pipeline"
	"github.com/shouni/go-angle-kit/pkg/publisher"
	"github.com/shouni/go-angle-kit/pkg/workflow"
)

// PNGシグネチャ付きのテスト用画像データなのだ
var fakePNG = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0xAB}, 32)...)

// --- Mocks ---

type mockReader struct {
	data map[string][]byte
	err  error
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.data[uri]
	if !ok {
		return nil, errors.New("not found: " + uri)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}

type mockHTTPClient struct {
	data []byte
	err  error
	urls []string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.urls = append(m.urls, url)
	return m.data, m.err
}

func (m *mockHTTPClient) DoRequest(req *http.Request) ([]byte, error) { return m.data, m.err }

func (m *mockHTTPClient) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	return m.err
}

func (m *mockHTTPClient) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	return m.data, m.err
}

func (m *mockHTTPClient) PostRawBodyAndFetchBytes(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	return m.data, m.err
}

type mockAdapter struct {
	prompts   []string
	deriveErr error
	renderErr error
	rendered  []string
}

func (m *mockAdapter) DeriveAnglePrompts(ctx context.Context, img domain.SourceImage, objectOnly bool) ([]string, error) {
	if m.deriveErr != nil {
		return nil, m.deriveErr
	}
	return m.prompts, nil
}

func (m *mockAdapter) RenderImage(ctx context.Context, img domain.SourceImage, anglePrompt string) (*domain.GeneratedImage, error) {
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.rendered = append(m.rendered, anglePrompt)
	return &domain.GeneratedImage{Data: []byte("gen-" + anglePrompt), MimeType: "image/png", Prompt: anglePrompt}, nil
}

type mockOutputWriter struct {
	path string
	err  error
}

func (m *mockOutputWriter) Write(ctx context.Context, path string, r io.Reader, mimeType string) error {
	if m.err != nil {
		return m.err
	}
	m.path = path
	return nil
}

// 待機なしで即座に通過するPacerなのだ
type immediatePacer struct{}

func (immediatePacer) Wait(ctx context.Context) error { return nil }

// --- SourceLoader ---

func TestSourceLoader_LoadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("ローカルパスから画像を読み込むのだ", func(t *testing.T) {
		reader := &mockReader{data: map[string][]byte{"input.png": fakePNG}}
		loader, err := NewSourceLoader(reader, &mockHTTPClient{})
		require.NoError(t, err)

		img, err := loader.LoadFile(ctx, "input.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, fakePNG, img.Data)
	})

	t.Run("読めないパスは入力エラーになるのだ", func(t *testing.T) {
		loader, _ := NewSourceLoader(&mockReader{err: errors.New("gcs down")}, &mockHTTPClient{})

		_, err := loader.LoadFile(ctx, "gs://bucket/missing.png")
		require.Error(t, err)
		assert.Equal(t, faults.KindInput, faults.KindOf(err))
	})

	t.Run("画像ではないデータは拒否するのだ", func(t *testing.T) {
		reader := &mockReader{data: map[string][]byte{"note.txt": []byte("plain text, not an image")}}
		loader, _ := NewSourceLoader(reader, &mockHTTPClient{})

		_, err := loader.LoadFile(ctx, "note.txt")
		require.Error(t, err)
		assert.Equal(t, faults.KindInput, faults.KindOf(err))
	})
}

func TestSourceLoader_LoadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("プライベートアドレスへのURLは拒否するのだ", func(t *testing.T) {
		httpClient := &mockHTTPClient{data: fakePNG}
		loader, _ := NewSourceLoader(&mockReader{}, httpClient)

		for _, raw := range []string{
			"http://127.0.0.1/image.png",
			"http://192.168.1.10/image.png",
			"ftp://example.com/image.png",
		} {
			_, err := loader.LoadURL(ctx, raw)
			require.Error(t, err, raw)
			assert.Equal(t, faults.KindInput, faults.KindOf(err))
		}
		assert.Empty(t, httpClient.urls, "拒否されたURLへはフェッチしないのだ")
	})

	t.Run("取得失敗は入力エラーになるのだ", func(t *testing.T) {
		loader, _ := NewSourceLoader(&mockReader{}, &mockHTTPClient{err: errors.New("504")})

		_, err := loader.LoadURL(ctx, "https://8.8.8.8/image.png")
		require.Error(t, err)
		assert.Equal(t, faults.KindInput, faults.KindOf(err))
	})

	t.Run("依存が欠けると生成できないのだ", func(t *testing.T) {
		_, err := NewSourceLoader(nil, &mockHTTPClient{})
		assert.Error(t, err)
		_, err = NewSourceLoader(&mockReader{}, nil)
		assert.Error(t, err)
	})
}

// --- AngleShotRunner ---

func newTestRunner(t *testing.T, adapter *mockAdapter, writer *mockOutputWriter) *AngleShotRunner {
	t.Helper()

	reader := &mockReader{data: map[string][]byte{"input.png": fakePNG}}
	loader, err := NewSourceLoader(reader, &mockHTTPClient{data: fakePNG})
	require.NoError(t, err)

	tracker := workflow.NewTracker(nil)
	pl, err := pipeline.New(adapter, tracker, pipeline.Config{Pacer: immediatePacer{}})
	require.NoError(t, err)

	pub, err := publisher.NewArchivePublisher(writer)
	require.NoError(t, err)

	r, err := NewAngleShotRunner(loader, adapter, pl, pub)
	require.NoError(t, err)
	return r
}

func TestAngleShotRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("読み込みから生成とアーカイブまで通しで成功するのだ", func(t *testing.T) {
		adapter := &mockAdapter{prompts: []string{"left", "right", "top"}}
		writer := &mockOutputWriter{}
		r := newTestRunner(t, adapter, writer)

		result, err := r.Run(ctx, RunArgs{InputFile: "input.png", OutputDir: "out"})
		require.NoError(t, err)

		assert.True(t, result.State.Finished())
		assert.Len(t, result.State.Generated, 3)
		assert.Equal(t, []string{"left", "right", "top"}, adapter.rendered)
		assert.Equal(t, filepath.Join("out", "angle_views.zip"), result.Archive.ArchivePath)
		assert.Equal(t, result.Archive.ArchivePath, writer.path)
		assert.Len(t, result.Archive.EntryNames, 4)
	})

	t.Run("URL指定はファイル指定より優先されるのだ", func(t *testing.T) {
		adapter := &mockAdapter{prompts: []string{"a", "b", "c"}}
		r := newTestRunner(t, adapter, &mockOutputWriter{})

		_, err := r.Run(ctx, RunArgs{
			InputFile: "input.png",
			InputURL:  "https://8.8.8.8/image.png",
			OutputDir: "out",
		})
		require.NoError(t, err)
	})

	t.Run("生成に失敗したら部分結果を残してアーカイブしないのだ", func(t *testing.T) {
		adapter := &mockAdapter{prompts: []string{"a", "b", "c"}, renderErr: errors.New("boom")}
		writer := &mockOutputWriter{}
		r := newTestRunner(t, adapter, writer)

		result, err := r.Run(ctx, RunArgs{InputFile: "input.png", OutputDir: "out"})
		require.Error(t, err)

		assert.NotEmpty(t, result.State.ErrorMessage)
		assert.Empty(t, writer.path, "失敗した実行はアーカイブされないのだ")
	})

	t.Run("入力が読めなければ生成は始まらないのだ", func(t *testing.T) {
		adapter := &mockAdapter{prompts: []string{"a", "b", "c"}}
		r := newTestRunner(t, adapter, &mockOutputWriter{})

		_, err := r.Run(ctx, RunArgs{InputFile: "missing.png", OutputDir: "out"})
		require.Error(t, err)
		assert.Equal(t, faults.KindInput, faults.KindOf(err))
		assert.Empty(t, adapter.rendered)
	})
}

func TestAngleShotRunner_DerivePrompts(t *testing.T) {
	ctx := context.Background()

	t.Run("プロンプト導出だけを実行するのだ", func(t *testing.T) {
		adapter := &mockAdapter{prompts: []string{"p1", "p2", "p3"}}
		r := newTestRunner(t, adapter, &mockOutputWriter{})

		prompts, err := r.DerivePrompts(ctx, RunArgs{InputFile: "input.png"})
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p3"}, prompts)
		assert.Empty(t, adapter.rendered, "画像生成までは進まないのだ")
	})
}
