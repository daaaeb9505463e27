// Package builder は、CLIコマンドが使う依存関係一式を組み立てます。
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-angle-kit/internal/config"
	"github.com/shouni/go-angle-kit/pkg/adapters"
	"github.com/shouni/go-angle-kit/pkg/pipeline"
	"github.com/shouni/go-angle-kit/pkg/publisher"
	"github.com/shouni/go-angle-kit/pkg/runner"
	"github.com/shouni/go-angle-kit/pkg/workflow"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	// 生成は決定的であるべきなので温度は0に固定します。
	generationTemperature = float32(0)

	partCacheExpiration = 5 * time.Minute
	partCacheCleanup    = 15 * time.Minute
	partCacheTTL        = 5 * time.Minute
	defaultPacerBurst   = 1
)

// BuildAngleShotRunner は、設定から全コンポーネントを初期化して
// 実行可能な AngleShotRunner を返します。
func BuildAngleShotRunner(ctx context.Context, cfg *config.Config, observer workflow.Observer) (*runner.AngleShotRunner, error) {
	httpClient := httpkit.New(cfg.Options.HTTPTimeout)

	aiClient, err := initializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	gcsFactory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCSクライアントファクトリの初期化に失敗しました: %w", err)
	}
	reader, err := gcsFactory.InputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.OutputWriter()
	if err != nil {
		return nil, err
	}

	// 同じ元画像を4回送るため、準備済みパーツを内容ハッシュでキャッシュします。
	partCache := cache.New(partCacheExpiration, partCacheCleanup)
	core := adapters.NewAngleRequestCore(partCache, partCacheTTL)

	adapter, err := adapters.NewGeminiAngleAdapter(core, aiClient, cfg.GeminiModel, cfg.GeminiImageModel)
	if err != nil {
		return nil, fmt.Errorf("アダプターの初期化に失敗しました: %w", err)
	}

	interval := cfg.Options.RenderInterval
	if interval <= 0 {
		interval = config.DefaultRenderInterval
	}

	pl, err := pipeline.New(adapter, workflow.NewTracker(observer), pipeline.Config{
		Pacer:    rate.NewLimiter(rate.Every(interval), defaultPacerBurst),
		Attempts: cfg.Options.Attempts,
	})
	if err != nil {
		return nil, fmt.Errorf("パイプラインの初期化に失敗しました: %w", err)
	}

	pub, err := publisher.NewArchivePublisher(writer)
	if err != nil {
		return nil, err
	}

	loader, err := runner.NewSourceLoader(reader, httpClient)
	if err != nil {
		return nil, err
	}

	return runner.NewAngleShotRunner(loader, adapter, pl, pub)
}

// initializeAIClient は gemini クライアントを初期化します。
func initializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(generationTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}
