// Package runner は、入力の読み込みからパイプライン実行、アーカイブ出力までを
// つなぐ最上位のランナーです。CLIコマンドはこの層だけを呼び出します。
package runner

import (
	"context"
	"fmt"

	"github.com/shouni/go-angle-kit/pkg/adapters"
	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/pipeline"
	"github.com/shouni/go-angle-kit/pkg/publisher"
)

// RunArgs は1回の実行に必要な入力と出力の指定です。
// InputURL が指定された場合は InputFile より優先されます。
type RunArgs struct {
	InputFile  string
	InputURL   string
	OutputDir  string
	ObjectOnly bool
}

// RunResult は実行全体の結果です。
type RunResult struct {
	State   domain.WorkflowState
	Archive publisher.PublishResult
}

// AngleShotRunner は全工程（読み込み→生成→アーカイブ）を駆動します。
type AngleShotRunner struct {
	loader    *SourceLoader
	adapter   adapters.AngleAdapter
	pipeline  *pipeline.Pipeline
	publisher *publisher.ArchivePublisher
}

// NewAngleShotRunner は依存関係を注入して AngleShotRunner を生成します。
func NewAngleShotRunner(loader *SourceLoader, adapter adapters.AngleAdapter, pl *pipeline.Pipeline, pub *publisher.ArchivePublisher) (*AngleShotRunner, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}
	if pl == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	return &AngleShotRunner{loader: loader, adapter: adapter, pipeline: pl, publisher: pub}, nil
}

// Run は元画像の読み込みからZIPアーカイブの書き出しまでを一気通貫で実行します。
// 生成が失敗した場合、部分結果は状態に残りますがアーカイブは作成されません。
func (r *AngleShotRunner) Run(ctx context.Context, args RunArgs) (RunResult, error) {
	result := RunResult{}

	img, err := r.loadSource(ctx, args)
	if err != nil {
		return result, err
	}

	state, err := r.pipeline.Run(ctx, img, args.ObjectOnly)
	result.State = state
	if err != nil {
		return result, err
	}

	archive, err := r.publisher.Publish(ctx, state, args.OutputDir)
	if err != nil {
		return result, err
	}
	result.Archive = archive

	return result, nil
}

// DerivePrompts はアングルプロンプトの導出だけを実行します（画像生成なし）。
func (r *AngleShotRunner) DerivePrompts(ctx context.Context, args RunArgs) ([]string, error) {
	img, err := r.loadSource(ctx, args)
	if err != nil {
		return nil, err
	}
	return r.adapter.DeriveAnglePrompts(ctx, img, args.ObjectOnly)
}

func (r *AngleShotRunner) loadSource(ctx context.Context, args RunArgs) (domain.SourceImage, error) {
	if args.InputURL != "" {
		return r.loader.LoadURL(ctx, args.InputURL)
	}
	return r.loader.LoadFile(ctx, args.InputFile)
}
