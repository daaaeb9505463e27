// Package pipeline は、1枚の元画像から3枚のアングル違い画像を得るまでの
// 逐次オーケストレーションを実装します。ネットワーク呼び出しは常に直列で、
// 生成順序の決定性と外部サービスへの流量抑制の両方を保証します。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-angle-kit/pkg/adapters"
	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/faults"
	"github.com/shouni/go-angle-kit/pkg/workflow"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// DefaultRenderInterval は連続する生成呼び出しの最小間隔です。
	// バーストによるレート制限を避けるための意図的なスロットルです。
	DefaultRenderInterval = 1 * time.Second
	// DefaultAttempts は生成呼び出し1回あたりの試行回数です。
	// 1 はリトライなし（従来挙動の維持）を意味します。
	DefaultAttempts = 1
)

// ステージラベル付きの進行メッセージ
const (
	statusAnalyzing = "1/4: 回転アングルを解析中..."
	statusComplete  = "完了"
)

func renderStatus(index int) string {
	return fmt.Sprintf("%d/4: ビュー %d/3 を生成中...", index+2, index+1)
}

// Pacer は生成呼び出しの間隔を制御する注入可能なポリシーです。
// *rate.Limiter がこのまま適合します。
type Pacer interface {
	Wait(ctx context.Context) error
}

// Config は Pipeline の実行時パラメータです。
type Config struct {
	// Pacer が nil の場合は DefaultRenderInterval の rate.Limiter が使われます。
	Pacer Pacer
	// Attempts は生成呼び出し1回あたりの最大試行回数です。0以下は DefaultAttempts 扱いです。
	// アングル導出は決してリトライされません。
	Attempts int
}

// Pipeline はアップロード→解析→逐次生成→完了/失敗の全工程を駆動する司令塔です。
type Pipeline struct {
	adapter  adapters.AngleAdapter
	tracker  *workflow.Tracker
	pacer    Pacer
	attempts int

	// 実行は重ねられない契約のため、2本目の Run は即座に失敗します。
	runGuard *semaphore.Weighted
}

// New は各コンポーネントを受け取り Pipeline を生成します。
func New(adapter adapters.AngleAdapter, tracker *workflow.Tracker, cfg Config) (*Pipeline, error) {
	if adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}

	pacer := cfg.Pacer
	if pacer == nil {
		pacer = rate.NewLimiter(rate.Every(DefaultRenderInterval), 1)
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	return &Pipeline{
		adapter:  adapter,
		tracker:  tracker,
		pacer:    pacer,
		attempts: attempts,
		runGuard: semaphore.NewWeighted(1),
	}, nil
}

// Run は1回の実行を最初から最後まで駆動し、最終状態を返します。
// 失敗はすべてここで捕捉されて状態のエラーメッセージへ変換され、
// 追記済みの部分結果はロールバックされません。
func (p *Pipeline) Run(ctx context.Context, img domain.SourceImage, objectOnly bool) (domain.WorkflowState, error) {
	if !p.runGuard.TryAcquire(1) {
		err := faults.New(faults.KindBusy, "別の実行が進行中です", nil)
		return p.tracker.Snapshot(), err
	}
	defer p.runGuard.Release(1)

	p.tracker.Begin(img, statusAnalyzing)
	slog.Info("アングル解析を開始します", "stage", "1/4", "object_only", objectOnly)

	anglePrompts, err := p.adapter.DeriveAnglePrompts(ctx, img, objectOnly)
	if err != nil {
		return p.fail(err)
	}
	// アダプター実装にかかわらず「ちょうど3つ」の契約はここでも守ります。
	// 足りない応答を切り詰めて続行することはありません。
	if len(anglePrompts) != domain.AnglePromptCount {
		return p.fail(faults.New(faults.KindMalformed,
			"回転アングルを特定できませんでした。別の画像で再試行してください",
			fmt.Errorf("アングルプロンプトが%d個しかありません", len(anglePrompts))))
	}

	for i, anglePrompt := range anglePrompts {
		p.tracker.SetStatus(domain.PhaseRendering, renderStatus(i))
		slog.Info("ビューを生成します", "stage", fmt.Sprintf("%d/4", i+2), "view", i+1)

		generated, err := p.renderOne(ctx, img, anglePrompt)
		if err != nil {
			// 残りのステージは中断。追記済みの画像はそのまま残します。
			return p.fail(err)
		}
		p.tracker.Append(*generated)
	}

	p.tracker.Complete(statusComplete)
	slog.Info("すべてのビューの生成が完了しました", "views", domain.AnglePromptCount)
	return p.tracker.Snapshot(), nil
}

// renderOne は1枚分の生成を行います。毎回の呼び出し前にペーサーを待つため、
// 連続する呼び出しの間には必ず設定された間隔が空きます（初回はバースト分で即通過）。
func (p *Pipeline) renderOne(ctx context.Context, img domain.SourceImage, anglePrompt string) (*domain.GeneratedImage, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := p.pacer.Wait(ctx); err != nil {
			return nil, faults.Classify(err)
		}

		generated, err := p.adapter.RenderImage(ctx, img, anglePrompt)
		if err == nil {
			return generated, nil
		}
		lastErr = err

		if attempt < p.attempts {
			slog.Warn("生成に失敗したため再試行します", "attempt", attempt, "error", err)
		}
	}
	return nil, lastErr
}

// Reset は状態をどの時点からでも初期状態へ戻します。
// 進行中の呼び出しを中断するには Run に渡した context をキャンセルしてください。
func (p *Pipeline) Reset() {
	p.tracker.Reset()
}

// State は現在の状態のスナップショットを返します。
func (p *Pipeline) State() domain.WorkflowState {
	return p.tracker.Snapshot()
}

func (p *Pipeline) fail(err error) (domain.WorkflowState, error) {
	classified := faults.Classify(err)
	p.tracker.Fail(classified.Message)
	slog.Error("実行が失敗しました", "kind", classified.Kind.String(), "error", classified)
	return p.tracker.Snapshot(), classified
}
