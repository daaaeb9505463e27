// Package adapters は、アングル導出と画像生成という2つのリモート呼び出しを
// ドメインの型へ変換するサービスアダプター層です。システム唯一のI/O境界であり、
// キャッシュもリトライも持たない純粋なリクエスト/レスポンス変換です。
package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/faults"
	"github.com/shouni/go-angle-kit/pkg/prompts"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// AngleAdapter は、オーケストレーターが利用するアダプターのインターフェースです。
type AngleAdapter interface {
	// DeriveAnglePrompts は元画像から新しいカメラアングルの記述をちょうど3つ導出します。
	DeriveAnglePrompts(ctx context.Context, img domain.SourceImage, objectOnly bool) ([]string, error)
	// RenderImage は元画像とアングルプロンプトから新しい画像を1枚生成します。
	RenderImage(ctx context.Context, img domain.SourceImage, anglePrompt string) (*domain.GeneratedImage, error)
}

// GeminiAngleAdapter は Gemini API に対する AngleAdapter の実装です。
type GeminiAngleAdapter struct {
	core       *AngleRequestCore
	aiClient   gemini.GenerativeModel
	textModel  string // アングル導出に使うモデル
	imageModel string // 画像生成に使うモデル
}

// NewGeminiAngleAdapter は依存関係を注入して GeminiAngleAdapter を初期化します。
func NewGeminiAngleAdapter(core *AngleRequestCore, aiClient gemini.GenerativeModel, textModel, imageModel string) (*GeminiAngleAdapter, error) {
	if core == nil {
		return nil, fmt.Errorf("core (AngleRequestCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (gemini.GenerativeModel) is required")
	}
	if textModel == "" || imageModel == "" {
		return nil, fmt.Errorf("textModel and imageModel are required")
	}

	return &GeminiAngleAdapter{
		core:       core,
		aiClient:   aiClient,
		textModel:  textModel,
		imageModel: imageModel,
	}, nil
}

// DeriveAnglePrompts は、元画像と指示テンプレートを送信して
// {"prompts": [...]} 形式のJSON応答を取得し、契約を検証して返します。
// objectOnly は送信する指示テンプレートの選択だけに影響します。
func (a *GeminiAngleAdapter) DeriveAnglePrompts(ctx context.Context, img domain.SourceImage, objectOnly bool) ([]string, error) {
	parts := []*genai.Part{
		{Text: prompts.BuildDeriveInstruction(objectOnly)},
		a.core.PrepareImagePart(img),
	}

	resp, err := a.aiClient.GenerateWithParts(ctx, a.textModel, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, faults.Classify(fmt.Errorf("アングル導出の呼び出しに失敗しました: %w", err))
	}

	return a.core.ParsePromptSet(responseText(resp))
}

// RenderImage は、元画像とアングルプロンプトを送信して生成画像を取り出します。
// 生成は決定的（温度0、シードなし）で、応答に画像パートがなければ失敗します。
func (a *GeminiAngleAdapter) RenderImage(ctx context.Context, img domain.SourceImage, anglePrompt string) (*domain.GeneratedImage, error) {
	parts := []*genai.Part{
		{Text: prompts.BuildRenderPrompt(anglePrompt)},
		a.core.PrepareImagePart(img),
	}

	resp, err := a.aiClient.GenerateWithParts(ctx, a.imageModel, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, faults.Classify(fmt.Errorf("画像生成の呼び出しに失敗しました: %w", err))
	}

	return a.core.ParseImageResponse(resp, anglePrompt)
}

// responseText は応答のテキスト部分を取り出します。Response.Text が空の場合は
// 最初の候補のテキストパーツを連結してフォールバックします。
func responseText(resp *gemini.Response) string {
	if resp == nil {
		return ""
	}
	if resp.Text != "" {
		return resp.Text
	}
	if resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	if content := resp.RawResponse.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
