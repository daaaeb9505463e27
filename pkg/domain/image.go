package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// AnglePromptCount は、1回の実行で導出すべきアングルプロンプトの数です。
// 3つ未満・3つ超過のいずれも不正な応答として扱います。
const AnglePromptCount = 3

// SourceImage はユーザーが入力した元画像を表す不変の値オブジェクトです。
// 1回の実行（Run）につき一度だけ生成されます。
type SourceImage struct {
	Data     []byte
	MimeType string
}

// NewSourceImage は生のバイト列から SourceImage を生成します。
// MIMEタイプが空の場合はバイト列の先頭から自動判定します。
func NewSourceImage(data []byte, mimeType string) (SourceImage, error) {
	if len(data) == 0 {
		return SourceImage{}, fmt.Errorf("画像データが空です")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return SourceImage{}, fmt.Errorf("画像ではないMIMEタイプです: %s", mimeType)
	}
	return SourceImage{Data: data, MimeType: mimeType}, nil
}

// IsZero は未設定の SourceImage かどうかを返します。
func (s SourceImage) IsZero() bool {
	return len(s.Data) == 0
}

// GeneratedImage は1つのアングルプロンプトから生成された画像です。
// 生成順に追加され、並べ替え・削除は行われません。
type GeneratedImage struct {
	Data     []byte
	MimeType string
	// Prompt はこの画像の生成に使われたアングルプロンプトです。
	Prompt string
}

// AnglePromptSet は導出呼び出しのJSON応答のワイヤ形式です。
type AnglePromptSet struct {
	Prompts []string `json:"prompts"`
}

// Validate は「空でないプロンプトがちょうど3つ」という契約を検証します。
// 3つ未満の応答を切り詰めたり水増ししたりすることはありません。
func (p AnglePromptSet) Validate() error {
	if len(p.Prompts) != AnglePromptCount {
		return fmt.Errorf("アングルプロンプトは%d個必要ですが、%d個でした", AnglePromptCount, len(p.Prompts))
	}
	for i, prompt := range p.Prompts {
		if strings.TrimSpace(prompt) == "" {
			return fmt.Errorf("アングルプロンプト %d が空です", i+1)
		}
	}
	return nil
}
