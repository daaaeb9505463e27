package adapters

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/faults"

	"github.com/shouni/gemini-image-kit/imgutil"
	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

const (
	// maxInlinePayloadBytes を超える画像はJPEGへ再圧縮してから送信します。
	maxInlinePayloadBytes = 4 << 20
	compressionQuality    = 80

	cacheKeyImagePart = "image_part:"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ImageCacher は準備済みリクエストパーツのキャッシュ操作を抽象化するインターフェースです。
// patrickmn/go-cache がこのまま適合します。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// AngleRequestCore は、リクエストパーツの準備と応答の解析という
// アダプター共通ロジックを保持するコンポーネントです。
// 1回の実行は同じ元画像を4回送信するため、準備結果を内容ハッシュで
// キャッシュして再圧縮を避けます。応答のキャッシュは行いません。
type AngleRequestCore struct {
	cache    ImageCacher
	cacheTTL time.Duration
}

// NewAngleRequestCore は AngleRequestCore を初期化します。cache は nil を許容します。
func NewAngleRequestCore(cache ImageCacher, cacheTTL time.Duration) *AngleRequestCore {
	return &AngleRequestCore{cache: cache, cacheTTL: cacheTTL}
}

// PrepareImagePart は元画像を genai.Part (InlineData) へ変換します。
// 大きすぎるペイロードはJPEGへ圧縮し、結果を内容ハッシュでキャッシュします。
func (c *AngleRequestCore) PrepareImagePart(img domain.SourceImage) *genai.Part {
	key := cacheKeyImagePart + contentHash(img.Data)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if part, ok := cached.(*genai.Part); ok {
				return part
			}
		}
	}

	data, mimeType := img.Data, img.MimeType
	if len(data) > maxInlinePayloadBytes {
		if compressed, err := imgutil.CompressToJPEG(bytes.NewReader(data), compressionQuality); err == nil {
			data, mimeType = compressed, "image/jpeg"
		}
	}

	part := &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
	if c.cache != nil {
		c.cache.Set(key, part, c.cacheTTL)
	}
	return part
}

// ParseImageResponse は生成応答から最初のインライン画像パートを取り出します。
// 画像パートが見つからない場合は KindNoImage の Fault を返します。
func (c *AngleRequestCore) ParseImageResponse(resp *gemini.Response, anglePrompt string) (*domain.GeneratedImage, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, faults.New(faults.KindNoImage, "AIから有効な応答がありませんでした", nil)
	}

	// 最初の候補 (Candidate) のみを利用します。
	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.GeneratedImage{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
					Prompt:   anglePrompt,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, faults.New(faults.KindNoImage,
			"画像生成がブロックされました (FinishReason: "+string(candidate.FinishReason)+")", nil)
	}

	return nil, faults.New(faults.KindNoImage, "AIが画像を返しませんでした", nil)
}

// ParsePromptSet は導出応答のテキストからJSONを抽出し、
// 「ちょうど3つの空でないプロンプト」という契約を検証します。
// 解析失敗・スキーマ不一致は通信エラーと区別された KindMalformed になります。
func (c *AngleRequestCore) ParsePromptSet(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	var rawJSON string

	// AIが付けがちなMarkdownコードブロック (```json ... ```) を優先的に剥がします。
	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else if first, last := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); first != -1 && last > first {
		rawJSON = raw[first : last+1]
	} else {
		rawJSON = raw
	}

	var set domain.AnglePromptSet
	if err := json.Unmarshal([]byte(rawJSON), &set); err != nil {
		return nil, faults.New(faults.KindMalformed,
			"回転アングルを特定できませんでした。別の画像で再試行してください", err)
	}
	if err := set.Validate(); err != nil {
		return nil, faults.New(faults.KindMalformed,
			"回転アングルを特定できませんでした。別の画像で再試行してください", err)
	}
	return set.Prompts, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
