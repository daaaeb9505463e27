// Package faults は、実行中に起こりうる失敗をユーザー向けメッセージ付きの
// 種別（Kind）へ分類します。分類はオーケストレーターの各ステージ呼び出しの
// 地点で行われ、これより上へは伝播しません。
package faults

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind は失敗の分類です。
type Kind int

const (
	// KindUnknown は分類できなかったその他の失敗です。
	KindUnknown Kind = iota
	// KindInput は入力ファイルの読み込み失敗です。ネットワーク呼び出し前に発生します。
	KindInput
	// KindMalformed はAI応答の形式不正（プロンプトがちょうど3つでない等）です。
	KindMalformed
	// KindNoImage は生成応答に画像パートが含まれていなかった失敗です。
	KindNoImage
	// KindQuota はクォータ超過・レート制限を示す失敗です。
	KindQuota
	// KindArchive はアーカイブの作成・書き出しの失敗です。
	KindArchive
	// KindBusy は実行中に別の実行を開始しようとした失敗です。
	KindBusy
	// KindCanceled は呼び出し側によるキャンセルです。
	KindCanceled
)

// String は Kind のログ出力用表現を返します。
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindMalformed:
		return "malformed_response"
	case KindNoImage:
		return "no_image"
	case KindQuota:
		return "quota"
	case KindArchive:
		return "archive"
	case KindBusy:
		return "busy"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Fault は種別とユーザー向けメッセージを持つ実行時の失敗です。
type Fault struct {
	Kind    Kind
	Message string // ユーザーにそのまま提示できる説明
	Err     error  // 元となった下位エラー（nil可）
}

// Error は error インターフェースを満たします。
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

// Unwrap は errors.Is / errors.As の連鎖を下位エラーへつなぎます。
func (f *Fault) Unwrap() error {
	return f.Err
}

// New は指定した種別の Fault を生成します。
func New(kind Kind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf は err の分類を返します。Fault でない場合は KindUnknown です。
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// UserMessage は err からユーザー向けメッセージを取り出します。
// Fault でない場合は下位エラーの文字列をそのまま表に出します。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}

// quotaMarkers は、ステータスコードが取れない場合にクォータ起因を
// 推定するためのメッセージ断片です。
var quotaMarkers = []string{
	"quota",
	"resource_exhausted",
	"resource has been exhausted",
	"rate limit",
	"too many requests",
	"429",
}

// Classify はサービス呼び出しから返ったエラーを分類します。
// すでに Fault であればそのまま返し、genai の APIError はステータスコードで、
// それ以外はメッセージの内容で判定します。
func Classify(err error) *Fault {
	if err == nil {
		return nil
	}

	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return New(KindCanceled, "実行が中断されました", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
			return quotaFault(err)
		}
	}

	lower := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return quotaFault(err)
		}
	}

	return New(KindUnknown, fmt.Sprintf("生成処理に失敗しました: %v", err), err)
}

func quotaFault(err error) *Fault {
	return New(KindQuota,
		"APIのクォータまたはレート制限に達しました。しばらく待つか、ご利用のプランを確認してください",
		err)
}
