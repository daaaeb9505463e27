// Package asset は、成果物の出力パスとアーカイブ内エントリ名の規約を一箇所に集めます。
package asset

import (
	"fmt"
	"mime"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultArchiveName は生成されるZIPアーカイブのデフォルトファイル名です。
	DefaultArchiveName = "angle_views.zip"
	// OriginalBaseName はアーカイブ先頭に置く元画像エントリのベース名です。
	OriginalBaseName = "original"
	// GeneratedBaseName は生成画像エントリのベース名です。生成順に連番が付きます。
	GeneratedBaseName = "generated"
	// fallbackExt はMIMEタイプから拡張子を決められなかった場合に使います。
	fallbackExt = ".png"
)

// ResolveOutputPath は、ベースディレクトリとファイル名から
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// OriginalEntryName は元画像のエントリ名（original.png 等）を返します。
func OriginalEntryName(mimeType string) string {
	return OriginalBaseName + ExtensionByMime(mimeType)
}

// GeneratedEntryName は index 番目（1始まり）の生成画像のエントリ名を返します。
// 例: (1, "image/png") -> "generated_1.png"
func GeneratedEntryName(index int, mimeType string) string {
	return fmt.Sprintf("%s_%d%s", GeneratedBaseName, index, ExtensionByMime(mimeType))
}

// ExtensionByMime はMIMEタイプから拡張子を決定します。
// 複数候補がある場合は主要な形式を優先し、不明なら .png を返します。
func ExtensionByMime(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}

	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return fallbackExt
}
