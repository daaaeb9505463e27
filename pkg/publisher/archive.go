// Package publisher は、完了した実行の成果物を1つのZIPアーカイブへまとめて
// 出力先（ローカルまたは gs://）へ書き出します。
// エントリの集合と順序は契約です: 元画像が先頭、続いて生成画像が生成順。
package publisher

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-angle-kit/pkg/asset"
	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/faults"
)

const archiveMimeType = "application/zip"

// OutputWriter は成果物の書き出し先を抽象化するインターフェースです。
// remoteio.OutputWriter（ローカル/GCS）がこのまま適合します。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, mimeType string) error
}

// PublishResult はアーカイブ出力の結果情報です。
type PublishResult struct {
	ArchivePath string   // 書き出されたZIPのパス
	EntryNames  []string // アーカイブ内のエントリ名（格納順）
}

// ArchivePublisher は成果物の永続化を担います。
type ArchivePublisher struct {
	writer OutputWriter
}

// NewArchivePublisher は書き出し先を注入して ArchivePublisher を生成します。
func NewArchivePublisher(writer OutputWriter) (*ArchivePublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer (OutputWriter) is required")
	}
	return &ArchivePublisher{writer: writer}, nil
}

// Publish は完了済みの実行状態からZIPを組み立て、outputDir（ローカル or gs://）
// 直下の既定のアーカイブ名へ書き出します。
// 未完了の状態（画像が3枚未満、エラーあり、ロード中）は拒否します。
// アーカイブの失敗は表示済みの画像へ影響しない独立した失敗として分類されます。
func (p *ArchivePublisher) Publish(ctx context.Context, state domain.WorkflowState, outputDir string) (PublishResult, error) {
	result := PublishResult{}

	if !state.Finished() {
		return result, faults.New(faults.KindArchive, "実行が完了していないためアーカイブを作成できません", nil)
	}
	if state.Original == nil || state.Original.IsZero() {
		return result, faults.New(faults.KindArchive, "元画像が見つからないためアーカイブを作成できません", nil)
	}

	// 1. 出力パスの解決
	outputPath, err := asset.ResolveOutputPath(outputDir, asset.DefaultArchiveName)
	if err != nil {
		return result, faults.New(faults.KindArchive, "出力パスの解決に失敗しました", err)
	}

	buf, entries, err := buildArchive(*state.Original, state.Generated)
	if err != nil {
		return result, faults.New(faults.KindArchive, "アーカイブの作成に失敗しました", err)
	}

	if err := p.writer.Write(ctx, outputPath, bytes.NewReader(buf.Bytes()), archiveMimeType); err != nil {
		return result, faults.New(faults.KindArchive, "アーカイブの書き込みに失敗しました", err)
	}

	result.ArchivePath = outputPath
	result.EntryNames = entries
	slog.Info("アーカイブを書き出しました", "path", outputPath, "entries", len(entries))
	return result, nil
}

// buildArchive はメモリ上でZIPを構築し、バッファとエントリ名リストを返します。
func buildArchive(original domain.SourceImage, generated []domain.GeneratedImage) (*bytes.Buffer, []string, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	entries := make([]string, 0, 1+len(generated))

	// 1. 元画像（必ず先頭）
	name := asset.OriginalEntryName(original.MimeType)
	if err := writeEntry(zw, name, original.Data); err != nil {
		return nil, nil, err
	}
	entries = append(entries, name)

	// 2. 生成画像（生成順）
	for i, img := range generated {
		name := asset.GeneratedEntryName(i+1, img.MimeType)
		if err := writeEntry(zw, name, img.Data); err != nil {
			return nil, nil, err
		}
		entries = append(entries, name)
	}

	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("ZIPのクローズに失敗しました: %w", err)
	}
	return buf, entries, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("エントリ %s の作成に失敗しました: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("エントリ %s の書き込みに失敗しました: %w", name, err)
	}
	return nil
}
