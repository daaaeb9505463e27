package runner

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"

	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/faults"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

const stdinPath = "-"

// SourceLoader は元画像をメモリへ読み込む入力境界です。
// ローカルパス・gs:// は reader、http(s) は httpClient が担当します。
type SourceLoader struct {
	reader     remoteio.InputReader
	httpClient httpkit.Requester
}

// NewSourceLoader は依存関係を注入して SourceLoader を生成します。
func NewSourceLoader(reader remoteio.InputReader, httpClient httpkit.Requester) (*SourceLoader, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader (remoteio.InputReader) is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient (httpkit.Requester) is required")
	}
	return &SourceLoader{reader: reader, httpClient: httpClient}, nil
}

// LoadFile はローカルパス・gs://・標準入力（"-"）から元画像を読み込みます。
// 読み込みの失敗はネットワーク呼び出し前の入力エラーとして分類されます。
func (l *SourceLoader) LoadFile(ctx context.Context, path string) (domain.SourceImage, error) {
	var data []byte
	var err error

	if path == stdinPath {
		data, err = io.ReadAll(os.Stdin)
	} else {
		var rc io.ReadCloser
		rc, err = l.reader.Open(ctx, path)
		if err == nil {
			defer rc.Close()
			data, err = io.ReadAll(rc)
		}
	}
	if err != nil {
		return domain.SourceImage{}, faults.New(faults.KindInput,
			fmt.Sprintf("画像ファイル '%s' の読み込みに失敗しました", path), err)
	}

	return newSource(data)
}

// LoadURL は http(s) の URL から元画像を取得します。
// SSRF対策として、プライベートネットワークを指すURLは拒否します。
func (l *SourceLoader) LoadURL(ctx context.Context, rawURL string) (domain.SourceImage, error) {
	if safe, err := isSafeURL(rawURL); err != nil || !safe {
		return domain.SourceImage{}, faults.New(faults.KindInput,
			fmt.Sprintf("安全ではないURLが指定されました: %s", rawURL), err)
	}

	data, err := l.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return domain.SourceImage{}, faults.New(faults.KindInput,
			fmt.Sprintf("画像URL '%s' の取得に失敗しました", rawURL), err)
	}

	return newSource(data)
}

func newSource(data []byte) (domain.SourceImage, error) {
	img, err := domain.NewSourceImage(data, "")
	if err != nil {
		return domain.SourceImage{}, faults.New(faults.KindInput, "入力が画像として認識できませんでした", err)
	}
	return img, nil
}

// isSafeURL は SSRF (Server-Side Request Forgery) 対策として URL を検証します。
// 許可されたスキーム (http, https) かつ、プライベートIPやループバックアドレスを
// ターゲットにしていないことを確認します。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolvedIPs, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", host, err)
		}
		ips = resolvedIPs
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
