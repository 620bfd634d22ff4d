package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xscan/internal/domain/model"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 512

// RESTClient 公开行情 REST 调用，无签名
type RESTClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRESTClient timeout 为单次请求上限，调用方的 ctx 可以更短
func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTClient{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// GetJSON GET base+path?query 并解码到 v
func (c *RESTClient) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	endpoint, err := BuildQueryURL(c.BaseURL, path, query.Encode())
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(BytesTrimSpace(body)))
	}
	return ParseJSON(body, v)
}

// BuildQueryURL builds a URL with query parameters
func BuildQueryURL(base, path, query string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", errors.New("base url is empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query
	return u.String(), nil
}

// ParseJSON safely parses JSON
func ParseJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// BytesTrimSpace trims whitespace from byte slice
func BytesTrimSpace(b []byte) []byte {
	i := 0
	j := len(b) - 1
	for i <= j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j >= i && (b[j] == ' ' || b[j] == '\n' || b[j] == '\r' || b[j] == '\t') {
		j--
	}
	if i > j {
		return []byte{}
	}
	return b[i : j+1]
}

// Rows 解码 JSON 数组，每行同时得到结构体与原始字段
func Rows[T any](raw []json.RawMessage, fn func(row T, info *model.Fields)) {
	for _, r := range raw {
		var row T
		if err := json.Unmarshal(r, &row); err != nil {
			continue
		}
		info := &model.Fields{}
		if err := json.Unmarshal(r, info); err != nil {
			info = nil
		}
		fn(row, info)
	}
}

// ParseLevels [["price","qty"], ...] -> []Level，非法档位跳过
func ParseLevels(rows [][]string, limit int) []model.Level {
	out := make([]model.Level, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			continue
		}
		p, q := model.ParseFloat(r[0]), model.ParseFloat(r[1])
		if p == nil || q == nil {
			continue
		}
		out = append(out, model.Level{Price: *p, Qty: *q})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Truthy 兼容 "true"/"1"/true 风格的布尔字段
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// ========== WebSocket ==========

// WSHelper provides common WebSocket functionality
type WSHelper struct {
	URL string
}

// DialWS creates a WebSocket connection with timeout
func (w *WSHelper) DialWS(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.URL, nil)
	return conn, err
}

// ReadWithPing reads WebSocket messages with periodic pings
func (w *WSHelper) ReadWithPing(ctx context.Context, conn *websocket.Conn, onMessage func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(25 * time.Second)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			onMessage(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

// MinDuration returns the minimum of two durations
func MinDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// RunWS 连接并读取直到 ctx 结束，断线后指数退避重连
func (w *WSHelper) RunWS(ctx context.Context, name string, onMessage func([]byte)) {
	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Info().Str("feed", name).Str("url", w.URL).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, err := w.DialWS(cctx)
		cancel()
		if err != nil {
			log.Warn().Str("feed", name).Err(err).Msg("ws dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = MinDuration(backoff*2, maxBackoff)
			continue
		}

		backoff = 500 * time.Millisecond
		log.Info().Str("feed", name).Msg("ws connected")

		err = w.ReadWithPing(ctx, conn, onMessage)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", name).Err(err).Msg("ws disconnected, reconnecting")
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = MinDuration(backoff*2, maxBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
