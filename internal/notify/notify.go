// Package notify delivers pacing alerts as macOS notifications and optional
// webhook or ntfy POSTs.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/theirongolddev/ccpace/internal/shell"
)

// Config holds notification settings.
type Config struct {
	Enabled bool   `toml:"enabled"`
	Webhook string `toml:"webhook"`
	NtfyURL string `toml:"ntfy"`
}

// Alert is one pacing event worth telling the user about.
type Alert struct {
	Window string // "Session", "All Models", ...
	Status string // e.g. "Far behind"
	Label  string // e.g. "22% behind"
	Used   int
	At     time.Time
}

// Title is the notification headline.
func (a Alert) Title() string {
	return fmt.Sprintf("%s usage: %s", a.Window, a.Status)
}

// Message is the notification body.
func (a Alert) Message() string {
	return fmt.Sprintf("%d%% used · %s", a.Used, a.Label)
}

// Notifier fires system notifications and optional webhook POSTs.
type Notifier struct {
	cfg    Config
	logger *slog.Logger
	runner shell.Runner
	client *http.Client
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithRunner replaces the command runner used for osascript.
func WithRunner(r shell.Runner) Option {
	return func(n *Notifier) { n.runner = r }
}

// WithHTTPClient replaces the client used for webhook and ntfy POSTs.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

// New returns a Notifier with the given config.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		cfg:    cfg,
		logger: logger,
		runner: shell.Exec{},
		client: &http.Client{Timeout: 5 * time.Second},
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Enabled reports whether Notify does anything.
func (n *Notifier) Enabled() bool { return n != nil && n.cfg.Enabled }

// Notify sends a system notification plus the configured POSTs. Delivery
// failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, a Alert) {
	if !n.Enabled() {
		return
	}

	n.sendSystemNotification(ctx, a)
	if n.cfg.Webhook != "" {
		n.sendWebhook(ctx, a)
	}
	if n.cfg.NtfyURL != "" {
		n.sendNtfy(ctx, a)
	}
}

func (n *Notifier) sendSystemNotification(ctx context.Context, a Alert) {
	script := fmt.Sprintf(`display notification %q with title "ccpace" subtitle %q`, a.Message(), a.Title())
	if _, err := shell.Osascript(ctx, n.runner, script); err != nil {
		n.logger.Warn("system notification failed", "err", err)
	}
}

type webhookPayload struct {
	Window    string `json:"window"`
	Status    string `json:"status"`
	Pacing    string `json:"pacing"`
	Used      int    `json:"used_percent"`
	Timestamp string `json:"timestamp"`
}

func (n *Notifier) sendWebhook(ctx context.Context, a Alert) {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	payload := webhookPayload{
		Window:    a.Window,
		Status:    a.Status,
		Pacing:    a.Label,
		Used:      a.Used,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	if err := n.post(ctx, n.cfg.Webhook, payload); err != nil {
		n.logger.Warn("webhook notification failed", "url", n.cfg.Webhook, "err", err)
	}
}

type ntfyPayload struct {
	Topic    string   `json:"topic,omitempty"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags"`
}

func (n *Notifier) sendNtfy(ctx context.Context, a Alert) {
	payload := ntfyPayload{
		Title:    a.Title(),
		Message:  a.Message(),
		Priority: 4,
		Tags:     []string{"hourglass"},
	}
	if err := n.post(ctx, n.cfg.NtfyURL, payload); err != nil {
		n.logger.Warn("ntfy notification failed", "url", n.cfg.NtfyURL, "err", err)
	}
}

func (n *Notifier) post(ctx context.Context, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
