package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mediafx/internal/config"
)

const userAgent = "mediafx/0.1"

// Event identifies a notification kind.
type Event string

const (
	EventRenderCompleted  Event = "render_completed"
	EventRenderFailed     Event = "render_failed"
	EventArchiveCompleted Event = "archive_completed"
	EventTest             Event = "test"
)

// Payload carries the values an event message is built from. Known keys:
// "output", "entries", "duration", "error", "archive".
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed Service, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil || cfg.Notifications.NtfyTopic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: cfg.Notifications.NtfyTopic,
		client:   &http.Client{Timeout: timeout},
		renders:  cfg.Notifications.Renders,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	renders  bool
	errors   bool
}

// Publish implements Service. Events disabled in config are dropped.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, p Payload) (message, bool) {
	switch event {
	case EventRenderCompleted:
		if !n.renders {
			return message{}, false
		}
		body := fmt.Sprintf("Rendered %s", base(p.text("output")))
		if entries := p.text("entries"); entries != "" {
			body += fmt.Sprintf(" (%s entries)", entries)
		}
		if d := p.text("duration"); d != "" {
			body += " in " + d
		}
		return message{title: "mediafx - Render Complete", body: body, tags: []string{"mediafx", "render", "completed"}}, true
	case EventArchiveCompleted:
		if !n.renders {
			return message{}, false
		}
		return message{
			title: "mediafx - Archived",
			body:  fmt.Sprintf("Archived %s to %s", base(p.text("output")), p.text("archive")),
			tags:  []string{"mediafx", "archive", "completed"},
		}, true
	case EventRenderFailed:
		if !n.errors {
			return message{}, false
		}
		reason := p.text("error")
		if reason == "" {
			reason = "unknown"
		}
		body := "Render failed: " + reason
		if out := p.text("output"); out != "" {
			body = fmt.Sprintf("Render of %s failed: %s", base(out), reason)
		}
		return message{title: "mediafx - Render Failed", body: body, tags: []string{"mediafx", "render", "error"}, priority: "high"}, true
	case EventTest:
		return message{title: "mediafx - Test", body: "Notification system test", tags: []string{"mediafx", "test"}, priority: "low"}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func base(path string) string {
	if path == "" {
		return "timeline"
	}
	return filepath.Base(path)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
