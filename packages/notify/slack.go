package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SlackNotifier posts run results to an incoming webhook
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

type SlackOption func(*SlackNotifier)

// WithSlackChannel overrides the webhook's default channel
func WithSlackChannel(channel string) SlackOption {
	return func(s *SlackNotifier) { s.channel = channel }
}

func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	s := &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SlackNotifier) Name() string { return "slack" }

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	TS     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// headline picks the attachment color and title for a run
func headline(sum *RunSummary) (color, title string) {
	switch {
	case sum.Aborted:
		return "danger", ":octagonal_sign: Run aborted at " + sum.AbortedAt
	case sum.FailedTests > 0:
		return "danger", fmt.Sprintf(":x: %d of %d checks failed", sum.FailedTests, sum.TotalTests)
	case sum.IsRecovery:
		return "good", ":tada: FitTogether API recovered"
	default:
		return "good", ":white_check_mark: All checks passed"
	}
}

func failureList(failed []FailedTest) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ft := range failed {
		b.WriteString("• *" + ft.Name + "*")
		if ft.Detail != "" {
			b.WriteString(" - " + ft.Detail)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *SlackNotifier) message(sum *RunSummary) slackMessage {
	color, title := headline(sum)
	fields := []slackField{
		{Title: "Passed", Value: fmt.Sprintf("%d/%d", sum.PassedTests, sum.TotalTests), Short: true},
		{Title: "Duration", Value: sum.Duration.Round(time.Millisecond).String(), Short: true},
	}
	if sum.BaseURL != "" {
		fields = append(fields, slackField{Title: "API", Value: sum.BaseURL})
	}

	return slackMessage{
		Channel:   s.channel,
		Username:  "fitcheck",
		IconEmoji: ":runner:",
		Attachments: []slackAttachment{{
			Color:  color,
			Title:  title,
			Text:   failureList(sum.FailedResults),
			Fields: fields,
			Footer: "run " + sum.RunID,
			TS:     time.Now().Unix(),
		}},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, sum *RunSummary) error {
	data, err := json.Marshal(s.message(sum))
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
