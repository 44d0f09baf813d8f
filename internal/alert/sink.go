package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/pkg/httpclient"
)

// Alert is the notification payload fanned out when a project crosses the
// scam-report threshold.
type Alert struct {
	ProjectID     uint
	ProjectName   string
	Slug          string
	TotalReports  int64
	Threshold     int
	RecentReasons []string
}

// Sink is one configured notification destination. Delivery to each sink is
// independent of the others.
type Sink interface {
	Name() string
	Send(ctx context.Context, a Alert) error
}

// ── Discord ──────────────────────────────────────────────────────────

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

// DiscordSink posts an embed to a Discord webhook URL.
type DiscordSink struct {
	url  string
	http *httpclient.Client
}

func NewDiscordSink(url string) *DiscordSink {
	return &DiscordSink{
		url:  url,
		http: httpclient.New().WithTimeout(10 * time.Second),
	}
}

func (s *DiscordSink) Name() string { return "discord" }

func (s *DiscordSink) Send(ctx context.Context, a Alert) error {
	const red = 0xE74C3C
	payload := discordPayload{
		Username: "Kaspa Ecosystem",
		Embeds: []discordEmbed{{
			Title:       fmt.Sprintf("🚨 Scam reports threshold reached: %s", a.ProjectName),
			Description: fmt.Sprintf("Project `%s` (#%d) has %d scam reports (threshold %d).", a.Slug, a.ProjectID, a.TotalReports, a.Threshold),
			Color:       red,
			Fields: []discordField{
				{Name: "Total reports", Value: fmt.Sprintf("%d", a.TotalReports), Inline: true},
				{Name: "Recent reasons", Value: joinReasons(a.RecentReasons), Inline: false},
			},
		}},
	}
	if _, err := s.http.Post(ctx, s.url, payload); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

// ── Slack ────────────────────────────────────────────────────────────

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title,omitempty"`
	Text      string       `json:"text,omitempty"`
	Fields    []slackField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

// SlackSink posts an attachment message to a Slack incoming webhook.
type SlackSink struct {
	url  string
	http *httpclient.Client
}

func NewSlackSink(url string) *SlackSink {
	return &SlackSink{
		url:  url,
		http: httpclient.New().WithTimeout(10 * time.Second),
	}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, a Alert) error {
	payload := slackPayload{
		Text: "🚨 *Scam reports threshold reached*",
		Attachments: []slackAttachment{{
			Color:  "danger",
			Title:  fmt.Sprintf("%s (#%d)", a.ProjectName, a.ProjectID),
			Fields: []slackField{
				{Title: "Total reports", Value: fmt.Sprintf("%d", a.TotalReports), Short: true},
				{Title: "Threshold", Value: fmt.Sprintf("%d", a.Threshold), Short: true},
				{Title: "Recent reasons", Value: joinReasons(a.RecentReasons), Short: false},
			},
			Footer:    "kaspa-ecosystem",
			Timestamp: time.Now().Unix(),
		}},
	}
	if _, err := s.http.Post(ctx, s.url, payload); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// ── Telegram ─────────────────────────────────────────────────────────

// TelegramSink sends the alert to a chat via the Bot API.
type TelegramSink struct {
	bot  *tele.Bot
	chat tele.ChatID
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSink{bot: bot, chat: tele.ChatID(chatID)}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(_ context.Context, a Alert) error {
	text := fmt.Sprintf(
		"🚨 *Scam reports threshold reached*\n\nProject: %s (#%d)\nTotal reports: %d (threshold %d)\nRecent reasons:\n%s",
		a.ProjectName, a.ProjectID, a.TotalReports, a.Threshold, joinReasons(a.RecentReasons),
	)
	if _, err := s.bot.Send(s.chat, text, tele.ModeMarkdown); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "-"
	}
	var b strings.Builder
	for _, r := range reasons {
		if len(r) > 120 {
			r = r[:117] + "..."
		}
		b.WriteString("• ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
