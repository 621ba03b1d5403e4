package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/geolens/visibility-bot/internal/config"
	"github.com/geolens/visibility-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending visibility reports via configured channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a visibility report via every configured channel
func (s *Service) SendReport(report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.Report) error {
	message := s.buildTeamsMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("AI Visibility Report - %s", report.Brand),
		Text:    fmt.Sprintf("GEO score %d after scanning %d model responses (%s)", report.GeoScore, report.TotalScanned, report.Period),
	}

	facts := []TeamsFact{
		{Name: "GEO Score", Value: fmt.Sprintf("%d / 100", report.GeoScore)},
		{Name: "Responses Scanned", Value: fmt.Sprintf("%d", report.TotalScanned)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}

	if brandMentions, ok := report.Summary["brand_mentions"].(int); ok {
		facts = append(facts, TeamsFact{Name: "Brand Mentions", Value: fmt.Sprintf("%d", brandMentions)})
	}
	if competitorMentions, ok := report.Summary["competitor_mentions"].(int); ok {
		facts = append(facts, TeamsFact{Name: "Competitor Mentions", Value: fmt.Sprintf("%d", competitorMentions)})
	}
	if presence, ok := report.Summary["overall_presence"].(float64); ok {
		facts = append(facts, TeamsFact{Name: "Overall Presence", Value: fmt.Sprintf("%.1f%%", presence)})
	}
	if topModel, ok := report.Summary["top_model"].(string); ok && topModel != "" {
		facts = append(facts, TeamsFact{Name: "Top Model", Value: topModel})
	}
	if len(report.Failures) > 0 {
		facts = append(facts, TeamsFact{Name: "Provider Failures", Value: strings.Join(report.Failures, ", ")})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if summary, ok := report.Summary["scan_summary"].(string); ok && summary != "" {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Latest Scan",
			ActivityText:  summary,
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("AI Visibility Report - %s (GEO score %d)", report.Brand, report.GeoScore)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	textBody := s.buildEmailText(report)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailHTML(report *models.Report) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>AI Visibility Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #4b2e83; color: white; padding: 20px; border-radius: 5px; }
        .score { font-size: 2em; font-weight: bold; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .failures { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
    </style>
</head>
<body>
    <div class="header">
        <h1>AI Visibility Report - {{.Brand}}</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
        <p class="score">GEO Score: {{.GeoScore}} / 100</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Responses Scanned:</strong> {{.TotalScanned}}</p>
        {{with .Summary.brand_mentions}}<p><strong>Brand Mentions:</strong> {{.}}</p>{{end}}
        {{with .Summary.competitor_mentions}}<p><strong>Competitor Mentions:</strong> {{.}}</p>{{end}}
        {{with .Summary.overall_presence}}<p><strong>Overall Presence:</strong> {{printf "%.1f" .}}%</p>{{end}}
        {{with .Summary.top_model}}<p><strong>Top Model:</strong> {{.}}</p>{{end}}
        {{with .Summary.scan_summary}}<p>{{.}}</p>{{end}}
    </div>

    {{if .Failures}}
    <div class="failures">
        <strong>Provider Failures:</strong> {{join .Failures ", "}}
    </div>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the Visibility Bot.</small></p>
</body>
</html>
`

	t := template.New("email").Funcs(template.FuncMap{
		"join": strings.Join,
	})

	t, err := t.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("AI Visibility Report - %s\n", report.Brand))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("GEO Score: %d / 100\n", report.GeoScore))
	text.WriteString(fmt.Sprintf("Responses Scanned: %d\n", report.TotalScanned))

	if brandMentions, ok := report.Summary["brand_mentions"].(int); ok {
		text.WriteString(fmt.Sprintf("Brand Mentions: %d\n", brandMentions))
	}
	if competitorMentions, ok := report.Summary["competitor_mentions"].(int); ok {
		text.WriteString(fmt.Sprintf("Competitor Mentions: %d\n", competitorMentions))
	}
	if presence, ok := report.Summary["overall_presence"].(float64); ok {
		text.WriteString(fmt.Sprintf("Overall Presence: %.1f%%\n", presence))
	}
	if summary, ok := report.Summary["scan_summary"].(string); ok && summary != "" {
		text.WriteString(fmt.Sprintf("\n%s\n", summary))
	}

	if len(report.Failures) > 0 {
		text.WriteString(fmt.Sprintf("\nProvider Failures: %s\n", strings.Join(report.Failures, ", ")))
	}

	text.WriteString("\n---\nThis report was generated automatically by the Visibility Bot.\n")

	return text.String()
}
