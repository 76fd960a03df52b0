package email

import (
	"fmt"
	"html"
	"strings"
)

// NotificationData is the content of a patient-facing notification email.
type NotificationData struct {
	To        string
	Name      string
	Subject   string
	Paragraph []string
	AppName   string
}

// BuildNotificationEmail renders a plain-text and HTML version of a
// notification. Every value is escaped before it reaches the HTML body.
func BuildNotificationEmail(data NotificationData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "MediCenter"
	}
	name := data.Name
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("Hi %s,\n\n%s\n\nThanks,\nThe %s Team",
		name, strings.Join(data.Paragraph, "\n\n"), appName)

	var paragraphs strings.Builder
	for _, p := range data.Paragraph {
		fmt.Fprintf(&paragraphs, "    <p>%s</p>\n", html.EscapeString(p))
	}

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
%s    <p style="color: #666; font-size: 14px;">Thanks,<br>The %s Team</p>
</body>
</html>`, html.EscapeString(name), paragraphs.String(), html.EscapeString(appName))

	return Message{
		To:       []string{data.To},
		Subject:  data.Subject,
		TextBody: text,
		HTMLBody: htmlBody,
	}
}
