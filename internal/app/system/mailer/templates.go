// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// VerificationEmailData holds data for verification email templates.
type VerificationEmailData struct {
	SiteName  string
	OrgName   string
	Code      string
	ExpiresIn string // e.g., "10 minutes"
}

// BuildVerificationEmail creates a verification email with both HTML and text bodies.
func BuildVerificationEmail(data VerificationEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Your %s verification code for %s", data.SiteName, data.OrgName),
		TextBody: buildVerificationText(data),
		HTMLBody: buildVerificationHTML(data),
	}
}

// BuildVerificationSMS returns the short text-message form of the code.
func BuildVerificationSMS(data VerificationEmailData) string {
	return fmt.Sprintf("[%s] %s verification code: %s (expires in %s)", data.SiteName, data.OrgName, data.Code, data.ExpiresIn)
}

func buildVerificationText(data VerificationEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Your code to join %s on %s is: %s\n\n", data.OrgName, data.SiteName, data.Code)
	fmt.Fprintf(&buf, "This code expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you did not request this code, you can safely ignore this email.\n")
	return buf.String()
}

var verificationHTML = template.Must(template.New("verification").Parse(verificationHTMLTemplate))

func buildVerificationHTML(data VerificationEmailData) string {
	var buf bytes.Buffer
	_ = verificationHTML.Execute(&buf, data)
	return buf.String()
}

const verificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Verification Code</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your code to join <strong>{{.OrgName}}</strong> is:
              </p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #1f2937; font-family: 'Courier New', monospace;">{{.Code}}</span>
              </div>
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This code expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you did not request this code, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
