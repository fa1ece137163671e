package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// EmailService handles sending emails via SMTP. All product emails are
// best-effort: callers log failures and move on.
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
}

// NewEmailService creates a new email service instance
func NewEmailService() *EmailService {
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	return &EmailService{
		host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     getEnvOrDefault("SMTP_FROM", "noreply@coinacademy.app"),
		appURL:   getEnvOrDefault("APP_URL", "http://localhost:3000"),
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendPasswordResetEmail sends a password reset email to the user
func (e *EmailService) SendPasswordResetEmail(toEmail, resetToken, userName string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Reset token for %s: %s", toEmail, resetToken)
		return fmt.Errorf("SMTP not configured")
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", e.appURL, resetToken)

	subject := "Reset Your Password - Coin Academy"
	body := e.buildSimpleEmailBody(userName,
		"We received a request to reset your password.",
		fmt.Sprintf(`<a href="%s" style="color:#1a73e8;">Reset your password</a> (link expires in 1 hour). If you didn't request this, you can safely ignore this email.`, resetLink))

	return e.sendEmail(toEmail, subject, body)
}

// SendPaymentConfirmedEmail notifies the user that an admin confirmed
// their payment and access has been granted
func (e *EmailService) SendPaymentConfirmedEmail(toEmail, userName, paymentID string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Skipping payment confirmation email for %s", toEmail)
		return fmt.Errorf("SMTP not configured")
	}

	subject := "Payment Confirmed - Coin Academy"
	body := e.buildSimpleEmailBody(userName,
		"Your payment has been confirmed and your access is now active.",
		fmt.Sprintf(`Payment reference: <strong>%s</strong>. Head over to <a href="%s" style="color:#1a73e8;">your dashboard</a> to start learning.`, paymentID, e.appURL))

	return e.sendEmail(toEmail, subject, body)
}

// buildSimpleEmailBody creates a minimal HTML email body
func (e *EmailService) buildSimpleEmailBody(userName, lead, detail string) string {
	if userName == "" {
		userName = "there"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;color:#333;max-width:600px;margin:0 auto;padding:20px;">
    <h2 style="color:#16324f;">Coin Academy</h2>
    <p>Hi %s,</p>
    <p>%s</p>
    <p>%s</p>
    <p style="color:#888;font-size:12px;margin-top:40px;">This is an automated message. Please do not reply.</p>
</body>
</html>`, userName, lead, detail)
}

// sendEmail delivers one HTML email over SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	// Build the email message with proper headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("Coin Academy <%s>", e.from)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         e.host,
	}

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	return nil
}
