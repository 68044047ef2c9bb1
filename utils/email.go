package utils

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"time"
)

// ======================
// SMTP Configuration
// ======================
var (
	smtpHost      = os.Getenv("SMTP_HOST")
	smtpPort      = os.Getenv("SMTP_PORT")
	smtpUsername  = os.Getenv("SMTP_USERNAME")
	smtpPassword  = os.Getenv("SMTP_PASSWORD")
	smtpFromName  = os.Getenv("SMTP_FROM_NAME")
	smtpFromEmail = os.Getenv("SMTP_FROM_EMAIL")
	frontendURL   = os.Getenv("FRONTEND_URL")
)

// sendEmail delivers one message over SMTP with STARTTLS. A missing SMTP
// configuration is not an error so local environments keep working.
func sendEmail(to, subject, body string) error {
	fmt.Println("📧 Sending Email:")
	fmt.Printf("To      : %s\nSubject : %s\n", to, subject)

	if smtpHost == "" || smtpUsername == "" || smtpPassword == "" {
		fmt.Println("⚠️ SMTP not configured. Email not sent.")
		return nil
	}

	if smtpFromEmail == "" {
		smtpFromEmail = smtpUsername
	}

	addr := fmt.Sprintf("%s:%s", smtpHost, smtpPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         smtpHost,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", smtpUsername, smtpPassword, smtpHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if err := client.Mail(smtpFromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\nDate: %s\r\n\r\n%s",
		smtpFromName, smtpFromEmail, to, subject, time.Now().Format(time.RFC1123Z), body,
	)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// SendResetLink emails a password reset link for the given token.
func SendResetLink(to, token string) error {
	base := frontendURL
	if base == "" {
		base = "http://localhost:5173"
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", base, token)
	body := fmt.Sprintf(`
		<p>Hello,</p>
		<p>We received a request to reset your password. The link below is valid for 15 minutes:</p>
		<p><a href="%s">Reset your password</a></p>
		<p>If you did not request this, you can safely ignore this email.</p>
	`, link)
	return sendEmail(to, "Reset your password", body)
}

// SendBookingConfirmation notifies a member their class spot is confirmed.
func SendBookingConfirmation(to, className, when string) error {
	body := fmt.Sprintf(`
		<p>Hello,</p>
		<p>Your spot in <strong>%s</strong> on %s is confirmed. See you there!</p>
	`, className, when)
	return sendEmail(to, "Booking confirmed: "+className, body)
}

// SendWaitlistPromotion notifies a member they moved off the waitlist.
func SendWaitlistPromotion(to, className, when string) error {
	body := fmt.Sprintf(`
		<p>Hello,</p>
		<p>Good news! A spot opened up in <strong>%s</strong> on %s and your booking is now confirmed.</p>
	`, className, when)
	return sendEmail(to, "You're in: "+className, body)
}
