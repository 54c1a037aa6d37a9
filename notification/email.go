package notification

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"telemetry-hub/config"
)

// EmailNotifier dispatches alert notifications over SMTP. It implements
// the services.Notifier interface.
type EmailNotifier struct {
	host   string
	port   string
	from   string
	logger *slog.Logger

	// send is swappable for tests.
	send func(addr, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg *config.Config, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		from:   cfg.SMTPFrom,
		logger: logger.With("component", "notifier"),
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// SendAlert sends one alert email to all recipients. The caller records
// the returned error on the alert log; it is never treated as fatal.
func (n *EmailNotifier) SendAlert(recipients []string, deviceSerial, parameterName string, value, threshold float64, thresholdType, message, severity string) error {
	subject := fmt.Sprintf("[%s] Alert: %s on device %s", strings.ToUpper(severity), parameterName, deviceSerial)
	body := fmt.Sprintf(
		"%s\r\n\r\nDevice: %s\r\nParameter: %s\r\nThreshold (%s): %v\r\nActual value: %v\r\nTime: %s\r\n",
		message, deviceSerial, parameterName, thresholdType, threshold, value,
		time.Now().UTC().Format(time.RFC3339),
	)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.from, strings.Join(recipients, ", "), subject, body,
	))

	addr := fmt.Sprintf("%s:%s", n.host, n.port)
	if err := n.send(addr, n.from, recipients, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	n.logger.Info("Alert email sent", "deviceSerial", deviceSerial, "parameter", parameterName, "recipients", len(recipients))
	return nil
}
