package notification

import (
	"fmt"
	"net/smtp"

	"github.com/raykavin/dogewatch/pkg/core"
	log "github.com/sirupsen/logrus"
)

// Mail emails cycle digests to a fixed operator address. It is an optional
// channel next to Telegram.
type Mail struct {
	auth              smtp.Auth
	smtpServerPort    int
	smtpServerAddress string
	to                string
	from              string
}

// NewMail creates a new Mail instance from the mail settings.
func NewMail(settings core.MailSettings) Mail {
	return Mail{
		from:              settings.From,
		to:                settings.To,
		smtpServerPort:    settings.Port,
		smtpServerAddress: settings.Host,
		auth: smtp.PlainAuth(
			"",
			settings.From,
			settings.Password,
			settings.Host,
		),
	}
}

// Notify sends an email notification with the given text
func (m Mail) Notify(text string) {
	serverAddress := fmt.Sprintf("%s:%d", m.smtpServerAddress, m.smtpServerPort)

	message := fmt.Sprintf(
		`To: "Operator" <%s>
From: "dogewatch" <%s>
Subject: dogewatch update

%s`,
		m.to,
		m.from,
		text,
	)

	err := smtp.SendMail(
		serverAddress,
		m.auth,
		m.from,
		[]string{m.to},
		[]byte(message),
	)
	if err != nil {
		log.WithError(err).Error("failed to send mail notification")
	}
}
