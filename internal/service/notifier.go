package service

import (
	"context"
	"fmt"
	"time"

	"heater_server/internal/logger"
	"heater_server/internal/models"
	"heater_server/internal/repository"

	"gopkg.in/gomail.v2"
)

// staleAfter is how long the latest persisted value may be before the
// notifier warns that no data arrives anymore.
const staleAfter = 2 * time.Hour

// MailMessage is one outbound alert.
type MailMessage struct {
	To      []string
	Subject string
	Body    string
}

// MailSender delivers alert mails. Implemented by SMTPSender; tests
// swap in a recorder.
type MailSender interface {
	Send(msg MailMessage) error
}

// SMTPSender sends mail through an SMTP account via gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   username,
	}
}

func (s *SMTPSender) Send(msg MailMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}
	return nil
}

// NotifierService periodically checks the latest persisted values and
// mails the configured recipients when the heater reports an error, the
// buffer temperature falls below the threshold while the fire is out,
// or no data has arrived for a while. Delivery is best-effort; failures
// are logged and retried implicitly on the next pass.
type NotifierService struct {
	log          *logger.Logger
	heaterRepo   repository.Heater
	notifierRepo repository.Notifier
	sender       MailSender
	interval     time.Duration
	now          func() time.Time
}

func NewNotifierService(
	log *logger.Logger,
	heaterRepo repository.Heater,
	notifierRepo repository.Notifier,
	sender MailSender,
	interval time.Duration,
) *NotifierService {
	return &NotifierService{
		log:          log,
		heaterRepo:   heaterRepo,
		notifierRepo: notifierRepo,
		sender:       sender,
		interval:     interval,
		now:          time.Now,
	}
}

// Run ticks until ctx is canceled.
func (s *NotifierService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.CheckOnce(ctx); err != nil {
				s.log.Warnw("notifier_check_failed", "err", err)
			}
		}
	}
}

// CheckOnce runs one threshold-check pass.
func (s *NotifierService) CheckOnce(ctx context.Context) error {
	latest, err := s.heaterRepo.GetLatestDataValues(ctx)
	if err != nil {
		return fmt.Errorf("load latest values: %w", err)
	}
	cfg, err := s.notifierRepo.GetNotifierConfig(ctx)
	if err != nil {
		return fmt.Errorf("load notifier config: %w", err)
	}

	if len(cfg.Mails) == 0 {
		s.log.Debugw("notifier_no_recipients")
		return nil
	}

	if msg, ok := s.staleDataAlert(latest, cfg.Mails); ok {
		s.deliver(msg)
		// Without fresh data the remaining checks would alert on stale
		// values.
		return nil
	}
	if msg, ok := s.errorAlert(latest, cfg.Mails); ok {
		s.deliver(msg)
	}
	if msg, ok := s.temperatureAlert(latest, cfg); ok {
		s.deliver(msg)
	}
	return nil
}

func (s *NotifierService) staleDataAlert(latest map[int]models.DataValue, mails []string) (MailMessage, bool) {
	var newest time.Time
	for _, v := range latest {
		if v.TimeStamp.After(newest) {
			newest = v.TimeStamp
		}
	}
	if newest.IsZero() || s.now().Sub(newest) < staleAfter {
		return MailMessage{}, false
	}
	return MailMessage{
		To:      mails,
		Subject: "No heater data for more than 2 hours",
		Body: fmt.Sprintf("No heater values have been received since %s.",
			newest.Format(time.RFC3339)),
	}, true
}

func (s *NotifierService) errorAlert(latest map[int]models.DataValue, mails []string) (MailMessage, bool) {
	errorValue, ok := latest[models.ErrorValueID]
	if !ok || errorValue.Value == 0 {
		return MailMessage{}, false
	}
	return MailMessage{
		To:      mails,
		Subject: "The heater reports an error",
		Body:    fmt.Sprintf("The heater reports an error (error %d).", int(errorValue.Value)),
	}, true
}

func (s *NotifierService) temperatureAlert(latest map[int]models.DataValue, cfg models.NotifierConfig) (MailMessage, bool) {
	var upper, lower, status float64
	if v, ok := latest[models.BufferTopTempValueID]; ok {
		upper = v.Value
	}
	if v, ok := latest[models.BufferBottomValueID]; ok {
		lower = v.Value
	}
	if v, ok := latest[models.StatusValueID]; ok {
		status = v.Value
	}

	// Only alert when the fire is out; during burning the buffer will
	// recover on its own.
	if upper >= cfg.LowerThreshold || int(status) != models.StatusFireOut {
		return MailMessage{}, false
	}
	return MailMessage{
		To:      cfg.Mails,
		Subject: "Heater buffer temperature is low",
		Body: fmt.Sprintf(
			"The buffer temperature fell below %.1f (upper: %.1f, lower: %.1f) and the fire is out.",
			cfg.LowerThreshold, upper, lower),
	}, true
}

func (s *NotifierService) deliver(msg MailMessage) {
	if err := s.sender.Send(msg); err != nil {
		s.log.Warnw("notifier_send_failed", "subject", msg.Subject, "err", err)
		return
	}
	s.log.Infow("notifier_mail_sent", "subject", msg.Subject, "recipients", len(msg.To))
}

// Config returns the stored notifier configuration.
func (s *NotifierService) Config(ctx context.Context) (models.NotifierConfig, error) {
	return s.notifierRepo.GetNotifierConfig(ctx)
}

// SetConfig replaces the stored notifier configuration.
func (s *NotifierService) SetConfig(ctx context.Context, cfg models.NotifierConfig) error {
	return s.notifierRepo.SetNotifierConfig(ctx, cfg)
}
