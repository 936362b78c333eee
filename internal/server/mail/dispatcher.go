package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"contactbook/internal/common"
	"contactbook/internal/logging"
)

const (
	queueSize      = 64
	sendTimeout    = 30 * time.Second
	maxSendRetries = 3
)

type messageKind int

const (
	kindConfirmation messageKind = iota
	kindPasswordReset
)

type message struct {
	kind     messageKind
	to       string
	username string
	token    string
}

// Dispatcher queues messages and delivers them from a single background
// worker. Enqueueing never blocks: when the queue is full the message is
// dropped and logged, so a slow or dead SMTP server cannot stall requests.
type Dispatcher struct {
	sender  Sender
	baseURL string
	logger  logging.Logger

	queue chan message
	done  chan struct{}
}

func NewDispatcher(sender Sender, baseURL string, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		baseURL: baseURL,
		logger:  logger.With("module", "mail"),
		queue:   make(chan message, queueSize),
		done:    make(chan struct{}),
	}
}

// EnqueueConfirmation schedules an email-confirmation message.
func (d *Dispatcher) EnqueueConfirmation(to string, username string, token string) {
	d.enqueue(message{kind: kindConfirmation, to: to, username: username, token: token})
}

// EnqueuePasswordReset schedules a password-reset message.
func (d *Dispatcher) EnqueuePasswordReset(to string, username string, token string) {
	d.enqueue(message{kind: kindPasswordReset, to: to, username: username, token: token})
}

func (d *Dispatcher) enqueue(m message) {
	select {
	case d.queue <- m:
	default:
		d.logger.Warn(context.Background(), "mail queue full, dropping message", "to", m.to)
	}
}

// Run delivers queued messages until ctx is cancelled. It drains whatever
// is already queued before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case m := <-d.queue:
			d.deliver(m)
		case <-ctx.Done():
			for {
				select {
				case m := <-d.queue:
					d.deliver(m)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) deliver(m message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var sendErr error
		switch m.kind {
		case kindConfirmation:
			sendErr = d.sender.SendConfirmation(ctx, m.to, m.username, d.confirmationLink(m.token))
		case kindPasswordReset:
			sendErr = d.sender.SendPasswordReset(ctx, m.to, m.username, d.passwordResetLink(m.token))
		}
		if sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", common.ErrMailDeliveryFailed, err)
		d.logger.Error(ctx, "message dropped after retries", "to", m.to, "error", err.Error())
		return
	}
	d.logger.Info(ctx, "mail delivered", "to", m.to)
}

func (d *Dispatcher) confirmationLink(token string) string {
	return fmt.Sprintf("%s/api/auth/confirmed_email/%s", d.baseURL, token)
}

func (d *Dispatcher) passwordResetLink(token string) string {
	return fmt.Sprintf("%s/api/auth/update_password/%s", d.baseURL, token)
}
