package service

import (
	"context"

	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
)

// HandleReady emails the suggestions and closes the pipeline.
//
// Delivery is best-effort: a failed send is logged as a NotificationError but
// leaves the job in sending_emails, and the job is not moved to completed on
// success either. The sent event goes out in both cases.
func (p *Pipeline) HandleReady(ctx context.Context, ev domain.Ready) error {
	ok, err := p.begin(ctx, ev.Envelope, ev.Topic(), domain.StatusSendingEmails)
	if !ok {
		return err
	}
	p.logger.Printf("[JOB %s] Sending %d suggestions to %s", ev.JobID, len(ev.Suggestions), ev.Email)

	subject, body := renderEmail(p.opts.RecipientName, ev.Suggestions)
	if err := p.mailer.Send(ctx, ports.EmailMessage{To: ev.Email, Subject: subject, Text: body}); err != nil {
		notifyErr := &domain.NotificationError{Recipient: ev.Email, Err: err}
		p.logger.Printf("[JOB %s] ERROR: %v", ev.JobID, notifyErr)
	} else {
		p.logger.Printf("[JOB %s] Email delivered", ev.JobID)
	}

	sent := domain.Sent{Envelope: ev.Envelope, Subject: subject, Body: body}
	if err := p.bus.Publish(ctx, sent); err != nil {
		p.logger.Printf("[JOB %s] ERROR: failed to emit %s: %v", ev.JobID, sent.Topic(), err)
		return err
	}
	return nil
}
