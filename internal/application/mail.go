package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"taskvault-api/pkg/mailer"
)

// JobPublisher enqueues email jobs. *helpers.RabbitPublisher satisfies it;
// tests substitute a capture fake.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MailDispatcher publishes email jobs for the worker to deliver.
type MailDispatcher struct {
	Pub     JobPublisher
	Enabled bool
	AppName string
	Logger  *logrus.Logger
}

func NewMailDispatcher(pub JobPublisher, enabled bool, appName string, logger *logrus.Logger) *MailDispatcher {
	return &MailDispatcher{Pub: pub, Enabled: enabled, AppName: appName, Logger: logger}
}

// Send enqueues the job and reports failure to the caller. Registration is
// the only flow that awaits the dispatch.
func (d *MailDispatcher) Send(ctx context.Context, job mailer.EmailJob) error {
	if d == nil || d.Pub == nil || !d.Enabled {
		return nil
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	job.Data["AppName"] = d.AppName
	return d.Pub.PublishJSON(ctx, job)
}

// SendAsync enqueues the job best-effort. A failure never propagates to the
// caller; the primary state mutation has already committed.
func (d *MailDispatcher) SendAsync(ctx context.Context, job mailer.EmailJob) {
	if err := d.Send(ctx, job); err != nil && d.Logger != nil {
		d.Logger.WithError(err).WithFields(logrus.Fields{
			"to": job.To, "template": job.Template,
		}).Warn("email dispatch failed")
	}
}
