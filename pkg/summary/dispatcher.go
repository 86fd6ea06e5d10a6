package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ravijp/portfolio-advisor/pkg/apperrors"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/rs/zerolog"
)

// Delivery stages recorded on failure
const (
	StageGenerate = "generate"
	StageRender   = "render"
	StageSend     = "send"
)

// Notifier hands a rendered message to the mail transport
type Notifier interface {
	Send(ctx context.Context, msg services.EmailMessage) error
}

// DispatchStore is the persistence the dispatcher needs besides the engine's reads
type DispatchStore interface {
	ListSummaryRecipients(ctx context.Context) ([]models.UserPreferences, error)
	GetPreferences(ctx context.Context, email string) (*models.UserPreferences, error)
	ListHoldings(ctx context.Context) ([]models.Holding, error)
	InsertSnapshot(ctx context.Context, snap *models.PortfolioSnapshot) error
	RecordDelivery(ctx context.Context, d *models.SummaryDelivery) error
}

// FailedDelivery describes one user whose summary was not delivered
type FailedDelivery struct {
	Email string `json:"email"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// DispatchReport is the outcome of one dispatcher run
type DispatchReport struct {
	RunID     string           `json:"run_id"`
	Attempted int              `json:"attempted"`
	Sent      int              `json:"sent"`
	Failed    []FailedDelivery `json:"failed"`
}

// DeliveryError is returned by SendNow when the summary could not be delivered
type DeliveryError struct {
	Stage string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("summary %s failed: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Dispatcher runs the engine for each recipient and delivers the result.
// One user's failure never stops the others.
type Dispatcher struct {
	engine   *Engine
	renderer *Renderer
	notifier Notifier
	store    DispatchStore
	metrics  *metrics.Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher
func NewDispatcher(engine *Engine, renderer *Renderer, notifier Notifier, store DispatchStore, rec *metrics.Recorder, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		engine:   engine,
		renderer: renderer,
		notifier: notifier,
		store:    store,
		metrics:  rec,
		logger:   logger,
		now:      time.Now,
	}
}

// RunDaily delivers a summary to every user with daily summaries enabled,
// then records a portfolio snapshot as the baseline for the next run.
func (d *Dispatcher) RunDaily(ctx context.Context) (DispatchReport, error) {
	report := DispatchReport{RunID: uuid.NewString(), Failed: []FailedDelivery{}}
	log := d.logger.With().Str("run_id", report.RunID).Logger()

	recipients, err := d.store.ListSummaryRecipients(ctx)
	if err != nil {
		return report, err
	}
	log.Info().Int("count", len(recipients)).Msg("Starting daily summary run")

	now := d.now()
	for _, prefs := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		if _, derr := d.deliver(ctx, report.RunID, now, prefs); derr != nil {
			report.Failed = append(report.Failed, FailedDelivery{
				Email: prefs.Email,
				Stage: derr.Stage,
				Error: derr.Err.Error(),
			})
			continue
		}
		report.Sent++
	}

	if err := d.snapshot(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to record portfolio snapshot")
		return report, err
	}

	log.Info().Int("count", report.Sent).Int("failed", len(report.Failed)).Msg("Daily summary run finished")
	return report, nil
}

// SendNow generates and delivers one user's summary immediately, regardless
// of the enabled flag. It never writes a snapshot.
func (d *Dispatcher) SendNow(ctx context.Context, email string) (*models.DailySummary, error) {
	prefs, err := d.store.GetPreferences(ctx, email)
	if err != nil {
		return nil, err
	}
	s, derr := d.deliver(ctx, uuid.NewString(), d.now(), *prefs)
	if derr != nil {
		return nil, derr
	}
	return s, nil
}

// Preview generates a user's summary without delivering it
func (d *Dispatcher) Preview(ctx context.Context, email string) (*models.DailySummary, error) {
	prefs, err := d.store.GetPreferences(ctx, email)
	if err != nil {
		return nil, err
	}
	return d.engine.Generate(ctx, d.now(), *prefs)
}

func (d *Dispatcher) deliver(ctx context.Context, runID string, now time.Time, prefs models.UserPreferences) (*models.DailySummary, *DeliveryError) {
	s, derr := d.generateAndSend(ctx, now, prefs)

	delivery := &models.SummaryDelivery{
		RunID:  runID,
		Email:  prefs.Email,
		Status: models.DeliverySent,
	}
	if derr != nil {
		delivery.Status = models.DeliveryFailed
		delivery.Stage = derr.Stage
		delivery.Error = derr.Err.Error()
		d.logger.Error().Err(derr.Err).
			Str("run_id", runID).
			Str("email", prefs.Email).
			Str("stage", derr.Stage).
			Msg("Summary delivery failed")
	}
	d.metrics.RecordSummary(delivery.Status)

	// The record lives outside ctx so a cancelled run still leaves a trace
	if err := d.store.RecordDelivery(context.WithoutCancel(ctx), delivery); err != nil {
		d.logger.Error().Err(err).Str("email", prefs.Email).Msg("Failed to record summary delivery")
	}
	return s, derr
}

func (d *Dispatcher) generateAndSend(ctx context.Context, now time.Time, prefs models.UserPreferences) (*models.DailySummary, *DeliveryError) {
	s, err := d.engine.Generate(ctx, now, prefs)
	if err != nil {
		return nil, &DeliveryError{Stage: StageGenerate, Err: err}
	}

	msg, err := d.renderer.Render(s)
	if err != nil {
		return s, &DeliveryError{Stage: StageRender, Err: err}
	}

	err = d.notifier.Send(ctx, services.EmailMessage{
		To:      prefs.Email,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return s, &DeliveryError{Stage: StageSend, Err: apperrors.Upstream("email", err)}
	}
	return s, nil
}

func (d *Dispatcher) snapshot(ctx context.Context) error {
	holdings, err := d.store.ListHoldings(ctx)
	if err != nil {
		return err
	}
	return d.store.InsertSnapshot(ctx, &models.PortfolioSnapshot{
		Value:         services.PortfolioValue(holdings),
		HoldingsCount: len(holdings),
		CapturedAt:    d.now().UTC(),
	})
}
