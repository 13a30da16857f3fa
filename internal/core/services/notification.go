package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// Ensure NotificationService implements the interface.
var _ driving.NotificationService = (*NotificationService)(nil)

// NotificationConfig holds the notification pipeline settings.
type NotificationConfig struct {
	Query         string
	RowLimit      int
	IDField       string
	StatusField   string
	CategoryField string
	Rules         []domain.EnrichmentRule
	From          string
	TestRecipient string
	MaxAgeDays    int
}

// NotificationService runs one scenario notification end to end:
// extract, filter, enrich, dedup, render, attach, send and log.
type NotificationService struct {
	scenarios driven.ScenarioSource
	templates driven.TemplateStore
	records   driven.RecordSource
	enricher  *Enricher
	history   *HistoryService
	workbook  driven.WorkbookBuilder
	mailer    driven.Mailer
	archive   driven.Archive
	cfg       NotificationConfig
	now       func() time.Time
}

// NewNotificationService creates a notification service.
// archive is optional; when nil attachments are not archived.
func NewNotificationService(
	scenarios driven.ScenarioSource,
	templates driven.TemplateStore,
	records driven.RecordSource,
	enricher *Enricher,
	history *HistoryService,
	workbook driven.WorkbookBuilder,
	mailer driven.Mailer,
	archive driven.Archive,
	cfg NotificationConfig,
) *NotificationService {
	if cfg.IDField == "" {
		cfg.IDField = domain.DefaultIDField
	}
	return &NotificationService{
		scenarios: scenarios,
		templates: templates,
		records:   records,
		enricher:  enricher,
		history:   history,
		workbook:  workbook,
		mailer:    mailer,
		archive:   archive,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Send notifies the recipients of the scenario serving req's status.
//
//nolint:gocyclo // Linear pipeline with one early return per step
func (s *NotificationService) Send(ctx context.Context, req driving.NotifyRequest) (*driving.NotifyResult, error) {
	if req.StatusID == "" {
		return nil, fmt.Errorf("%w: statusId is required", domain.ErrInvalidInput)
	}

	// 1. Resolve scenario
	catalog, err := s.scenarios.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	scenario, ok := catalog.Find(req.StatusID, req.CategoryID)
	if !ok {
		return nil, fmt.Errorf("%w: status %s category %q", domain.ErrScenarioNotFound, req.StatusID, req.CategoryID)
	}
	result := &driving.NotifyResult{Scenario: scenario.ID}
	logger.Section("Notification " + scenario.ID)

	// 2. Extract and select
	set, err := s.records.Extract(ctx, s.cfg.Query, s.cfg.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("extract records: %w", err)
	}
	rows := domain.FilterEquals(set.Rows, s.cfg.StatusField, req.StatusID)
	if scenario.CategoryID != "" && s.cfg.CategoryField != "" {
		rows = domain.FilterEquals(rows, s.cfg.CategoryField, scenario.CategoryID)
	}
	logger.Debug("notification %s: %d of %d records in status %s", scenario.ID, len(rows), set.Len(), req.StatusID)

	// 3. Enrich
	columns := set.Columns
	if s.enricher != nil {
		enriched, err := s.enricher.Enrich(ctx, rows, s.cfg.Rules)
		if err != nil {
			return nil, fmt.Errorf("enrich records: %w", err)
		}
		rows = enriched.Rows
		columns = set.WithColumns(enriched.Columns...)
		result.Warnings = append(result.Warnings, enriched.Warnings...)
	}

	// 4. Drop records already notified
	excluded, err := s.history.IDsToExclude(ctx, scenario.ID, rows, s.cfg.MaxAgeDays)
	if err != nil {
		return nil, fmt.Errorf("check history: %w", err)
	}
	fresh := make([]domain.Record, 0, len(rows))
	var ids []domain.RecordID
	for _, r := range rows {
		id := r.ID(s.cfg.IDField)
		if id != "" && excluded.Has(id) {
			continue
		}
		fresh = append(fresh, r)
		if id != "" {
			ids = append(ids, id)
		}
	}
	result.Excluded = len(rows) - len(fresh)
	result.RequestIDs = ids
	if len(fresh) == 0 {
		result.Reason = "no new records"
		logger.Info("notification %s: nothing new (%d excluded)", scenario.ID, result.Excluded)
		return result, nil
	}

	// 5. Recipients
	recipients, err := s.recipients(scenario, fresh, req.TestMode)
	if err != nil {
		return nil, err
	}
	for _, addr := range recipients.Invalid {
		result.Warnings = append(result.Warnings, "invalid address skipped: "+addr)
	}
	result.Recipients = recipients.All()

	// 6. Attachment shaping and body
	var attachment *driven.Attachment
	bodyColumns := columnsOf(columns)
	if scenario.Attachment != "" {
		tpl, found := catalog.Attachment(scenario.Attachment)
		if !found {
			tpl = domain.AttachmentTemplate{Name: scenario.Attachment}
			logger.Warn("notification %s: attachment template %s not found, using all columns", scenario.ID, scenario.Attachment)
			result.Warnings = append(result.Warnings, "attachment template not found, using all columns: "+scenario.Attachment)
		}
		attColumns, attRows := ShapeAttachment(tpl, fresh, columns)
		bodyColumns = attColumns
		if len(attRows) == 0 && len(attColumns) == 0 {
			result.Warnings = append(result.Warnings, "attachment has no data")
		} else {
			sheet := tpl.Sheet
			if sheet == "" {
				sheet = tpl.Name
			}
			data, err := s.workbook.Build(sheet, attColumns, attRows)
			if err != nil {
				return nil, fmt.Errorf("build attachment: %w", err)
			}
			attachment = &driven.Attachment{
				FileName:    tpl.AttachmentFileName(),
				ContentType: driven.XLSXContentType,
				Data:        data,
			}
			result.Attachment = attachment.FileName
		}
	}

	vars := TemplateVars(scenario, bodyColumns, fresh, ids, s.now())
	body, err := s.loadTemplate(scenario)
	if err != nil {
		return nil, err
	}
	subject := scenario.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	result.Subject = RenderTemplate(subject, SubjectVars(scenario, fresh, ids, s.now()))

	// 7. Send
	msg := driven.Message{
		From:     s.cfg.From,
		To:       recipients.To,
		CC:       recipients.CC,
		BCC:      recipients.BCC,
		Subject:  result.Subject,
		HTMLBody: RenderTemplate(body, vars),
	}
	if attachment != nil {
		msg.Attachments = []driven.Attachment{*attachment}
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send notification: %w", err)
	}
	result.Sent = true
	logger.Info("notification %s: sent %d records to %d recipients", scenario.ID, len(fresh), len(result.Recipients))

	// 8. Log and archive; failures only degrade the result
	if req.TestMode {
		result.Reason = "test mode"
	} else if err := s.history.LogSend(ctx, scenario.ID, ids, strings.Join(recipients.To, ", "), result.Subject, s.history.ChangeDates(fresh)); err != nil {
		logger.Warn("notification %s: history not written: %v", scenario.ID, err)
		result.Warnings = append(result.Warnings, "history not written: "+err.Error())
	}

	if s.archive != nil && attachment != nil && !req.TestMode {
		name := s.now().UTC().Format("20060102-150405") + "-" + attachment.FileName
		if ref, err := s.archive.Store(ctx, name, attachment.ContentType, attachment.Data); err != nil {
			logger.Warn("notification %s: attachment not archived: %v", scenario.ID, err)
			result.Warnings = append(result.Warnings, "attachment not archived: "+err.Error())
		} else {
			logger.Debug("notification %s: archived attachment as %s", scenario.ID, ref)
		}
	}

	return result, nil
}

func (s *NotificationService) recipients(scenario domain.Scenario, rows []domain.Record, testMode bool) (ResolvedRecipients, error) {
	if !testMode {
		return ResolveRecipients(scenario, rows)
	}
	if s.cfg.TestRecipient == "" {
		return ResolvedRecipients{}, fmt.Errorf("%w: mail.test_recipient", domain.ErrConfigMissing)
	}
	test := domain.Scenario{ID: scenario.ID, Recipients: domain.Recipients{To: []string{s.cfg.TestRecipient}}}
	return ResolveRecipients(test, nil)
}

// loadTemplate returns the scenario's body template, or the embedded default
// when the scenario names none or the file is missing.
func (s *NotificationService) loadTemplate(scenario domain.Scenario) (string, error) {
	if scenario.Template == "" || s.templates == nil {
		return DefaultTemplate, nil
	}
	body, err := s.templates.Load(scenario.Template)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("template %s not found, using default", scenario.Template)
		return DefaultTemplate, nil
	}
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", scenario.Template, err)
	}
	return body, nil
}

func columnsOf(fields []string) []domain.AttachmentColumn {
	out := make([]domain.AttachmentColumn, len(fields))
	for i, f := range fields {
		out[i] = domain.AttachmentColumn{Field: f}
	}
	return out
}
