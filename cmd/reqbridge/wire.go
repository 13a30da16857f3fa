package main

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"github.com/custodia-labs/reqbridge/internal/adapters/driven/config/env"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/directory"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/google"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/mail"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/postgres"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/scripts"
	filestore "github.com/custodia-labs/reqbridge/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reqbridge/internal/adapters/driven/xlsx"
	"github.com/custodia-labs/reqbridge/internal/adapters/driving/cli"
	"github.com/custodia-labs/reqbridge/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/core/services"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// bootstrap resolves settings and builds the adapters and services scope needs.
//
//nolint:gocyclo // Wiring is a flat list of optional adapters
func bootstrap(ctx context.Context, configPath string, scope cli.Scope) (*cli.Services, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	// 1. Configuration: file, then environment overrides
	fileStore, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	settingsService := services.NewSettingsService(env.NewStore(fileStore))
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	if scope == cli.ScopeFull {
		if err := settingsService.Validate(settings); err != nil {
			return nil, err
		}
	}
	logger.Debug("config loaded from %s", fileStore.Path())

	// 2. History backend
	historyStore, closeHistory, err := openHistory(settings.History)
	if err != nil {
		return nil, err
	}
	if closeHistory != nil {
		closers = append(closers, closeHistory)
	}
	history := services.NewHistoryService(historyStore, settings.Pipeline.IDField, settings.Pipeline.ChangeField)
	if zone, err := settings.Database.Location(); err == nil {
		history.SetRecordZone(zone)
	}

	if scope == cli.ScopeLocal {
		return &cli.Services{
			Settings: settingsService,
			History:  history,
			Close:    closeAll,
		}, nil
	}

	// 3. Record source
	query, err := postgres.LoadQuery(settings.Database.QueryFile)
	if err != nil {
		return nil, err
	}
	extractor, err := postgres.Open(ctx, settings.Database)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	closers = append(closers, extractor.Close)

	// 4. Google services
	g, err := openGoogle(ctx, settings)
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	// 5. Directory
	var dir driven.Directory
	if settings.Directory.Enabled() {
		dir = directory.NewClient(settings.Directory)
	}
	enricher := services.NewEnricher(dir)
	rules := []domain.EnrichmentRule{settings.Pipeline.EnrichmentRule()}

	// 6. Mail transport
	var mailer driven.Mailer
	switch settings.Mail.Transport {
	case domain.MailTransportGmail:
		mailer = g.mailer
	default:
		mailer = mail.NewSMTPMailer(settings.Mail)
	}

	// 7. Scenarios and templates
	var scenarios driven.ScenarioSource
	if settings.Pipeline.ScenarioFile != "" {
		store := file.NewScenarioStore(settings.Pipeline.ScenarioFile)
		if _, err := store.Catalog(ctx); err != nil {
			_ = closeAll()
			return nil, fmt.Errorf("scenario file: %w", err)
		}
		go func() {
			if err := store.Watch(ctx); err != nil {
				logger.Warn("scenario watch stopped: %v", err)
			}
		}()
		scenarios = store
	} else {
		var attachments map[string]domain.AttachmentTemplate
		if settings.Pipeline.AttachmentsFile != "" {
			if attachments, err = file.LoadAttachments(settings.Pipeline.AttachmentsFile); err != nil {
				_ = closeAll()
				return nil, fmt.Errorf("attachments file: %w", err)
			}
		}
		scenarios = services.NewSheetScenarioSource(
			g.sheets, settings.Sheets.SpreadsheetID, settings.Sheets.ScenarioTab, attachments,
		)
	}
	templates := file.NewTemplateStore(settings.Mail.TemplateDir)
	workbook := xlsx.NewBuilder()

	// 8. Services
	notification := services.NewNotificationService(
		scenarios, templates, extractor, enricher, history, workbook, mailer, g.archive,
		services.NotificationConfig{
			Query:         query,
			RowLimit:      settings.Database.RowLimit,
			IDField:       settings.Pipeline.IDField,
			StatusField:   settings.Pipeline.StatusField,
			CategoryField: settings.Pipeline.CategoryField,
			Rules:         rules,
			From:          settings.Mail.From,
			TestRecipient: settings.Mail.TestRecipient,
			MaxAgeDays:    settings.History.MaxAgeDays,
		},
	)
	export := services.NewExportService(extractor, enricher, g.sheets, workbook, services.ExportConfig{
		Query:       query,
		RowLimit:    settings.Database.RowLimit,
		Rules:       rules,
		Sheets:      settings.Sheets,
		FolderField: settings.Pipeline.FolderField,
		StatusField: settings.Pipeline.StatusField,
	})
	scriptService := services.NewScriptService(scripts.NewRunner(settings.Scripts))

	var provisioning driving.ProvisioningService
	if g.sheets != nil && dir != nil {
		provisioning = services.NewProvisioningService(
			g.sheets, dir, settings.Sheets.SpreadsheetID, settings.Sheets.ProvisioningTab,
		)
	}

	// 9. HTTP API
	server, err := httpapi.NewServer(&httpapi.Ports{
		Notification: notification,
		Export:       export,
		Provisioning: provisioning,
		History:      history,
		Scripts:      scriptService,
	})
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	return &cli.Services{
		Settings:     settingsService,
		Notification: notification,
		Export:       export,
		History:      history,
		Scripts:      scriptService,
		Serve:        server.RunHTTP,
		Close:        closeAll,
	}, nil
}

func openHistory(settings domain.HistorySettings) (driven.HistoryStore, func() error, error) {
	switch settings.Backend {
	case domain.HistoryBackendSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("history database: %w", err)
		}
		return store.HistoryStore(), store.Close, nil
	default:
		return filestore.NewHistoryStore(settings.Path), nil, nil
	}
}

// googleAdapters are the Google-backed adapters. Each is nil when not configured.
type googleAdapters struct {
	sheets  driven.SheetStore
	archive driven.Archive
	mailer  driven.Mailer
}

func openGoogle(ctx context.Context, settings *domain.AppSettings) (googleAdapters, error) {
	var g googleAdapters
	if settings.Sheets.ServiceAccountKey == "" {
		return g, nil
	}

	key, err := google.LoadServiceAccountKey(settings.Sheets.ServiceAccountKey)
	if err != nil {
		return g, err
	}

	ts, err := google.ServiceAccountTokenSource(ctx, key, "", google.ScopeSheets, google.ScopeDriveFile)
	if err != nil {
		return g, err
	}
	sheetsSvc, err := google.NewSheetsService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return g, err
	}
	g.sheets = google.NewSheetStore(sheetsSvc)

	if settings.Pipeline.ArchiveFolderID != "" {
		driveSvc, err := google.NewDriveService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return g, err
		}
		g.archive = google.NewArchive(driveSvc, settings.Pipeline.ArchiveFolderID)
	}

	if settings.Mail.Transport == domain.MailTransportGmail {
		// Gmail sends as the impersonated sender.
		gmailTS, err := google.ServiceAccountTokenSource(ctx, key, settings.Mail.From, google.ScopeGmailSend)
		if err != nil {
			return g, err
		}
		gmailSvc, err := google.NewGmailService(ctx, option.WithTokenSource(gmailTS))
		if err != nil {
			return g, err
		}
		g.mailer = google.NewGmailMailer(gmailSvc)
	}

	return g, nil
}
