package google

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// Ensure Archive implements the interface.
var _ driven.Archive = (*Archive)(nil)

// Archive uploads generated attachments into a Drive folder.
type Archive struct {
	svc      *drive.Service
	folderID string
	limiter  *RateLimiter
}

// NewArchive creates an archive that stores files in folderID.
func NewArchive(svc *drive.Service, folderID string) *Archive {
	return &Archive{svc: svc, folderID: folderID, limiter: NewRateLimiter(ServiceDrive)}
}

// Store uploads data and returns the file's web link, or its id when
// Drive reports no link.
func (a *Archive) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if a.folderID == "" {
		return "", fmt.Errorf("%w: drive folder", domain.ErrConfigMissing)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	meta := &drive.File{
		Name:     name,
		Parents:  []string{a.folderID},
		MimeType: contentType,
	}
	file, err := a.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		SupportsAllDrives(true).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", WrapError("archive "+name, a.limiter.Observe(err))
	}

	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}
	return file.Id, nil
}
