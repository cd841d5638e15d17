package poller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const googleDocMimeType = "application/vnd.google-apps.document"

// DrivePoller lists recently modified Google Docs.
type DrivePoller struct {
	svc            *drive.Service
	top            int
	modifiedWithin time.Duration
	now            func() time.Time
}

func NewDrivePoller(svc *drive.Service, top int, modifiedWithin time.Duration) *DrivePoller {
	return &DrivePoller{
		svc:            svc,
		top:            top,
		modifiedWithin: modifiedWithin,
		now:            time.Now,
	}
}

func (p *DrivePoller) query() string {
	q := fmt.Sprintf("mimeType='%s' and trashed=false", googleDocMimeType)
	if p.modifiedWithin > 0 {
		since := p.now().Add(-p.modifiedWithin).UTC().Format(time.RFC3339)
		q += fmt.Sprintf(" and modifiedTime > '%s'", since)
	}
	return q
}

func (p *DrivePoller) ListChanges(ctx context.Context) ([]Change, error) {
	call := p.svc.Files.List().
		Q(p.query()).
		OrderBy("modifiedTime desc").
		Fields(googleapi.Field("files(id,name,modifiedTime,webViewLink)")).
		Context(ctx)
	if p.top > 0 {
		call = call.PageSize(int64(p.top))
	}

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("gdrive: list files: %w", err)
	}

	changes := make([]Change, 0, len(res.Files))
	for _, f := range res.Files {
		modified, err := time.Parse(time.RFC3339, f.ModifiedTime)
		if err != nil {
			return nil, fmt.Errorf("gdrive: file %s has invalid modifiedTime %q: %w", f.Id, f.ModifiedTime, err)
		}
		changes = append(changes, Change{
			ID:           f.Id,
			Title:        strings.TrimSpace(f.Name),
			LastModified: modified,
			ContentURL:   f.WebViewLink,
		})
	}
	return changes, nil
}

// Content exports the document as plain text.
func (p *DrivePoller) Content(ctx context.Context, c Change) (string, error) {
	resp, err := p.svc.Files.Export(c.ID, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("gdrive: export %s: %w", c.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gdrive: read export of %s: %w", c.ID, err)
	}
	// Drive prefixes plain-text exports with a UTF-8 byte order mark.
	return strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff")), nil
}
