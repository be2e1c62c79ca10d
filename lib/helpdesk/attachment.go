// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package helpdesk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bureau-foundation/helpdesk/lib/netutil"
)

// Attachment is the upstream's metadata record for one ticket
// attachment.
type Attachment struct {
	// ID is the upstream's stable numeric identifier.
	ID int64 `json:"id"`

	// FileName is the name the attachment was uploaded under.
	FileName string `json:"file_name"`

	// ContentURL is where the attachment bytes are served from. May
	// redirect to external blob storage.
	ContentURL string `json:"content_url"`

	// ContentType is the upstream's recorded MIME type.
	ContentType string `json:"content_type"`

	// Size is the attachment size in bytes.
	Size int64 `json:"size"`

	// Deleted marks attachments redacted upstream. The metadata
	// record survives redaction; the content does not.
	Deleted bool `json:"deleted"`
}

// ShowAttachment fetches the metadata record for one attachment.
func (client *Client) ShowAttachment(ctx context.Context, id int64) (*Attachment, error) {
	var envelope struct {
		Attachment Attachment `json:"attachment"`
	}
	path := fmt.Sprintf("/api/v2/attachments/%d.json", id)
	if err := client.get(ctx, path, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Attachment, nil
}

// Download opens a streaming read of the attachment content at
// contentURL. The caller must close the returned body.
//
// The request carries credentials; when the upstream redirects to
// external blob storage, the HTTP client strips the Authorization
// header on the cross-host hop.
func (client *Client) Download(ctx context.Context, contentURL string) (io.ReadCloser, error) {
	if !strings.HasPrefix(contentURL, "https://") {
		return nil, fmt.Errorf("helpdesk: content URL must be HTTPS (got %q)", contentURL)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: creating download request: %w", err)
	}
	client.authorize(request)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: downloading %s: %w", contentURL, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body := netutil.ErrorBody(io.LimitReader(response.Body, 8192))
		response.Body.Close()
		return nil, parseAPIError(response.StatusCode, []byte(body))
	}
	return response.Body, nil
}
