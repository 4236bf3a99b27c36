package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pavelanni/quizrunner/internal/quiz"
)

// maxDocumentSize caps how much of a response body is read.
const maxDocumentSize = 4 << 20

// HTTP fetches question sets with GET <baseURL>/<sourceID>.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates an HTTP source. A zero timeout means no client timeout.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the question set. Non-2xx responses become a FetchError
// carrying the status code.
func (h *HTTP) Fetch(ctx context.Context, sourceID string) ([]byte, error) {
	endpoint := h.baseURL + "/" + url.PathEscape(sourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &quiz.FetchError{SourceID: sourceID, Err: err}
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &quiz.FetchError{SourceID: sourceID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &quiz.FetchError{SourceID: sourceID, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, &quiz.FetchError{SourceID: sourceID, Status: resp.StatusCode, Err: err}
	}
	if len(body) > maxDocumentSize {
		return nil, &quiz.FetchError{
			SourceID: sourceID,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("document exceeds %d bytes", maxDocumentSize),
		}
	}
	return body, nil
}
