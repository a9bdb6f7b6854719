package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"maitred/internal/models"
)

// ErrEmptyDocument is returned when the renderer answers without a document
var ErrEmptyDocument = errors.New("renderer returned an empty document")

// Document is what the renderer receives: the invoice plus its recomputed totals
type Document struct {
	Invoice models.Invoice `json:"invoice"`
	Totals  Totals         `json:"totals"`
}

// Renderer turns an invoice document into a base64-encoded PDF
type Renderer interface {
	Render(ctx context.Context, doc Document) (string, error)
}

// HTTPRenderer delegates PDF construction to an external rendering service
type HTTPRenderer struct {
	httpClient *http.Client
	URL        string
}

// NewHTTPRenderer creates a renderer posting to url
func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		httpClient: &http.Client{Timeout: timeout},
		URL:        url,
	}
}

type renderResponse struct {
	PDF string `json:"pdf"`
}

// Render posts the document and returns the base64 PDF the service produced
func (r *HTTPRenderer) Render(ctx context.Context, doc Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach invoice renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("invoice renderer failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode renderer response: %w", err)
	}
	if out.PDF == "" {
		return "", ErrEmptyDocument
	}
	return out.PDF, nil
}

// DecodePDF turns the renderer's base64 string into the PDF bytes.
// A data URI prefix such as "data:application/pdf;base64," is tolerated.
func DecodePDF(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, "base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len("base64,"):]
	}
	pdf, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid pdf encoding: %w", err)
	}
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}
	return pdf, nil
}

// Filename is the attachment name for an invoice PDF
func Filename(inv models.Invoice) string {
	number := inv.InvoiceNumber
	if number == "" {
		number = inv.ID
	}
	return "invoice-" + number + ".pdf"
}

// Export renders an invoice and returns the decoded PDF bytes
func Export(ctx context.Context, r Renderer, inv models.Invoice, taxRate decimal.Decimal) ([]byte, error) {
	doc := Document{Invoice: inv, Totals: Compute(inv.Items, taxRate)}
	encoded, err := r.Render(ctx, doc)
	if err != nil {
		return nil, err
	}
	return DecodePDF(encoded)
}
