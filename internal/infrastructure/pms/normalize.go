package pms

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// StatusTable maps a vendor vocabulary onto a canonical enum.
// Lookups never fall back to a default; unknown values raise UNMAPPED_STATUS.
type StatusTable[T ~string] struct {
	vendor  string
	kind    string
	entries map[string]T
}

// NewStatusTable creates a lookup table
func NewStatusTable[T ~string](vendor, kind string, entries map[string]T) StatusTable[T] {
	return StatusTable[T]{vendor: vendor, kind: kind, entries: entries}
}

// Lookup returns the canonical value for a vendor value
func (t StatusTable[T]) Lookup(value string) (T, error) {
	if v, ok := t.entries[value]; ok {
		return v, nil
	}
	var zero T
	return zero, integration.NewUnmappedStatusError(t.vendor, t.kind, value)
}

// VendorValues lists the vendor values the table knows
func (t StatusTable[T]) VendorValues() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	return out
}

// Covers reports whether every canonical value is produced by some vendor value
func (t StatusTable[T]) Covers(all []T) bool {
	seen := make(map[T]bool, len(t.entries))
	for _, v := range t.entries {
		seen[v] = true
	}
	for _, v := range all {
		if !seen[v] {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Field parsing helpers
// ---------------------------------------------------------------------------

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty yields zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(integration.StoredTimePrecision), nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, integration.NewInvalidResponseError(fmt.Sprintf("invalid %s %q", field, s), nil)
}

// parseAmount parses a decimal string. Empty yields zero.
func parseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, integration.NewInvalidResponseError(fmt.Sprintf("invalid %s %q", field, s), err)
	}
	return d, nil
}

// formatDate renders a stay date in the vendor-neutral calendar form
func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// decodeWebhookJSON unmarshals a webhook booking payload
func decodeWebhookJSON(payload json.RawMessage, v any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return integration.NewIntegrationError(integration.CodeInvalidPayload, "webhook booking payload is empty", http.StatusBadRequest)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return integration.WrapIntegrationError(integration.CodeInvalidPayload, "webhook booking payload is malformed", http.StatusBadRequest, err)
	}
	return nil
}

// requireExternalID rejects records the vendor sent without an identifier
func requireExternalID(vendor, id string) error {
	if strings.TrimSpace(id) == "" {
		return integration.NewInvalidResponseError(vendor+" record has no identifier", nil)
	}
	return nil
}
