// Package receipt turns receipt images into prefill data for the
// transaction form. Model output is untrusted: it never reaches the ledger
// without passing the same validation as hand-entered input.
package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dlitvinov/finledger/internal/domain"
)

// DefaultModelName is the Gemini model used for receipt understanding.
const DefaultModelName = "gemini-2.5-flash"

// Fields is the best-effort structured content of a receipt. Amounts are
// plain numbers here because this is boundary prefill data, not a ledger
// write.
type Fields struct {
	Amount       float64
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}

// Scanner extracts Fields from a receipt image. Implementations return
// (nil, nil) when the image is not recognizable as a receipt.
type Scanner interface {
	Scan(ctx context.Context, image []byte, mimeType string) (*Fields, error)
}

// GeminiScanner is the Gemini-backed Scanner.
type GeminiScanner struct {
	model string
}

// NewGeminiScanner creates a scanner using DefaultModelName. The genai
// client reads its API key from the environment.
func NewGeminiScanner() *GeminiScanner {
	return &GeminiScanner{model: DefaultModelName}
}

// Scan sends the image to Gemini and decodes the structured reply.
func (s *GeminiScanner) Scan(ctx context.Context, image []byte, mimeType string) (*Fields, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Scan: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildReceiptPrompt()},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Scan: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Scan: empty response from model")
	}

	fields, err := decodeFields(rawText)
	if err != nil {
		return nil, fmt.Errorf("Scan: %w\nraw response: %s", err, rawText)
	}
	return fields, nil
}

// buildReceiptPrompt constrains the model to the fixed category taxonomy
// and to strict JSON output.
func buildReceiptPrompt() string {
	var b strings.Builder
	b.WriteString("Analyze this receipt image and extract the following information as STRICT JSON:\n")
	b.WriteString("{\n")
	b.WriteString("  \"amount\": number (total paid),\n")
	b.WriteString("  \"date\": string, ISO format \"YYYY-MM-DD\",\n")
	b.WriteString("  \"description\": string (short summary of purchased items),\n")
	b.WriteString("  \"merchantName\": string,\n")
	b.WriteString("  \"category\": string\n")
	b.WriteString("}\n\n")

	b.WriteString("The category must be EXACTLY one of these ids:\n")
	for _, c := range domain.Categories {
		if c.Type != domain.TypeExpense {
			continue
		}
		b.WriteString("  - " + c.ID + "\n")
	}
	b.WriteString("If unsure, use \"other-expense\".\n\n")

	b.WriteString("If the image is not a receipt, return an empty object {}.\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	return b.String()
}

// decodeFields parses the model reply into Fields. An empty object means
// the image was not a receipt and yields (nil, nil).
func decodeFields(raw string) (*Fields, error) {
	clean := cleanModelJSON(raw)

	var parsed struct {
		Amount       *float64 `json:"amount"`
		Date         string   `json:"date"`
		Description  string   `json:"description"`
		MerchantName string   `json:"merchantName"`
		Category     string   `json:"category"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if parsed.Amount == nil {
		// Empty object: not a receipt.
		return nil, nil
	}

	fields := &Fields{
		Amount:       *parsed.Amount,
		Description:  parsed.Description,
		MerchantName: parsed.MerchantName,
		Category:     domain.NormalizeCategoryID(parsed.Category),
	}
	if parsed.Date != "" {
		d, err := time.Parse("2006-01-02", parsed.Date)
		if err != nil {
			// Some replies come back with a full timestamp.
			d, err = time.Parse(time.RFC3339, parsed.Date)
			if err != nil {
				return nil, fmt.Errorf("parse date %q: %w", parsed.Date, err)
			}
		}
		fields.Date = d
	}
	return fields, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the output instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
