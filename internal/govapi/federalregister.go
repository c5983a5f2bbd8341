package govapi

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"governmentreporter/internal/config"
	"governmentreporter/internal/errs"
	"governmentreporter/internal/httpclient"
)

const federalRegisterBaseURL = "https://www.federalregister.gov/api/v1"

// FederalRegisterClient fetches Executive Orders from the Federal
// Register API. The API is unauthenticated; only a polite User-Agent and
// an Accept: application/json header are sent.
type FederalRegisterClient struct {
	http *httpclient.Client
}

// NewFederalRegisterClient builds a client rate-limited per cfg.
func NewFederalRegisterClient(cfg config.Config) *FederalRegisterClient {
	headers := map[string]string{
		"User-Agent": "GovernmentReporter/0.1.0",
		"Accept":     "application/json",
	}
	return &FederalRegisterClient{
		http: httpclient.New(cfg.FederalRegisterRateLimit, "GovernmentReporter/0.1.0", headers),
	}
}

// ExecutiveOrderSummary is one entry of a /documents listing page, or the
// body of a single-document lookup.
type ExecutiveOrderSummary struct {
	DocumentNumber        string          `json:"document_number"`
	Title                 string          `json:"title"`
	ExecutiveOrderNumber  int             `json:"executive_order_number"`
	PublicationDate       string          `json:"publication_date"`
	SigningDate           string          `json:"signing_date"`
	President             json.RawMessage `json:"president"`
	Citation              string          `json:"citation"`
	HTMLURL               string          `json:"html_url"`
	RawTextURL            string          `json:"raw_text_url"`
	Abstract              string          `json:"abstract"`
}

type eoListPage struct {
	Results     []ExecutiveOrderSummary `json:"results"`
	TotalPages  int                     `json:"total_pages"`
}

// ListExecutiveOrders pages through every Executive Order signed
// between startDate and endDate (both YYYY-MM-DD), stopping once
// maxResults entries have been collected (0 means no cap).
func (c *FederalRegisterClient) ListExecutiveOrders(ctx context.Context, startDate, endDate string, maxResults int) ([]ExecutiveOrderSummary, error) {
	if !ValidateDateFormat(startDate) {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("invalid start_date format: %s, use YYYY-MM-DD", startDate))
	}
	if !ValidateDateFormat(endDate) {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("invalid end_date format: %s, use YYYY-MM-DD", endDate))
	}

	var out []ExecutiveOrderSummary
	page := 1
	const perPage = 100

	for {
		params := url.Values{
			"conditions[type]":                            {"PRESDOCU"},
			"conditions[presidential_document_type]":       {"executive_order"},
			"conditions[signing_date][gte]":                {startDate},
			"conditions[signing_date][lte]":                {endDate},
			"per_page":                                     {strconv.Itoa(perPage)},
			"page":                                         {strconv.Itoa(page)},
		}
		for _, f := range []string{
			"document_number", "title", "executive_order_number", "publication_date",
			"signing_date", "president", "citation", "html_url", "pdf_url",
			"full_text_xml_url", "body_html_url", "raw_text_url", "json_url",
		} {
			params.Add("fields[]", f)
		}

		resp, err := c.http.Get(ctx, federalRegisterBaseURL+"/documents", params)
		if err != nil {
			return nil, err
		}
		var data eoListPage
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return nil, errs.New(errs.KindMalformedResponse, err)
		}
		if len(data.Results) == 0 {
			break
		}

		for _, eo := range data.Results {
			if maxResults > 0 && len(out) >= maxResults {
				return out, nil
			}
			out = append(out, eo)
		}

		if page >= data.TotalPages {
			break
		}
		page++
	}
	return out, nil
}

// GetExecutiveOrder fetches one Executive Order by its Federal Register
// document number.
func (c *FederalRegisterClient) GetExecutiveOrder(ctx context.Context, documentNumber string) (ExecutiveOrderSummary, error) {
	resp, err := c.http.Get(ctx, federalRegisterBaseURL+"/documents/"+documentNumber, nil)
	if err != nil {
		return ExecutiveOrderSummary{}, err
	}
	var eo ExecutiveOrderSummary
	if err := json.Unmarshal(resp.Body, &eo); err != nil {
		return ExecutiveOrderSummary{}, errs.New(errs.KindMalformedResponse, err)
	}
	return eo, nil
}

var (
	preTagRe    = regexp.MustCompile(`(?s)<pre>(.*?)</pre>`)
	anchorTagRe = regexp.MustCompile(`(?s)<a[^>]*>.*?</a>`)
)

// FetchRawText retrieves the Executive Order's raw text from rawTextURL,
// stripping the HTML wrapper the Federal Register serves it in when
// present: text between the first <pre> tags, with entities unescaped
// and inline anchor tags removed.
func (c *FederalRegisterClient) FetchRawText(ctx context.Context, rawTextURL string) (string, error) {
	resp, err := c.http.Get(ctx, rawTextURL, nil)
	if err != nil {
		return "", err
	}
	text := string(resp.Body)

	if strings.HasPrefix(text, "<html>") {
		if m := preTagRe.FindStringSubmatch(text); m != nil {
			text = html.UnescapeString(m[1])
			text = anchorTagRe.ReplaceAllString(text, "")
		}
	}

	return strings.TrimSpace(text), nil
}

// ToDocument normalizes an Executive Order summary into the common
// Document shape. rawText is the already-fetched (and HTML-stripped)
// body; callers fetch it via FetchRawText since it requires a second
// round trip.
func (eo ExecutiveOrderSummary) ToDocument(rawText string) Document {
	content := rawText
	if content == "" {
		content = eo.Abstract
	}

	date := eo.SigningDate
	if t, err := time.Parse("2006-01-02", eo.SigningDate); err == nil {
		date = t.Format("2006-01-02")
	}

	president := "Unknown"
	var presObj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(eo.President, &presObj); err == nil && presObj.Name != "" {
		president = presObj.Name
	} else {
		var presStr string
		if err := json.Unmarshal(eo.President, &presStr); err == nil && presStr != "" {
			president = presStr
		}
	}

	return Document{
		ID:      eo.DocumentNumber,
		Title:   eo.Title,
		Date:    date,
		Type:    "Executive Order",
		Source:  "Federal Register",
		Content: content,
		Metadata: map[string]any{
			"document_number":         eo.DocumentNumber,
			"executive_order_number":  eo.ExecutiveOrderNumber,
			"president":               president,
			"citation":                eo.Citation,
			"publication_date":        eo.PublicationDate,
		},
		URL: eo.HTMLURL,
	}
}
