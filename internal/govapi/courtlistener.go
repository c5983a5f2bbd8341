package govapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"governmentreporter/internal/config"
	"governmentreporter/internal/errs"
	"governmentreporter/internal/httpclient"
)

const courtListenerBaseURL = "https://www.courtlistener.com/api/rest/v4"

// CourtListenerClient fetches Supreme Court opinions and their clusters
// from the CourtListener REST API.
type CourtListenerClient struct {
	http *httpclient.Client
}

// NewCourtListenerClient builds a client authorized with the given API
// token, rate-limited per cfg.
func NewCourtListenerClient(cfg config.Config) *CourtListenerClient {
	headers := map[string]string{
		"User-Agent": "GovernmentReporter/0.1.0",
	}
	if cfg.CourtListenerToken != "" {
		headers["Authorization"] = "Token " + cfg.CourtListenerToken
	}
	return &CourtListenerClient{
		http: httpclient.New(cfg.CourtListenerRateLimit, "GovernmentReporter/0.1.0", headers),
	}
}

// ClusterListing is one row of a /clusters/ listing page, carrying the
// sub_opinions URLs its opinions can be extracted from.
type ClusterListing struct {
	ID          int      `json:"id"`
	DateFiled   string   `json:"date_filed"`
	SubOpinions []string `json:"sub_opinions"`
}

type clusterListPage struct {
	Next    *string          `json:"next"`
	Count   int              `json:"count"`
	Results []ClusterListing `json:"results"`
}

// OpinionSummary is one row of a /opinions/ listing page.
type OpinionSummary struct {
	ID          int    `json:"id"`
	ResourceURI string `json:"resource_uri"`
	ClusterID   int    `json:"cluster_id"`
	DateCreated string `json:"date_created"`
	Type        string `json:"type"`
	PlainText   string `json:"plain_text"`
	DownloadURL string `json:"download_url"`
	PageCount   int    `json:"page_count"`
	AuthorID    int    `json:"author_id"`
}

// ClusterCitation is one entry of a cluster's "citations" array.
type ClusterCitation struct {
	Type    int    `json:"type"`
	Volume  int    `json:"volume"`
	Reporter string `json:"reporter"`
	Page    string `json:"page"`
}

// ClusterDocket carries the court identifier a cluster's docket belongs to.
type ClusterDocket struct {
	CourtID string `json:"court_id"`
}

// Cluster carries the case-level metadata (name, citations, date) an
// opinion belongs to.
type Cluster struct {
	CaseName  string            `json:"case_name"`
	DateFiled string            `json:"date_filed"`
	Citations []ClusterCitation `json:"citations"`
	Docket    ClusterDocket     `json:"docket"`
}

// ListSCOTUSOpinionIDs walks the /clusters/ endpoint (not /opinions/,
// which times out under a date_filed filter) for every Supreme Court
// cluster with date_filed in [sinceDate, untilDate], extracting each
// cluster's sub_opinions IDs, and stops once maxResults IDs have been
// collected (0 means no cap).
//
// Before paginating it issues a separate count=on request and aborts if
// the reported count is wildly larger than SCOTUS's historical output
// rate (~100 opinions/year) for the requested range, since that signals
// the court filter isn't being applied as expected.
func (c *CourtListenerClient) ListSCOTUSOpinionIDs(ctx context.Context, sinceDate, untilDate string, maxResults int) ([]string, error) {
	if sinceDate == "" {
		sinceDate = "1900-01-01"
	}
	if untilDate == "" {
		untilDate = time.Now().Format("2006-01-02")
	}

	clustersURL := courtListenerBaseURL + "/clusters/"
	baseParams := url.Values{
		"docket__court":   {"scotus"},
		"order_by":        {"-date_filed,id"},
		"date_filed__gte": {sinceDate},
		"date_filed__lte": {untilDate},
		"page_size":       {"20"},
	}

	maxClusters := 1000
	countParams := url.Values{}
	for k, v := range baseParams {
		countParams[k] = v
	}
	countParams.Set("count", "on")

	countResp, err := c.http.Get(ctx, clustersURL, countParams)
	if err != nil {
		return nil, err
	}
	var countPage clusterListPage
	if err := json.Unmarshal(countResp.Body, &countPage); err != nil {
		return nil, errs.New(errs.KindMalformedResponse, err)
	}

	if countPage.Count > 0 {
		years := yearsBetween(sinceDate, untilDate)
		expectedMax := int(years * 100)
		if countPage.Count > maxOf(1000, expectedMax*2) {
			return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("found %d SCOTUS clusters, far more than expected for the requested range; the court/date filter may not be applying correctly", countPage.Count))
		}
		maxClusters = countPage.Count
	}

	var opinionIDs []string
	nextURL := clustersURL
	params := baseParams
	clustersProcessed := 0

	const maxPages = 100
	for page := 1; nextURL != "" && clustersProcessed < maxClusters; page++ {
		if page > maxPages {
			break
		}

		resp, err := c.http.Get(ctx, nextURL, params)
		if err != nil {
			return nil, err
		}
		var listing clusterListPage
		if err := json.Unmarshal(resp.Body, &listing); err != nil {
			return nil, errs.New(errs.KindMalformedResponse, err)
		}
		if len(listing.Results) == 0 {
			break
		}

		for _, cluster := range listing.Results {
			clustersProcessed++
			for _, opURL := range cluster.SubOpinions {
				id := strings.TrimRight(opURL, "/")
				if idx := strings.LastIndex(id, "/"); idx >= 0 {
					id = id[idx+1:]
				}
				if id == "" {
					continue
				}
				opinionIDs = append(opinionIDs, id)
				if maxResults > 0 && len(opinionIDs) >= maxResults {
					return opinionIDs, nil
				}
			}
			if clustersProcessed >= maxClusters {
				break
			}
		}

		if listing.Next == nil || *listing.Next == "" {
			break
		}
		nextURL = *listing.Next
		params = nil
	}
	return opinionIDs, nil
}

func yearsBetween(startDate, endDate string) float64 {
	start, errStart := time.Parse("2006-01-02", startDate)
	end, errEnd := time.Parse("2006-01-02", endDate)
	if errStart != nil || errEnd != nil {
		return 0
	}
	return end.Sub(start).Hours() / 24 / 365
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GetOpinion fetches one opinion by its CourtListener ID.
func (c *CourtListenerClient) GetOpinion(ctx context.Context, opinionID int) (OpinionSummary, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("%s/opinions/%d/", courtListenerBaseURL, opinionID), nil)
	if err != nil {
		return OpinionSummary{}, err
	}
	var op OpinionSummary
	if err := json.Unmarshal(resp.Body, &op); err != nil {
		return OpinionSummary{}, errs.New(errs.KindMalformedResponse, err)
	}
	return op, nil
}

// GetCluster fetches the docket cluster (case name, citations, filing
// date) at the given absolute URL, as referenced by an opinion's
// cluster_id/resource links.
func (c *CourtListenerClient) GetCluster(ctx context.Context, clusterURL string) (Cluster, error) {
	resp, err := c.http.Get(ctx, clusterURL, nil)
	if err != nil {
		return Cluster{}, err
	}
	var cl Cluster
	if err := json.Unmarshal(resp.Body, &cl); err != nil {
		return Cluster{}, errs.New(errs.KindMalformedResponse, err)
	}
	return cl, nil
}

// ClusterURL builds the cluster detail endpoint for a cluster ID.
func ClusterURL(clusterID int) string {
	return fmt.Sprintf("%s/clusters/%d/", courtListenerBaseURL, clusterID)
}

// ValidateCourt traverses opinion -> cluster -> docket and reports whether
// the opinion actually belongs to the Supreme Court, defending against a
// stale search index or ID reused by a lower court's opinion.
func (c *CourtListenerClient) ValidateCourt(ctx context.Context, opinionID int) (bool, Cluster, error) {
	op, err := c.GetOpinion(ctx, opinionID)
	if err != nil {
		return false, Cluster{}, err
	}
	cl, err := c.GetCluster(ctx, ClusterURL(op.ClusterID))
	if err != nil {
		return false, Cluster{}, err
	}
	return cl.Docket.CourtID == "scotus", cl, nil
}

// ToDocument normalizes an opinion plus its cluster into the common
// Document shape, attaching a bluebook citation when the cluster carries
// enough information to build one.
func (op OpinionSummary) ToDocument(cl Cluster) Document {
	date := ""
	if t, err := time.Parse(time.RFC3339, strings.Replace(op.DateCreated, "Z", "+00:00", 1)); err == nil {
		date = t.Format("2006-01-02")
	}

	metadata := map[string]any{
		"cluster_id":   op.ClusterID,
		"resource_uri": op.ResourceURI,
		"page_count":   op.PageCount,
		"author_id":    op.AuthorID,
		"case_name":    cl.CaseName,
	}
	if cite := BuildBluebookCitation(cl); cite != "" {
		metadata["bluebook_citation"] = cite
	}

	title := cl.CaseName
	if title == "" {
		title = fmt.Sprintf("Opinion %d", op.ID)
	}

	return Document{
		ID:       fmt.Sprintf("%d", op.ID),
		Title:    title,
		Date:     date,
		Type:     op.Type,
		Source:   "CourtListener",
		Content:  op.PlainText,
		Metadata: metadata,
		URL:      op.DownloadURL,
	}
}

// BuildBluebookCitation renders a citation like "601 U.S. 416 (2024)" from
// cluster data, preferring the citation entry marked as primary (type 1)
// and falling back to the first available entry. It returns "" when the
// cluster lacks enough information to build a citation.
func BuildBluebookCitation(cl Cluster) string {
	if len(cl.Citations) == 0 || cl.DateFiled == "" {
		return ""
	}

	primary := cl.Citations[0]
	for _, c := range cl.Citations {
		if c.Type == 1 {
			primary = c
			break
		}
	}

	if primary.Volume == 0 || primary.Reporter == "" || primary.Page == "" {
		return ""
	}

	year := strings.SplitN(cl.DateFiled, "-", 2)[0]
	if year == "" {
		return ""
	}

	return fmt.Sprintf("%d %s %s (%s)", primary.Volume, primary.Reporter, primary.Page, year)
}
