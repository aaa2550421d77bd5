// Package client is a typed HTTP client for the applytrack API, used by the
// CLI and by scripts.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yoockh/applytrack/internal/backup"
	"github.com/yoockh/applytrack/internal/models"
	"github.com/yoockh/applytrack/internal/services"
)

const DefaultBaseURL = "http://localhost:8080"

// APIError is a non-2xx answer. Code and Message come from the {code, message}
// body when the server sent one.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

func IsAlreadyExists(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == "ALREADY_EXISTS"
}

type Client struct {
	http *resty.Client
}

type Option func(*resty.Client)

func WithToken(token string) Option {
	return func(c *resty.Client) {
		if token != "" {
			c.SetAuthToken(token)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithLogger routes resty's warnings (and request dumps when debug is set)
// to l; *logrus.Logger satisfies resty.Logger.
func WithLogger(l resty.Logger, debug bool) Option {
	return func(c *resty.Client) { c.SetLogger(l).SetDebug(debug) }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(2*time.Minute).
		SetHeader("Accept", "application/json")
	for _, o := range opts {
		o(rc)
	}
	return &Client{http: rc}
}

// FromEnv reads APPLYTRACK_API_URL and APPLYTRACK_TOKEN.
func FromEnv(opts ...Option) *Client {
	opts = append([]Option{WithToken(os.Getenv("APPLYTRACK_TOKEN"))}, opts...)
	return New(os.Getenv("APPLYTRACK_API_URL"), opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

func checkResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	ae, _ := resp.Error().(*APIError)
	if ae == nil || (ae.Code == "" && ae.Message == "") {
		ae = &APIError{Message: strings.TrimSpace(string(resp.Body()))}
		if ae.Message == "" {
			ae.Message = http.StatusText(resp.StatusCode())
		}
	}
	ae.StatusCode = resp.StatusCode()
	return ae
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

// Jobs

type JobListOptions struct {
	Status   string
	Company  string
	Search   string
	Archived *bool
}

func (o JobListOptions) query() map[string]string {
	q := map[string]string{}
	if o.Status != "" {
		q["status"] = o.Status
	}
	if o.Company != "" {
		q["company"] = o.Company
	}
	if o.Search != "" {
		q["search"] = o.Search
	}
	if o.Archived != nil {
		q["archived"] = strconv.FormatBool(*o.Archived)
	}
	return q
}

func (c *Client) ListJobs(ctx context.Context, o JobListOptions) ([]models.JobView, error) {
	var out []models.JobView
	resp, err := c.http.R().SetContext(ctx).SetError(&APIError{}).
		SetQueryParams(o.query()).
		SetResult(&out).
		Get("/job-descriptions")
	if err != nil {
		return nil, err
	}
	return out, checkResponse(resp)
}

func (c *Client) GetJob(ctx context.Context, id string) (*models.JobDetail, error) {
	var out models.JobDetail
	if err := c.do(ctx, http.MethodGet, "/job-descriptions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateJob(ctx context.Context, in services.JobInput) (*models.JobView, error) {
	var out models.JobView
	if err := c.do(ctx, http.MethodPost, "/job-descriptions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateJob(ctx context.Context, id string, p services.JobPatch) (*models.JobView, error) {
	var out models.JobView
	if err := c.do(ctx, http.MethodPut, "/job-descriptions/"+id, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/job-descriptions/"+id, nil, nil)
}

func (c *Client) ArchiveJob(ctx context.Context, id string) (*models.JobView, error) {
	var out models.JobView
	if err := c.do(ctx, http.MethodPost, "/job-descriptions/"+id+"/archive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkDuplicate(ctx context.Context, id, duplicateOfID string) (*models.JobView, error) {
	var out models.JobView
	if err := c.do(ctx, http.MethodPost, "/job-descriptions/"+id+"/duplicate/"+duplicateOfID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*models.JobStats, error) {
	var out models.JobStats
	if err := c.do(ctx, http.MethodGet, "/job-descriptions/stats/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseText extracts fields from a posting without storing anything.
func (c *Client) ParseText(ctx context.Context, rawText, extraContext string) (*services.ParseResult, error) {
	var out services.ParseResult
	body := map[string]string{"rawText": rawText, "context": extraContext}
	if err := c.do(ctx, http.MethodPost, "/job-descriptions/parse", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type ParseJobResponse struct {
	Job    *models.JobDescription `json:"job"`
	Result *services.ParseResult  `json:"result,omitempty"`
	Queued bool                   `json:"queued"`
}

func (c *Client) ParseJob(ctx context.Context, id string) (*ParseJobResponse, error) {
	var out ParseJobResponse
	if err := c.do(ctx, http.MethodPost, "/job-descriptions/"+id+"/parse", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Migration

type importResponse struct {
	Success bool                  `json:"success"`
	Results services.ImportResult `json:"results"`
}

func (c *Client) Import(ctx context.Context, b *backup.Backup) (*services.ImportResult, error) {
	var out importResponse
	if err := c.do(ctx, http.MethodPost, "/migration/import-from-indexeddb", b, &out); err != nil {
		return nil, err
	}
	return &out.Results, nil
}

func (c *Client) Export(ctx context.Context) (*backup.Backup, error) {
	var out backup.Backup
	if err := c.do(ctx, http.MethodGet, "/migration/export-to-json", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type clearResponse struct {
	Success bool                 `json:"success"`
	Deleted services.ClearResult `json:"deleted"`
}

func (c *Client) ClearAll(ctx context.Context, confirm string) (*services.ClearResult, error) {
	var out clearResponse
	if err := c.do(ctx, http.MethodDelete, "/migration/clear-all-data", map[string]string{"confirm": confirm}, &out); err != nil {
		return nil, err
	}
	return &out.Deleted, nil
}

// Scraper cache

func (c *Client) CacheLookup(ctx context.Context, input string) (*models.ScraperCache, error) {
	var out models.ScraperCache
	if err := c.do(ctx, http.MethodPost, "/scraper-cache/lookup", map[string]string{"input": input}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CacheStore(ctx context.Context, input string, result json.RawMessage, ttl time.Duration) (*models.ScraperCache, error) {
	var out models.ScraperCache
	body := map[string]any{"input": input, "result": result, "ttlSeconds": int(ttl / time.Second)}
	if err := c.do(ctx, http.MethodPost, "/scraper-cache", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CacheList(ctx context.Context) ([]models.ScraperCache, error) {
	var out []models.ScraperCache
	if err := c.do(ctx, http.MethodGet, "/scraper-cache", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CacheCleanup(ctx context.Context) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/scraper-cache/expired", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// Documents

// Documents scopes calls to one family: "resumes" or "cover-letters".
type Documents struct {
	c    *Client
	base string
}

func (c *Client) Resumes() *Documents      { return &Documents{c: c, base: "/resumes"} }
func (c *Client) CoverLetters() *Documents { return &Documents{c: c, base: "/cover-letters"} }

func (d *Documents) List(ctx context.Context, search string) ([]models.DocumentView, error) {
	var out []models.DocumentView
	req := d.c.http.R().SetContext(ctx).SetError(&APIError{}).SetResult(&out)
	if search != "" {
		req.SetQueryParam("search", search)
	}
	resp, err := req.Get(d.base)
	if err != nil {
		return nil, err
	}
	return out, checkResponse(resp)
}

func (d *Documents) Get(ctx context.Context, id string) (*models.DocumentView, error) {
	var out models.DocumentView
	if err := d.c.do(ctx, http.MethodGet, d.base+"/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Documents) Create(ctx context.Context, in services.DocumentInput) (*models.DocumentView, error) {
	var out models.DocumentView
	if err := d.c.do(ctx, http.MethodPost, d.base, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UploadFields struct {
	Name          string
	TargetCompany string
	TargetRole    string
}

func (d *Documents) Upload(ctx context.Context, fileName string, r io.Reader, f UploadFields) (*models.DocumentView, error) {
	var out models.DocumentView
	form := map[string]string{}
	if f.Name != "" {
		form["name"] = f.Name
	}
	if f.TargetCompany != "" {
		form["targetCompany"] = f.TargetCompany
	}
	if f.TargetRole != "" {
		form["targetRole"] = f.TargetRole
	}
	resp, err := d.c.http.R().SetContext(ctx).SetError(&APIError{}).
		SetFileReader("file", fileName, r).
		SetFormData(form).
		SetResult(&out).
		Post(d.base + "/upload")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Documents) Update(ctx context.Context, id string, p services.DocumentPatch) (*models.DocumentView, error) {
	var out models.DocumentView
	if err := d.c.do(ctx, http.MethodPut, d.base+"/"+id, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Documents) Delete(ctx context.Context, id string) error {
	return d.c.do(ctx, http.MethodDelete, d.base+"/"+id, nil, nil)
}

func (d *Documents) Link(ctx context.Context, id, jobID string) (*models.DocumentLink, error) {
	var out models.DocumentLink
	if err := d.c.do(ctx, http.MethodPost, d.base+"/"+id+"/link-job/"+jobID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Documents) Unlink(ctx context.Context, id, jobID string) error {
	return d.c.do(ctx, http.MethodDelete, d.base+"/"+id+"/unlink-job/"+jobID, nil, nil)
}

func (d *Documents) Jobs(ctx context.Context, id string) ([]models.JobDescription, error) {
	var out []models.JobDescription
	if err := d.c.do(ctx, http.MethodGet, d.base+"/"+id+"/jobs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
