// Package client talks to the listing API on behalf of the admin panel.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/patitas-adopcion/apiserver/types"
	"go.uber.org/zap"
)

// Upload modes accepted by WithUploadMode.
const (
	UploadServer = "server"
	UploadSigned = "signed"
	UploadPreset = "preset"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 64 << 10

	cloudinaryUploadBase = "https://api.cloudinary.com/v1_1"
)

// APIError is a non-2xx answer from the API or an image host.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, msg, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	uploadMode   string
	cloudName    string
	uploadPreset string
	presetBase   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUploadMode picks how Upload sends images: through the API, through a
// URL the API signs, or straight to Cloudinary with an unsigned preset.
func WithUploadMode(mode string) Option {
	return func(c *Client) {
		c.uploadMode = mode
	}
}

// WithPreset configures unsigned Cloudinary uploads.
func WithPreset(cloudName, preset string) Option {
	return func(c *Client) {
		c.cloudName = cloudName
		c.uploadPreset = preset
	}
}

// WithPresetEndpoint overrides the Cloudinary upload API base URL.
func WithPresetEndpoint(base string) Option {
	return func(c *Client) {
		c.presetBase = strings.TrimRight(base, "/")
	}
}

// New returns a client for the API served at baseURL (without /api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
		uploadMode: UploadServer,
		presetBase: cloudinaryUploadBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Login checks credentials and returns the administrator's role.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &APIError{Status: http.StatusUnauthorized, Message: resp.Message}
	}
	return resp.Role, nil
}

// Listings returns every listing, optionally only those of one shelter.
func (c *Client) Listings(ctx context.Context, shelterCode string) ([]types.Listing, error) {
	endpoint := "/api/listings"
	if shelterCode != "" {
		endpoint += "?" + url.Values{"shelter_code": {shelterCode}}.Encode()
	}
	var listings []types.Listing
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (c *Client) Recent(ctx context.Context) ([]types.RecentListing, error) {
	var recent []types.RecentListing
	if err := c.doJSON(ctx, http.MethodGet, "/api/listings/recent", nil, &recent); err != nil {
		return nil, err
	}
	return recent, nil
}

func (c *Client) Listing(ctx context.Context, id int) (types.Listing, error) {
	var listing types.Listing
	err := c.doJSON(ctx, http.MethodGet, listingPath(id), nil, &listing)
	return listing, err
}

type messageResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// CreateListing stores a new listing and returns its id.
func (c *Client) CreateListing(ctx context.Context, listing types.Listing) (int, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/listings", listing, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (c *Client) UpdateListing(ctx context.Context, id int, listing types.Listing) error {
	return c.doJSON(ctx, http.MethodPut, listingPath(id), listing, nil)
}

func (c *Client) DeleteListing(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, listingPath(id), nil, nil)
}

func (c *Client) ShelterCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := c.doJSON(ctx, http.MethodGet, "/api/shelters/codes", nil, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// SignUpload asks the API for direct upload instructions.
func (c *Client) SignUpload(ctx context.Context, filename, contentType string) (types.DirectUpload, error) {
	body := map[string]string{"filename": filename, "content_type": contentType}
	var direct types.DirectUpload
	err := c.doJSON(ctx, http.MethodPost, "/api/upload/sign", body, &direct)
	return direct, err
}

// Upload sends an image using the configured mode and returns its public URL.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	switch c.uploadMode {
	case UploadSigned:
		return c.UploadDirect(ctx, filename, data)
	case UploadPreset:
		return c.UploadWithPreset(ctx, filename, data)
	case UploadServer, "":
		return c.UploadImage(ctx, filename, data)
	default:
		return "", fmt.Errorf("unsupported upload mode: %s", c.uploadMode)
	}
}

// UploadImage posts the image to the API, which stores it.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	body, contentType, err := multipartBody(nil, "image", filename, data)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// UploadDirect signs an upload with the API and sends the bytes to the
// object store itself.
func (c *Client) UploadDirect(ctx context.Context, filename string, data []byte) (string, error) {
	contentType := contentTypeFor(filename, data)
	direct, err := c.SignUpload(ctx, filename, contentType)
	if err != nil {
		return "", fmt.Errorf("sign upload: %w", err)
	}

	var req *http.Request
	switch strings.ToUpper(direct.Method) {
	case http.MethodPut:
		req, err = http.NewRequestWithContext(ctx, http.MethodPut, direct.URL, bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", contentType)
	case http.MethodPost:
		body, formType, berr := multipartBody(direct.Fields, "file", filename, data)
		if berr != nil {
			return "", berr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, direct.URL, body)
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", formType)
	default:
		return "", fmt.Errorf("unsupported direct upload method: %s", direct.Method)
	}
	for k, v := range direct.Headers {
		req.Header.Set(k, v)
	}

	if err := c.send(req, nil); err != nil {
		return "", fmt.Errorf("direct upload: %w", err)
	}
	return direct.PublicURL, nil
}

// UploadWithPreset posts the image straight to Cloudinary using an unsigned
// upload preset. The API never sees these uploads.
func (c *Client) UploadWithPreset(ctx context.Context, filename string, data []byte) (string, error) {
	if c.cloudName == "" || c.uploadPreset == "" {
		return "", errors.New("cloud name and upload preset are required")
	}
	endpoint := fmt.Sprintf("%s/%s/image/upload", c.presetBase, url.PathEscape(c.cloudName))
	body, contentType, err := multipartBody(map[string]string{"upload_preset": c.uploadPreset}, "file", filename, data)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	var resp struct {
		SecureURL string `json:"secure_url"`
	}
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	if resp.SecureURL == "" {
		return "", errors.New("image host returned no url")
	}
	return resp.SecureURL, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError understands both {"message": ...} and {"error": ...} bodies.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}

	apiErr.Message = body.Message
	switch detail := body.Error.(type) {
	case string:
		if apiErr.Message == "" {
			apiErr.Message = detail
		} else {
			apiErr.Detail = detail
		}
	case map[string]any:
		// Cloudinary nests its message.
		if msg, ok := detail["message"].(string); ok {
			apiErr.Message = msg
		}
	}
	return apiErr
}

func multipartBody(fields map[string]string, fileField, filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile(fileField, path.Base(filename))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func contentTypeFor(filename string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func listingPath(id int) string {
	return "/api/listings/" + strconv.Itoa(id)
}
