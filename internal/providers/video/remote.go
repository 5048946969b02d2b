package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photoanimator/internal/domain"
)

// RemoteOptions configures a RemotePipeline.
type RemoteOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	// MaxResponseBytes caps each backend body. Defaults to 256 MiB.
	MaxResponseBytes int64
}

const defaultMaxResponseBytes = 256 << 20

// RemotePipeline calls a generation backend over HTTP. The backend receives
// the image inline as base64 and answers either with inline data or with a
// URL to fetch the rendered output from.
type RemotePipeline struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	maxBody    int64
	logger     *zerolog.Logger
	now        func() time.Time
}

type remoteImage struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type remoteRequest struct {
	Prompt    string      `json:"prompt"`
	Duration  int         `json:"duration"`
	Style     string      `json:"style"`
	Intensity int         `json:"intensity"`
	Format    string      `json:"format"`
	Image     remoteImage `json:"image"`
}

type remoteResponse struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
	URL         string `json:"url"`
}

type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewRemote constructs a client with defaults for timeout and transport.
func NewRemote(opts RemoteOptions) (*RemotePipeline, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("video: remote pipeline requires a base url")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxBody := opts.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseBytes
	}
	return &RemotePipeline{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		timeout:    timeout,
		httpClient: httpClient,
		maxBody:    maxBody,
		logger:     loggerOrDiscard(opts.Logger),
		now:        time.Now,
	}, nil
}

func (p *RemotePipeline) Run(ctx context.Context, img domain.ImageSource, req domain.AnimationRequest) (*domain.Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload := remoteRequest{
		Prompt:    strings.TrimSpace(req.Prompt()),
		Duration:  req.Duration(),
		Style:     string(req.Style()),
		Intensity: req.Intensity(),
		Format:    string(req.Format()),
		Image: remoteImage{
			MIMEType: img.ContentType,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
			Width:    img.Width,
			Height:   img.Height,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrPipelineRejected, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/animations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrPipelineUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := p.now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrPipelineUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := p.readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return nil, err
	}

	var decoded remoteResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrPipelineUnavailable, err)
	}

	var data []byte
	contentType := decoded.ContentType
	switch {
	case decoded.Data != "":
		data, err = base64.StdEncoding.DecodeString(decoded.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode artifact: %v", domain.ErrPipelineUnavailable, err)
		}
	case decoded.URL != "":
		var downloadedType string
		data, downloadedType, err = p.download(ctx, decoded.URL)
		if err != nil {
			return nil, err
		}
		if contentType == "" {
			contentType = downloadedType
		}
	default:
		return nil, fmt.Errorf("%w: empty artifact", domain.ErrPipelineUnavailable)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty artifact", domain.ErrPipelineUnavailable)
	}

	want := req.Format().ContentType()
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != want {
			return nil, fmt.Errorf("%w: backend returned %q for format %s", domain.ErrPipelineRejected, contentType, req.Format())
		}
	}

	p.logger.Debug().
		Str("format", string(req.Format())).
		Int("bytes", len(data)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("video: remote render complete")

	return &domain.Artifact{
		Data:        data,
		ContentType: want,
		Format:      req.Format(),
		CreatedAt:   p.now(),
	}, nil
}

func (p *RemotePipeline) download(ctx context.Context, url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, "", fmt.Errorf("%w: invalid artifact url %q", domain.ErrPipelineUnavailable, url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: build download request: %v", domain.ErrPipelineUnavailable, err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download artifact: %v", domain.ErrPipelineUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: download status %d", domain.ErrPipelineUnavailable, resp.StatusCode)
	}
	data, err := p.readBody(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// readBody reads at most maxBody bytes. A longer body is a rejection since
// retrying would produce the same oversized output.
func (p *RemotePipeline) readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPipelineUnavailable, err)
	}
	if int64(len(data)) > p.maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrPipelineRejected, p.maxBody)
	}
	return data, nil
}

// classifyStatus maps backend status codes: 4xx other than 408 and 429 is
// a rejection of the input, everything else above 299 is unavailability.
func classifyStatus(status int, raw []byte) error {
	if status < 300 {
		return nil
	}
	detail := strings.TrimSpace(string(raw))
	var decoded remoteError
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
		detail = decoded.Message
		if decoded.Code != "" {
			detail = fmt.Sprintf("%s (%s)", decoded.Message, decoded.Code)
		}
	}
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", domain.ErrPipelineRejected, status, detail)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrPipelineUnavailable, status, detail)
}

var _ Pipeline = (*RemotePipeline)(nil)
