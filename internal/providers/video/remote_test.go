package video

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"photoanimator/internal/domain"
)

func TestRemotePipelineInlineArtifact(t *testing.T) {
	var got remoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/animations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(remoteResponse{
			ContentType: "video/webm",
			Data:        base64.StdEncoding.EncodeToString([]byte("webm-bytes")),
		})
	}))
	defer srv.Close()

	p, err := NewRemote(RemoteOptions{BaseURL: srv.URL + "/", APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	src := testSource(t)
	artifact, err := p.Run(context.Background(), src, testRequest(t, domain.FormatWEBM))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(artifact.Data) != "webm-bytes" || artifact.ContentType != "video/webm" {
		t.Fatalf("artifact = %q %q", artifact.Data, artifact.ContentType)
	}
	if got.Format != "webm" || got.Duration != 3 || got.Style != "cinematic" || got.Intensity != 50 {
		t.Fatalf("request payload = %+v", got)
	}
	if got.Image.MIMEType != "image/png" || got.Image.Data != base64.StdEncoding.EncodeToString(src.Data) {
		t.Fatalf("image payload mismatch: %+v", got.Image)
	}
}

func TestRemotePipelineDownloadsURL(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/v1/animations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{URL: srv.URL + "/out/clip.gif"})
	})
	mux.HandleFunc("/out/clip.gif", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a"))
	})

	p, err := NewRemote(RemoteOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	artifact, err := p.Run(context.Background(), testSource(t), testRequest(t, domain.FormatGIF))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(artifact.Data) != "GIF89a" || artifact.ContentType != "image/gif" {
		t.Fatalf("artifact = %q %q", artifact.Data, artifact.ContentType)
	}
}

func TestRemotePipelineErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "bad request is a rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":"unsupported_input","message":"image too small"}`))
			},
			want: domain.ErrPipelineRejected,
		},
		{
			name: "server error is unavailability",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			want: domain.ErrPipelineUnavailable,
		},
		{
			name: "rate limit is unavailability",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: domain.ErrPipelineUnavailable,
		},
		{
			name: "wrong content type is a rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(remoteResponse{ContentType: "video/mp4", Data: base64.StdEncoding.EncodeToString([]byte("x"))})
			},
			want: domain.ErrPipelineRejected,
		},
		{
			name: "empty body is unavailability",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			want: domain.ErrPipelineUnavailable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			p, err := NewRemote(RemoteOptions{BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("NewRemote: %v", err)
			}
			_, err = p.Run(context.Background(), testSource(t), testRequest(t, domain.FormatGIF))
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRemotePipelineTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p, err := NewRemote(RemoteOptions{BaseURL: srv.URL, Timeout: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	_, err = p.Run(context.Background(), testSource(t), testRequest(t, domain.FormatMP4))
	if !errors.Is(err, domain.ErrPipelineUnavailable) {
		t.Fatalf("error = %v, want ErrPipelineUnavailable", err)
	}
	if !strings.Contains(err.Error(), "http request") {
		t.Fatalf("error should come from transport: %v", err)
	}
}

func TestRemotePipelineOversizedBodyIsRejected(t *testing.T) {
	big := strings.Repeat("x", 512)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/inline/v1/animations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{ContentType: "video/mp4", Data: base64.StdEncoding.EncodeToString([]byte(big))})
	})
	mux.HandleFunc("/linked/v1/animations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteResponse{URL: srv.URL + "/out/clip.mp4"})
	})
	mux.HandleFunc("/out/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(big))
	})

	for _, base := range []string{"/inline", "/linked"} {
		p, err := NewRemote(RemoteOptions{BaseURL: srv.URL + base, MaxResponseBytes: 128})
		if err != nil {
			t.Fatalf("NewRemote: %v", err)
		}
		_, err = p.Run(context.Background(), testSource(t), testRequest(t, domain.FormatMP4))
		if !errors.Is(err, domain.ErrPipelineRejected) {
			t.Fatalf("%s: error = %v, want ErrPipelineRejected", base, err)
		}
		if !strings.Contains(err.Error(), "exceeds 128 bytes") {
			t.Fatalf("%s: unexpected error %v", base, err)
		}
	}
}
