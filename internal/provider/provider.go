// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider talks to the external file-conversion API. It builds the
// api2convert request shape, performs the single outbound call, and extracts
// the download URL of the converted file.
package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/pdiddy/convert-relay/internal/httputil"
	"github.com/pdiddy/convert-relay/pkg/types"
)

// DefaultURL is the api2convert convert endpoint.
const DefaultURL = "https://v2.api2convert.com/convert"

var (
	// ErrNoFiles is returned when the provider response has no file entries.
	ErrNoFiles = errors.New("provider response contains no files")

	// ErrEmptyURL is returned when the first file entry has no download URL.
	ErrEmptyURL = errors.New("provider response file has no download URL")
)

// Parameter is one entry of the provider's Parameters list. Value is left
// untyped because the provider mixes strings and booleans.
type Parameter struct {
	Name       string      `json:"Name"`
	Value      any         `json:"Value,omitempty"`
	FileValues []FileValue `json:"FileValues,omitempty"`
}

// FileValue carries one base64-encoded file inside the Files parameter.
type FileValue struct {
	Name string `json:"Name"`
	Data string `json:"Data"`
}

// Payload is the conversion request body.
type Payload struct {
	Parameters []Parameter `json:"Parameters"`
}

// ResponseFile is one converted artifact in the provider response.
type ResponseFile struct {
	Url      string `json:"Url"`
	FileName string `json:"FileName,omitempty"`
	FileSize int64  `json:"FileSize,omitempty"`
}

// Response is the subset of the provider response the relay reads.
type Response struct {
	Files []ResponseFile `json:"Files"`
}

// BuildPayload assembles the request body for one file and target format.
func BuildPayload(name string, data []byte, targetFormat string, storeFile bool) Payload {
	return Payload{
		Parameters: []Parameter{
			{
				Name: "Files",
				FileValues: []FileValue{
					{Name: name, Data: base64.StdEncoding.EncodeToString(data)},
				},
			},
			{Name: "TargetFormat", Value: targetFormat},
			{Name: "StoreFile", Value: storeFile},
		},
	}
}

// Client sends conversion requests to the provider. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	HTTP      *http.Client
	URL       string
	APIKey    string
	StoreFile bool
	UserAgent string
}

// NewClient builds a Client from resolved configuration.
func NewClient(cfg types.ProviderConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		URL:       url,
		APIKey:    cfg.APIKey,
		StoreFile: cfg.StoreFile,
		UserAgent: cfg.UserAgent,
	}
}

// Convert uploads data under the given filename and returns the URL of the
// converted file. The provider is called exactly once.
func (c *Client) Convert(ctx context.Context, name string, data []byte, targetFormat string) (string, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + c.APIKey,
		"Accept":        "application/json",
	}
	if c.UserAgent != "" {
		headers["User-Agent"] = c.UserAgent
	}

	var resp Response
	payload := BuildPayload(name, data, targetFormat, c.StoreFile)
	if err := httputil.PostJSON(ctx, c.HTTP, c.URL, headers, payload, &resp); err != nil {
		return "", err
	}
	return DownloadURL(resp)
}

// DownloadURL extracts the first file's URL from a provider response.
func DownloadURL(resp Response) (string, error) {
	if len(resp.Files) == 0 {
		return "", ErrNoFiles
	}
	if resp.Files[0].Url == "" {
		return "", ErrEmptyURL
	}
	return resp.Files[0].Url, nil
}
