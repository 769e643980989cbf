// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Upload is a file received in one request and parked on local disk until
// it has been relayed to the provider.
type Upload struct {
	// OriginalName is the filename supplied by the client.
	OriginalName string `json:"original_name" yaml:"original_name"`

	// Path is the local temp-file location.
	Path string `json:"path" yaml:"path"`

	// Size is the number of bytes written to Path.
	Size int64 `json:"size" yaml:"size"`

	// ContentType is the part's declared Content-Type, if any.
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

// ConversionResult is the relay's success body.
type ConversionResult struct {
	DownloadURL string `json:"downloadUrl" yaml:"download_url"`
}
