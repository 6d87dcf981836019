package models

import (
	"time"
)

// Download method identifiers understood by the object service
const (
	DownloadMethodSimple = "simple"
	DownloadMethodGetURL = "getUrl"
)

// UploadObjectRequest is the body of uploadObject (v1/upload-object-request.json#)
type UploadObjectRequest struct {
	ProjectID string    `json:"projectId"`
	UploadID  string    `json:"uploadId,omitempty"`
	Data      []byte    `json:"data"`
	Expires   time.Time `json:"expires"`
}

// DownloadObjectRequest is the body of fetchObjectMetadata
// (v1/download-object-request.json#). Keys of AcceptDownloadMethods name the
// methods the caller can handle; values carry per-method parameters.
type DownloadObjectRequest struct {
	AcceptDownloadMethods map[string]any `json:"acceptDownloadMethods"`
}

// NewDownloadObjectRequest accepts the given download methods without parameters
func NewDownloadObjectRequest(methods ...string) *DownloadObjectRequest {
	req := &DownloadObjectRequest{AcceptDownloadMethods: make(map[string]any, len(methods))}
	for _, m := range methods {
		req.AcceptDownloadMethods[m] = struct{}{}
	}
	return req
}

// DownloadObjectResponse describes how to retrieve an object with the method
// the service selected (v1/download-object-response.json#)
type DownloadObjectResponse struct {
	Method  string     `json:"method"`
	URL     string     `json:"url,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`
}

// Redirect is the result of an operation that answers with a redirect
// instead of a JSON body
type Redirect struct {
	StatusCode int    `json:"status_code"`
	Location   string `json:"location"`
}
