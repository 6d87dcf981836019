// Package object is the client of the object service: a fixed table of the
// service's operations and one method per operation, all forwarding to the
// shared call runtime in internal/client.
package object

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/moamenhredeen/tcobject/internal/validator"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName = "object"
	APIVersion  = "v1"

	instrumentationName = "github.com/moamenhredeen/tcobject/internal/object"
)

// operations is never modified; accessors hand out clones
var operations = map[string]models.Operation{
	"ping": {
		Name:      "ping",
		Title:     "Ping Server",
		Method:    "GET",
		Route:     "/ping",
		Args:      []string{},
		Stability: models.StabilityStable,
	},
	"uploadObject": {
		Name:      "uploadObject",
		Title:     "Upload backend data (temporary)",
		Method:    "PUT",
		Route:     "/upload/{name}",
		Args:      []string{"name"},
		Input:     "v1/upload-object-request.json#",
		Stability: models.StabilityExperimental,
	},
	"fetchObjectMetadata": {
		Name:      "fetchObjectMetadata",
		Title:     "Download object data",
		Method:    "PUT",
		Route:     "/download-object/{name}",
		Args:      []string{"name"},
		Input:     "v1/download-object-request.json#",
		Output:    "v1/download-object-response.json#",
		Stability: models.StabilityExperimental,
	},
	"download": {
		Name:      "download",
		Title:     "Get an object's data",
		Method:    "GET",
		Route:     "/download/{name}",
		Args:      []string{"name"},
		Stability: models.StabilityExperimental,
	},
}

// Operations returns the operation table sorted by name
func Operations() []models.Operation {
	ops := make([]models.Operation, 0, len(operations))
	for _, op := range operations {
		ops = append(ops, op.Clone())
	}
	slices.SortFunc(ops, func(a, b models.Operation) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ops
}

// Lookup returns the operation with the given name
func Lookup(name string) (models.Operation, bool) {
	op, ok := operations[name]
	if !ok {
		return models.Operation{}, false
	}
	return op.Clone(), true
}

// Object is a client of the object service. It is safe for concurrent use.
type Object struct {
	*client.Client

	// Tracer starts one span per call
	Tracer trace.Tracer
}

// New returns a client for the deployment at rootURL. Payloads are validated
// against the service's published schemas before they are sent.
func New(rootURL string, creds *client.Credentials, opts ...client.Option) (*Object, error) {
	spec, err := apispec.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading object API description")
	}

	opts = append([]client.Option{client.WithSchemas(validator.New(spec))}, opts...)
	return &Object{
		Client: client.New(rootURL, ServiceName, APIVersion, creds, opts...),
		Tracer: otel.Tracer(instrumentationName),
	}, nil
}

// NewFromEnv returns a client configured from the TASKCLUSTER_* environment
// variables
func NewFromEnv(opts ...client.Option) (*Object, error) {
	cfg, err := client.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg.EffectiveRootURL(), cfg.Credentials(), opts...)
}

// Call executes the named operation. args fill the route placeholders in
// order; payload and result are the request and response bodies.
func (o *Object) Call(ctx context.Context, name string, args []string, payload, result interface{}, opts ...client.CallOption) (*client.CallSummary, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, &client.ArgumentError{Operation: name, Err: errors.New("unknown operation")}
	}

	ctx, span := o.Tracer.Start(ctx, ServiceName+"."+op.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tcobject.operation", op.Name),
			attribute.String("http.request.method", op.Method),
			attribute.String("url.template", op.Route),
			attribute.String("tcobject.stability", string(op.Stability)),
		))
	defer span.End()

	summary, err := o.Client.APICall(ctx, op, args, payload, result, opts...)
	if summary != nil {
		span.SetAttributes(attribute.Int("tcobject.attempts", summary.Attempts))
		if summary.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", summary.StatusCode))
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

// Ping checks that the service is reachable
func (o *Object) Ping(ctx context.Context, opts ...client.CallOption) error {
	_, err := o.Call(ctx, "ping", nil, nil, nil, opts...)
	return err
}

// UploadObject uploads an object's data inline. The data is stored with the
// object's project and expires at payload.Expires.
func (o *Object) UploadObject(ctx context.Context, name string, payload *models.UploadObjectRequest, opts ...client.CallOption) error {
	_, err := o.Call(ctx, "uploadObject", []string{name}, payload, nil, opts...)
	return err
}

// FetchObjectMetadata asks the service how to download an object, given the
// download methods the caller accepts. The service picks one; when it
// supports none of them the error satisfies errors.Is(err, client.ErrNotAcceptable).
func (o *Object) FetchObjectMetadata(ctx context.Context, name string, payload *models.DownloadObjectRequest, opts ...client.CallOption) (*models.DownloadObjectResponse, error) {
	var resp models.DownloadObjectResponse
	if _, err := o.Call(ctx, "fetchObjectMetadata", []string{name}, payload, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download returns the redirect to an object's data. The redirect is never
// followed.
func (o *Object) Download(ctx context.Context, name string, opts ...client.CallOption) (*models.Redirect, error) {
	summary, err := o.Call(ctx, "download", []string{name}, nil, nil, opts...)
	if err != nil {
		return nil, err
	}
	if summary.StatusCode < 300 || summary.StatusCode >= 400 {
		return nil, errors.Errorf("download: expected a redirect, got status %d", summary.StatusCode)
	}
	return &models.Redirect{
		StatusCode: summary.StatusCode,
		Location:   summary.Header.Get("Location"),
	}, nil
}

// DownloadSignedURL returns a URL for the download operation that carries its
// own authorization for the given duration, for agents that cannot sign
// requests
func (o *Object) DownloadSignedURL(name string, duration time.Duration) (*url.URL, error) {
	op := operations["download"]
	route, err := op.ExpandRoute([]string{name}, client.Escape)
	if err != nil {
		return nil, &client.ArgumentError{Operation: op.Name, Err: err}
	}
	return o.SignedURL(route, nil, duration)
}
