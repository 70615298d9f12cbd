package sankhya

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xmidt-org/bascule/acquire"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// Errors that can be returned by this package. Since some of these errors are returned wrapped, it
// is safest to use errors.Is() to check for them.
var (
	ErrAddressEmpty     = errors.New("sankhya address is required")
	ErrCredentialsEmpty = errors.New("sankhya token, appkey, username and password are required")
	ErrRootEntityEmpty  = errors.New("root entity name is required")
	ErrFieldListEmpty   = errors.New("field list is required")
	ErrNoItems          = errors.New("a nota requires at least one item")

	// ErrAuthentication indicates the login endpoint answered without a bearer token.
	ErrAuthentication = errors.New("sankhya login did not yield a bearer token")

	// ErrFailedAuthentication indicates Sankhya rejected our bearer token. The cached
	// session is invalidated before this error is returned.
	ErrFailedAuthentication = errors.New("failed to authenticate with sankhya")

	ErrBadRequest = errors.New("sankhya rejected the request as invalid")

	// ErrDecode indicates Sankhya answered with a body that is not valid JSON.
	ErrDecode = errors.New("sankhya response body is not valid JSON")

	// ErrUnknownEntity is returned by the entity lister dispatch for names that were
	// never registered.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrMissingDocumentID indicates an incluirNota response without the generated
	// document number. The original integration treated this as silent success; here it
	// is an explicit failure so callers never persist a nota without its NUNOTA.
	ErrMissingDocumentID = errors.New("sankhya response did not include a document number")
)

var (
	errNonSuccessResponse = errors.New("sankhya responded with a non-success status code")
	errJSONMarshal        = errors.New("failed marshaling request body as JSON payload")
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errDoRequestFailure   = errors.New("http client failed while sending request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
	errAuthAcquirerFail   = errors.New("failed acquiring auth token")
)

const (
	errWrappedFmt    = "%w: %s"
	errStatusCodeFmt = "%w: received status %v"

	serviceGatewayFmt = "%s/gateway/v1/%s/service.sbr"

	gatewayMGE    = "mge"
	gatewayMGECom = "mgecom"

	serviceLoadRecords = "CRUDServiceProvider.loadRecords"
	serviceIncluirNota = "CACSP.incluirNota"
)

// ClientConfig contains config data for the client that will be used to
// make requests to Sankhya.
type ClientConfig struct {
	// Address is the Sankhya gateway base URL (i.e. https://api.sankhya.com.br).
	Address string

	// Token is the tenant token sent on login.
	Token string

	// AppKey identifies this integration; sent on login and on every request.
	AppKey string

	// Username and Password are the integration user credentials.
	Username string
	Password string

	// HTTPClient refers to the client that will be used to send requests.
	// (Optional) Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// SessionTTL bounds how long a bearer token is reused before logging in again.
	// Sankhya does not declare an expiry, so the lifetime is fixed from issuance.
	// (Optional) Defaults to 30 minutes.
	SessionTTL time.Duration

	// Logger to be used by the client.
	// (Optional) By default a no op logger will be used.
	Logger *zap.Logger
}

// Client is the client used to make requests to Sankhya. It is safe for
// concurrent use; the session it owns serializes re-authentication.
type Client struct {
	client    *http.Client
	auth      acquire.Acquirer
	session   *Session
	address   string
	appKey    string
	logger    *zap.Logger
	getLogger func(context.Context) *zap.Logger
	measures  *Measures
	now       func() time.Time
}

type response struct {
	Body []byte
	Code int
}

type serviceRequest struct {
	RequestBody interface{} `json:"requestBody"`
}

type serviceResponse struct {
	ResponseBody json.RawMessage `json:"responseBody"`
}

// NewClient creates a new Client that can be used to make requests to Sankhya.
func NewClient(config ClientConfig, getLogger func(context.Context) *zap.Logger) (*Client, error) {
	err := validateConfig(&config)
	if err != nil {
		return nil, err
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}

	session := newSession(config)
	return &Client{
		client:    config.HTTPClient,
		auth:      session,
		session:   session,
		address:   config.Address,
		appKey:    config.AppKey,
		logger:    config.Logger,
		getLogger: getLogger,
		now:       time.Now,
	}, nil
}

// SetMeasures wires the optional outbound request counter. The client works
// without it, which keeps construction independent from the metrics registry.
func (c *Client) SetMeasures(m *Measures) {
	c.measures = m
}

// callService posts a service.sbr RPC under the given gateway (mge or mgecom) and
// returns the raw responseBody for the caller to decode.
func (c *Client) callService(ctx context.Context, gateway, serviceName string, requestBody interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(serviceRequest{RequestBody: requestBody})
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, errJSONMarshal, err.Error())
	}

	params := url.Values{}
	params.Set("serviceName", serviceName)
	params.Set("outputType", "json")
	u := fmt.Sprintf(serviceGatewayFmt, c.address, gateway) + "?" + params.Encode()

	resp, err := c.sendRequest(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		c.count(serviceName, FailureOutcome)
		return nil, err
	}

	if notSuccessful(resp.Code) {
		c.count(serviceName, FailureOutcome)
		l := c.getLogger(ctx)
		if l == nil {
			l = c.logger
		}
		l.Error("Sankhya responded with a non-success status code for a service call",
			zap.String("serviceName", serviceName), zap.Int("code", resp.Code))
		return nil, c.statusError(resp.Code)
	}

	var env serviceResponse
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		c.count(serviceName, FailureOutcome)
		return nil, fmt.Errorf(errWrappedFmt, ErrDecode, err.Error())
	}

	c.count(serviceName, SuccessOutcome)
	return env.ResponseBody, nil
}

// getV1 issues a GET against one of the /v1 REST-ish endpoints and decodes the
// whole body. The v1 envelopes vary per entity, so decoding stays generic here.
func (c *Client) getV1(ctx context.Context, path string, params url.Values) (map[string]interface{}, error) {
	u := c.address + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	resp, err := c.sendRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.count(path, FailureOutcome)
		return nil, err
	}

	if notSuccessful(resp.Code) {
		c.count(path, FailureOutcome)
		l := c.getLogger(ctx)
		if l == nil {
			l = c.logger
		}
		l.Error("Sankhya responded with a non-success status code for a v1 request",
			zap.String("path", path), zap.Int("code", resp.Code))
		return nil, c.statusError(resp.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.count(path, FailureOutcome)
		return nil, fmt.Errorf(errWrappedFmt, ErrDecode, err.Error())
	}

	c.count(path, SuccessOutcome)
	return body, nil
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body io.Reader) (response, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return response{}, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	err = acquire.AddAuth(r, c.auth)
	if err != nil {
		return response{}, fmt.Errorf(errWrappedFmt, errAuthAcquirerFail, err.Error())
	}
	r.Header.Set("appkey", c.appKey)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("accept", "application/json")

	resp, err := c.client.Do(r)
	if err != nil {
		return response{}, fmt.Errorf(errWrappedFmt, errDoRequestFailure, err.Error())
	}
	defer resp.Body.Close()

	var sqResp = response{Code: resp.StatusCode}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return sqResp, fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}
	sqResp.Body = bodyBytes
	return sqResp, nil
}

// statusError translates a non-success status code into a package error. A 401
// or 403 means the cached bearer token is no longer good, so the session is
// dropped regardless of its remaining TTL.
func (c *Client) statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.session.Invalidate()
		return fmt.Errorf(errStatusCodeFmt, ErrFailedAuthentication, code)
	case http.StatusBadRequest:
		return fmt.Errorf(errStatusCodeFmt, ErrBadRequest, code)
	default:
		return fmt.Errorf(errStatusCodeFmt, errNonSuccessResponse, code)
	}
}

func notSuccessful(code int) bool {
	return code < 200 || code > 299
}

func (c *Client) count(operation, outcome string) {
	if c.measures == nil || c.measures.Requests == nil {
		return
	}
	c.measures.Requests.With(prometheusLabels(operation, outcome)).Add(1)
}

func validateConfig(config *ClientConfig) error {
	if config.Address == "" {
		return ErrAddressEmpty
	}
	if config.Token == "" || config.AppKey == "" || config.Username == "" || config.Password == "" {
		return ErrCredentialsEmpty
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.SessionTTL == 0 {
		config.SessionTTL = defaultSessionTTL
	}
	if config.Logger == nil {
		config.Logger = sallust.Default()
	}
	return nil
}
