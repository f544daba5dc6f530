package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 20 // requests per second
	defaultBurst     = 10

	// RequestIDHeader carries a per-call id so server logs can be correlated.
	RequestIDHeader = "X-Request-ID"
)

// StatusError is returned for non-2xx responses that are neither a missing
// record nor a validation failure.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("record api returned %d", e.Code)
	}
	return fmt.Sprintf("record api returned %d: %s", e.Code, e.Message)
}

// HTTPOption configures the remote client.
type HTTPOption func(*httpClient)

// WithTimeout bounds each request. Timeouts surface as ordinary errors.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func WithHTTPClient(h *http.Client) HTTPOption {
	return func(c *httpClient) {
		c.http = h
	}
}

func WithLogger(l *zap.Logger) HTTPOption {
	return func(c *httpClient) {
		c.logger = l
	}
}

type httpClient struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRemote returns a Store backed by the record API at baseURL
// (for example "http://127.0.0.1:8642/api/v1").
func NewRemote(baseURL string, opts ...HTTPOption) (*Store, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing store url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("store url %q must be http or https", baseURL)
	}
	c := &httpClient{
		base:    base,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &Store{
		Contacts:   &remoteContacts{c: c},
		Deals:      &remoteDeals{c: c},
		Activities: &remoteActivities{c: c},
	}, nil
}

// ErrNoData is returned when a call that must echo a record gets a success
// envelope without one.
var ErrNoData = errors.New("record api returned no data")

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// do sends one request and decodes the envelope's data, if any, into out. A
// 404 maps to domain.ErrNotFound, a 409 to domain.ErrContactInUse and a 422
// to *domain.ValidationError.
func (c *httpClient) do(ctx context.Context, method, entity, path string, query url.Values, body, out any) error {
	data, err := c.send(ctx, method, entity, path, query, body)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s: %w", entity, err)
		}
	}
	return nil
}

// doRecord is do for calls that must answer with the record itself.
func (c *httpClient) doRecord(ctx context.Context, method, entity, path string, body, out any) error {
	data, err := c.send(ctx, method, entity, path, nil, body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%s %s: %w", method, path, ErrNoData)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", entity, err)
	}
	return nil
}

// send performs the request and returns the envelope's data, with a JSON
// null treated as absent.
func (c *httpClient) send(ctx context.Context, method, entity, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	u := *c.base
	u.Path = u.Path + "/" + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", entity, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("record api request failed",
			zap.String("method", method), zap.String("path", u.Path),
			zap.String("request_id", reqID), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("record api request",
		zap.String("method", method), zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)),
		zap.String("request_id", reqID))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", entity, path, domain.ErrNotFound)
	case http.StatusConflict:
		return nil, fmt.Errorf("%s %s: %w", entity, path, domain.ErrContactInUse)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(raw) > maxResponseBytes {
		return nil, &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("response body exceeds %d bytes", maxResponseBytes)}
	}
	var env rawEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode == http.StatusUnprocessableEntity {
				env = rawEnvelope{Message: strings.TrimSpace(string(raw))}
			} else {
				return nil, &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			}
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, validationFromEnvelope(entity, env)
	case resp.StatusCode >= 300 || !env.Success:
		return nil, &StatusError{Code: resp.StatusCode, Message: env.Message}
	}
	if bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, nil
	}
	return env.Data, nil
}

func idPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}

// deleteRecord reports false when the record was already gone.
func (c *httpClient) deleteRecord(ctx context.Context, entity, collection string, id int64) (bool, error) {
	err := c.do(ctx, http.MethodDelete, entity, idPath(collection, id), nil, nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type remoteDeals struct{ c *httpClient }

func (s *remoteDeals) List(ctx context.Context, q DealQuery) ([]domain.Deal, error) {
	var recs []DealRecord
	if err := s.c.do(ctx, http.MethodGet, "deal", CollectionDeals, DealQueryValues(q), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Deal, 0, len(recs))
	for _, r := range recs {
		d, err := r.ToDeal()
		if err != nil {
			return nil, fmt.Errorf("deal %d: %w", r.ID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *remoteDeals) Get(ctx context.Context, id int64) (domain.Deal, error) {
	var rec DealRecord
	if err := s.c.doRecord(ctx, http.MethodGet, "deal", idPath(CollectionDeals, id), nil, &rec); err != nil {
		return domain.Deal{}, err
	}
	return rec.ToDeal()
}

func (s *remoteDeals) Create(ctx context.Context, d domain.Deal) (domain.Deal, error) {
	body := DealToRecord(d)
	body.ID = 0
	var rec DealRecord
	if err := s.c.doRecord(ctx, http.MethodPost, "deal", CollectionDeals, body, &rec); err != nil {
		return domain.Deal{}, err
	}
	if rec.ID == 0 {
		return domain.Deal{}, fmt.Errorf("creating deal: record has no id: %w", ErrNoData)
	}
	return rec.ToDeal()
}

func (s *remoteDeals) Update(ctx context.Context, id int64, patch domain.DealPatch) (domain.Deal, error) {
	var rec DealRecord
	if err := s.c.doRecord(ctx, http.MethodPatch, "deal", idPath(CollectionDeals, id), DealPatchToRecord(patch), &rec); err != nil {
		return domain.Deal{}, err
	}
	return rec.ToDeal()
}

func (s *remoteDeals) Delete(ctx context.Context, id int64) (bool, error) {
	return s.c.deleteRecord(ctx, "deal", CollectionDeals, id)
}

type remoteContacts struct{ c *httpClient }

func (s *remoteContacts) List(ctx context.Context, q ContactQuery) ([]domain.Contact, error) {
	var recs []ContactRecord
	if err := s.c.do(ctx, http.MethodGet, "contact", CollectionContacts, ContactQueryValues(q), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0, len(recs))
	for _, r := range recs {
		c, err := r.ToContact()
		if err != nil {
			return nil, fmt.Errorf("contact %d: %w", r.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *remoteContacts) Get(ctx context.Context, id int64) (domain.Contact, error) {
	var rec ContactRecord
	if err := s.c.doRecord(ctx, http.MethodGet, "contact", idPath(CollectionContacts, id), nil, &rec); err != nil {
		return domain.Contact{}, err
	}
	return rec.ToContact()
}

func (s *remoteContacts) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	body := ContactToRecord(c)
	body.ID = 0
	var rec ContactRecord
	if err := s.c.doRecord(ctx, http.MethodPost, "contact", CollectionContacts, body, &rec); err != nil {
		return domain.Contact{}, err
	}
	return rec.ToContact()
}

func (s *remoteContacts) Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.Contact, error) {
	var rec ContactRecord
	if err := s.c.doRecord(ctx, http.MethodPatch, "contact", idPath(CollectionContacts, id), ContactPatchToRecord(patch), &rec); err != nil {
		return domain.Contact{}, err
	}
	return rec.ToContact()
}

func (s *remoteContacts) Delete(ctx context.Context, id int64) (bool, error) {
	return s.c.deleteRecord(ctx, "contact", CollectionContacts, id)
}

type remoteActivities struct{ c *httpClient }

func (s *remoteActivities) List(ctx context.Context, q ActivityQuery) ([]domain.Activity, error) {
	var recs []ActivityRecord
	if err := s.c.do(ctx, http.MethodGet, "activity", CollectionActivities, ActivityQueryValues(q), nil, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(recs))
	for _, r := range recs {
		a, err := r.ToActivity()
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *remoteActivities) Get(ctx context.Context, id int64) (domain.Activity, error) {
	var rec ActivityRecord
	if err := s.c.doRecord(ctx, http.MethodGet, "activity", idPath(CollectionActivities, id), nil, &rec); err != nil {
		return domain.Activity{}, err
	}
	return rec.ToActivity()
}

func (s *remoteActivities) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	body := ActivityToRecord(a)
	body.ID = 0
	var rec ActivityRecord
	if err := s.c.doRecord(ctx, http.MethodPost, "activity", CollectionActivities, body, &rec); err != nil {
		return domain.Activity{}, err
	}
	return rec.ToActivity()
}

func (s *remoteActivities) Update(ctx context.Context, id int64, patch domain.ActivityPatch) (domain.Activity, error) {
	var rec ActivityRecord
	if err := s.c.doRecord(ctx, http.MethodPatch, "activity", idPath(CollectionActivities, id), ActivityPatchToRecord(patch), &rec); err != nil {
		return domain.Activity{}, err
	}
	return rec.ToActivity()
}

func (s *remoteActivities) Delete(ctx context.Context, id int64) (bool, error) {
	return s.c.deleteRecord(ctx, "activity", CollectionActivities, id)
}
