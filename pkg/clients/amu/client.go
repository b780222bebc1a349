package amu

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

// TokenSource supplies the bearer token of the active session, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Client exposes the remote AMU monitoring API operations the workflows use.
// It is the single choke point for outbound HTTP.
type Client interface {
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	Register(ctx context.Context, reg models.Registration) error
	UpdateProfile(ctx context.Context, email string, profile models.Profile) error

	ListFarms(ctx context.Context, email string) ([]models.Farm, error)
	ListFlocks(ctx context.Context, email string, farmID int64) ([]models.Flock, error)
	ListAnimals(ctx context.Context, email string, flockID int64) ([]models.Animal, error)
	ListDrugs(ctx context.Context, species models.SpeciesType) ([]models.Drug, error)

	TreatmentInbox(ctx context.Context, vetEmail string) (*models.TreatmentInbox, error)
	SubmitTreatment(ctx context.Context, email string, intent models.TreatmentIntent) (int64, error)
	ActOnTreatment(ctx context.Context, treatmentID int64, decision models.Decision) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	tokens     TokenSource
	onExpired  func()
}

// Option customises an APIClient during construction.
type Option func(*APIClient)

// WithTokenSource attaches the session token provider. Requests carry an
// Authorization bearer header whenever the source yields a token.
func WithTokenSource(ts TokenSource) Option {
	return func(c *APIClient) { c.tokens = ts }
}

// WithExpiryHandler registers the callback fired when the server answers 401,
// so the local session can be torn down before the error surfaces.
func WithExpiryHandler(fn func()) Option {
	return func(c *APIClient) { c.onExpired = fn }
}

// NewClient builds an AMU API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *APIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	c := &APIClient{httpClient: restyClient}
	for _, opt := range opts {
		opt(c)
	}

	restyClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		if c.tokens != nil {
			if token, ok := c.tokens.Token(); ok {
				req.SetHeader("Authorization", "Bearer "+token)
			}
		}
		return nil
	})

	return c
}

// errorPayload is the structured error body the remote API emits.
type errorPayload struct {
	Error string `json:"error"`
}

// normalize folds a resty outcome into the adapter error taxonomy. A nil
// return means the response was 2xx and any SetResult target is populated.
func (c *APIClient) normalize(resp *resty.Response, err error, apiErr *errorPayload) error {
	if err != nil {
		return &Error{
			Kind:    KindConnection,
			Message: "could not reach the monitoring API",
			cause:   err,
		}
	}

	status := resp.StatusCode()
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusUnauthorized:
		if c.onExpired != nil {
			c.onExpired()
		}
		return &Error{
			Kind:       KindSessionExpired,
			StatusCode: status,
			Message:    "session expired, please log in again",
		}
	default:
		message := ""
		if apiErr != nil {
			message = apiErr.Error
		}
		kind := KindValidation
		if message == "" {
			kind = KindUnknown
			message = "unknown error occurred"
		}
		return &Error{Kind: kind, StatusCode: status, Message: message}
	}
}

type loginResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

// Login exchanges credentials for an authenticated user and bearer token.
func (c *APIClient) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	result := new(loginResponse)
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(result).
		SetError(apiErr).
		Post("/login")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return nil, err
	}

	return &result.User, nil
}

// Register creates a new account; the caller still has to log in afterwards.
func (c *APIClient) Register(ctx context.Context, reg models.Registration) error {
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reg).
		SetError(apiErr).
		Post("/register")
	return c.normalize(resp, err, apiErr)
}

// UpdateProfile completes the post-registration profile of the account.
func (c *APIClient) UpdateProfile(ctx context.Context, email string, profile models.Profile) error {
	apiErr := new(errorPayload)

	body := map[string]any{
		"email":        email,
		"state":        profile.State,
		"district":     profile.District,
		"address":      profile.Address,
		"phone_number": profile.PhoneNumber,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetError(apiErr).
		Post("/update-profile")
	return c.normalize(resp, err, apiErr)
}

// ListFarms fetches the farms managed by the given account.
func (c *APIClient) ListFarms(ctx context.Context, email string) ([]models.Farm, error) {
	var farms []models.Farm
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetResult(&farms).
		SetError(apiErr).
		Get("/farms")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return nil, err
	}

	return farms, nil
}

// ListFlocks fetches the flocks registered under one farm.
func (c *APIClient) ListFlocks(ctx context.Context, email string, farmID int64) ([]models.Flock, error) {
	var flocks []models.Flock
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetQueryParam("farm_id", fmt.Sprintf("%d", farmID)).
		SetResult(&flocks).
		SetError(apiErr).
		Get("/flocks")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return nil, err
	}

	return flocks, nil
}

// ListAnimals fetches the tagged animals of one flock.
func (c *APIClient) ListAnimals(ctx context.Context, email string, flockID int64) ([]models.Animal, error) {
	var animals []models.Animal
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetQueryParam("flock_id", fmt.Sprintf("%d", flockID)).
		SetResult(&animals).
		SetError(apiErr).
		Get("/animals")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return nil, err
	}

	return animals, nil
}

// ListDrugs fetches the antibiotic reference list, optionally scoped to a
// species so prescriptions only offer valid molecules.
func (c *APIClient) ListDrugs(ctx context.Context, species models.SpeciesType) ([]models.Drug, error) {
	var drugs []models.Drug
	apiErr := new(errorPayload)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(&drugs).
		SetError(apiErr)
	if species != "" {
		req.SetQueryParam("species", string(species))
	}

	resp, err := req.Get("/reference/molecules")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return nil, err
	}

	return drugs, nil
}

// TreatmentInbox fetches both treatment partitions for a vet in one call.
func (c *APIClient) TreatmentInbox(ctx context.Context, vetEmail string) (*models.TreatmentInbox, error) {
	inbox := new(models.TreatmentInbox)
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("vet_email", vetEmail).
		SetResult(inbox).
		SetError(apiErr).
		Get("/treatments")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return nil, err
	}

	return inbox, nil
}

type submitResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// SubmitTreatment posts a prescription intent and returns the assigned id.
func (c *APIClient) SubmitTreatment(ctx context.Context, email string, intent models.TreatmentIntent) (int64, error) {
	result := new(submitResponse)
	apiErr := new(errorPayload)

	body := map[string]any{
		"email":           email,
		"farm":            intent.FarmID,
		"antibiotic_name": intent.AntibioticName,
		"reason":          intent.Reason,
		"treated_for":     intent.TreatedFor,
		"date":            intent.Date,
	}
	if intent.FlockID != 0 {
		body["flock_id"] = intent.FlockID
	}
	if intent.AnimalID != 0 {
		body["animal_id"] = intent.AnimalID
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post("/treatments/prescribe")
	if err := c.normalize(resp, err, apiErr); err != nil {
		return 0, err
	}

	return result.ID, nil
}

// ActOnTreatment posts a vet decision for one pending request.
func (c *APIClient) ActOnTreatment(ctx context.Context, treatmentID int64, decision models.Decision) error {
	apiErr := new(errorPayload)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(decision).
		SetError(apiErr).
		Post(fmt.Sprintf("/treatments/%d/action", treatmentID))
	return c.normalize(resp, err, apiErr)
}
