package pokedata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

const (
	// DefaultBaseURL is the public PokeData API.
	DefaultBaseURL = "http://pokedata.c4e3f8c7.svc.dockerapp.io:65014/api/pokemon"

	sightingPath = "/sighting/coordinates"

	maxBodyBytes = 8 << 20
)

// Config configures the data API client.
type Config struct {
	BaseURL string
	// PredictedPath serves predicted sightings. The prediction feed shares
	// the sighting route until the API exposes its own.
	PredictedPath string
	Timeout       time.Duration
}

// Client talks to the sighting data API. It implements ports.SightingSource.
type Client struct {
	baseURL       string
	predictedPath string
	client        *http.Client
	tracer        trace.Tracer
	now           func() time.Time
}

// New creates a new Client.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	predicted := cfg.PredictedPath
	if predicted == "" {
		predicted = sightingPath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:       base,
		predictedPath: "/" + strings.Trim(predicted, "/"),
		client:        &http.Client{Timeout: timeout},
		tracer:        otel.Tracer("github.com/samirrijal/pokemap/internal/adapters/pokedata"),
		now:           time.Now,
	}
}

type sightingsResponse struct {
	Data []wireSighting `json:"data"`
}

type wireSighting struct {
	PokemonID int `json:"pokemonId"`
	Location  struct {
		Coordinates []float64 `json:"coordinates"` // [lng, lat]
	} `json:"location"`
}

// GetData returns historical sightings inside bounds.
func (c *Client) GetData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error) {
	return c.GetPastData(ctx, bounds)
}

// GetPastData returns historical sightings inside bounds.
func (c *Client) GetPastData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error) {
	return c.sightings(ctx, "past", c.boundsURL(sightingPath, bounds))
}

// GetPredictedData returns predicted sightings inside bounds.
func (c *Client) GetPredictedData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error) {
	return c.sightings(ctx, "predicted", c.boundsURL(c.predictedPath, bounds))
}

// GetByTimeRange returns the sightings reported inside a window relative to
// now, e.g. {-600, -60} for the last ten minutes but one.
func (c *Client) GetByTimeRange(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
	start := c.now().Add(time.Duration(tr.Start) * time.Second).UTC().Format(http.TimeFormat)
	rng := strconv.Itoa(tr.End-tr.Start) + "s"
	u := c.baseURL + "/sighting/ts/" + url.PathEscape(start) + "/range/" + rng
	return c.sightings(ctx, "window", u)
}

// GetDetailsByID returns the detail record for one Pokémon.
func (c *Client) GetDetailsByID(ctx context.Context, pokemonID int) (*domain.SightingDetail, error) {
	u := c.baseURL + "/id/" + strconv.Itoa(pokemonID)

	var detail domain.SightingDetail
	err := c.get(ctx, "detail", u, func(body []byte) error {
		if !json.Valid(body) {
			return fmt.Errorf("invalid JSON body")
		}
		detail = domain.SightingDetail{PokemonID: pokemonID, Data: append([]byte(nil), body...)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// IconURL returns the marker image location for a Pokémon.
func (c *Client) IconURL(pokemonID int) string {
	return c.baseURL + "/id/" + strconv.Itoa(pokemonID) + "/icon"
}

func (c *Client) boundsURL(path string, b domain.Bounds) string {
	return c.baseURL + path + "/from/" + b.From() + "/to/" + b.To()
}

func (c *Client) sightings(ctx context.Context, endpoint, u string) ([]domain.Sighting, error) {
	var out []domain.Sighting
	err := c.get(ctx, endpoint, u, func(body []byte) error {
		var resp sightingsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return err
		}
		out = make([]domain.Sighting, 0, len(resp.Data))
		for i, s := range resp.Data {
			if len(s.Location.Coordinates) < 2 {
				return fmt.Errorf("data[%d]: expected [lng, lat], got %v", i, s.Location.Coordinates)
			}
			out = append(out, domain.Sighting{
				PokemonID: s.PokemonID,
				Location: domain.Coordinates{
					Lat: s.Location.Coordinates[1],
					Lng: s.Location.Coordinates[0],
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// get issues one GET and hands a 200 body to decode. Non-200 responses
// become *domain.StatusError, decode failures *domain.DecodeError.
func (c *Client) get(ctx context.Context, endpoint, u string, decode func([]byte) error) error {
	ctx, span := c.tracer.Start(ctx, "pokedata."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", u)),
	)
	defer span.End()

	start := time.Now()
	err := c.do(ctx, u, decode)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.APIRequests.WithLabelValues(endpoint, outcome(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, u string, decode func([]byte) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &domain.StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", u, err)
	}
	if err := decode(body); err != nil {
		return &domain.DecodeError{URL: u, Err: err}
	}
	return nil
}

func outcome(err error) string {
	switch e := err.(type) {
	case nil:
		return "ok"
	case *domain.StatusError:
		return "status_" + strconv.Itoa(e.StatusCode)
	case *domain.DecodeError:
		return "malformed"
	default:
		return "error"
	}
}
