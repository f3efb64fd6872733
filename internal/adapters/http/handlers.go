package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// SightingsResponse wraps a sighting list with the query that produced it.
type SightingsResponse struct {
	Data   []domain.Sighting `json:"data"`
	Source string            `json:"source"`
	Count  int               `json:"count"`
	Bounds *domain.Bounds    `json:"bounds,omitempty"`
}

// ListSightingsHandler returns sightings inside a box.
// Query: from=lng,lat&to=lng,lat[&start=&end=]. The time range defaults to
// the configured map time range.
func ListSightingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := domain.ParseLngLat(c.Query("from"))
		if err != nil {
			return errBadRequest(c, "from: "+err.Error())
		}
		to, err := domain.ParseLngLat(c.Query("to"))
		if err != nil {
			return errBadRequest(c, "to: "+err.Error())
		}

		tr, err := timeRangeQuery(c, deps.Map.TimeRange())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		bounds := domain.Bounds{NorthWest: from, SouthEast: to}
		sightings, err := deps.Sightings.InBounds(c.UserContext(), bounds, tr)
		if err != nil {
			return errFromService(c, err)
		}

		return c.JSON(SightingsResponse{
			Data:   nonNil(sightings),
			Source: domain.SelectSource(tr).String(),
			Count:  len(sightings),
			Bounds: &bounds,
		})
	}
}

// SightingWindowHandler returns sightings reported inside a time window.
// Query: start=&end= in seconds relative to now, both required.
func SightingWindowHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("start") == "" || c.Query("end") == "" {
			return errBadRequest(c, "start and end are required")
		}
		tr, err := timeRangeQuery(c, domain.TimeRange{})
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		sightings, err := deps.Sightings.Window(c.UserContext(), tr)
		if err != nil {
			return errFromService(c, err)
		}

		return c.JSON(SightingsResponse{
			Data:   nonNil(sightings),
			Source: "window",
			Count:  len(sightings),
		})
	}
}

// GetSightingHandler returns the detail record for one Pokémon.
func GetSightingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return errBadRequest(c, "id must be an integer")
		}

		detail, err := deps.Sightings.Details(c.UserContext(), id)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(detail.Data)
	}
}

// SightingIconHandler redirects to the marker image of one Pokémon.
func SightingIconHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return errBadRequest(c, "id must be a positive integer")
		}
		return c.Redirect(deps.Sightings.IconURL(id), fiber.StatusFound)
	}
}

// timeRangeQuery reads start/end, keeping def for absent values.
func timeRangeQuery(c *fiber.Ctx, def domain.TimeRange) (domain.TimeRange, error) {
	tr := def
	if s := c.Query("start"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return tr, fiber.NewError(fiber.StatusBadRequest, "start must be an integer")
		}
		tr.Start = v
	}
	if s := c.Query("end"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return tr, fiber.NewError(fiber.StatusBadRequest, "end must be an integer")
		}
		tr.End = v
	}
	return tr, nil
}

func nonNil(s []domain.Sighting) []domain.Sighting {
	if s == nil {
		return []domain.Sighting{}
	}
	return s
}
