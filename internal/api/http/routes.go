package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akovalyk/weather-resolver/internal/geocode"
	"github.com/akovalyk/weather-resolver/internal/store"
	"github.com/akovalyk/weather-resolver/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, resolver *weather.Resolver, memStore *store.MemoryStore, geo *geocode.Resolver) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := q.toLocation()
		if cached, err := memStore.Latest(loc); err == nil {
			return c.JSON(cached)
		}

		req := q.toRequest()
		geo.Annotate(&req)

		w, err := resolver.Resolve(c.Context(), req)
		if err != nil {
			if errors.Is(err, weather.ErrExhausted) {
				return fiber.NewError(fiber.StatusBadGateway, "all weather providers failed")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve weather")
		}

		// A stale-generation save just means a fresher result already landed.
		_ = memStore.Save(loc, w)

		return c.JSON(w)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Coordinates.toLocation()
		resolutions, err := memStore.History(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":    loc,
			"from":        req.From,
			"to":          req.To,
			"resolutions": resolutions,
		})
	})
}

// coordinateQuery holds query parameters for identifying a location.
type coordinateQuery struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	Name      string
	Country   string `validate:"omitempty,len=2,alpha"`
}

func (q coordinateQuery) toLocation() weather.Location {
	return weather.Location{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Name:      q.Name,
	}
}

func (q coordinateQuery) toRequest() weather.Request {
	return weather.Request{
		Latitude:     q.Latitude,
		Longitude:    q.Longitude,
		CountryCode:  q.Country,
		LocationName: q.Name,
	}
}

func parseCoordinateQuery(c *fiber.Ctx) (coordinateQuery, error) {
	var q coordinateQuery

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return q, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return q, errors.New("invalid lon")
	}

	q.Latitude = lat
	q.Longitude = lon
	q.Name = c.Query("name")
	q.Country = c.Query("country")

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coordinates coordinateQuery
	From        time.Time `validate:"required"`
	To          time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCoordinateQuery(c)
	if err != nil {
		return err
	}
	h.Coordinates = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
