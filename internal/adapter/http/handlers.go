package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb/geojson"
)

const kmPerMile = 1.609344

type handlers struct {
	deps Deps
}

func (h *handlers) listEvents(c echo.Context) error {
	list, err := h.deps.Events.ListCurrent(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *handlers) getEvent(c echo.Context) error {
	e, err := h.deps.Events.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *handlers) nearEvents(c echo.Context) error {
	list, err := h.near(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// nearEventsGeoJSON returns the same result as a FeatureCollection for map clients.
func (h *handlers) nearEventsGeoJSON(c echo.Context) error {
	list, err := h.near(c)
	if err != nil {
		return err
	}
	fc := geojson.NewFeatureCollection()
	for _, e := range list {
		f := geojson.NewFeature(e.Location.Coordinates)
		f.ID = e.ID
		f.Properties["type"] = string(e.Type)
		f.Properties["name"] = e.Name
		f.Properties["startDate"] = e.StartDate
		f.Properties["endDate"] = e.EndDate
		f.Properties["visibility"] = e.Visibility
		f.Properties["intensity"] = string(e.Intensity)
		fc.Append(f)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/geo+json")
	return c.JSON(http.StatusOK, fc)
}

func (h *handlers) near(c echo.Context) ([]domain.AstronomicalEvent, error) {
	fields := map[string]string{}
	lat := parseFloatParam(c, "lat", fields)
	lon := parseFloatParam(c, "lon", fields)
	radius := parseFloatParam(c, "radius", fields)

	switch strings.ToLower(c.QueryParam("unit")) {
	case "", "km":
	case "mi":
		radius *= kmPerMile
	default:
		fields["unit"] = "must be km or mi"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	return h.deps.Events.Near(c.Request().Context(), lat, lon, radius)
}

func parseFloatParam(c echo.Context, name string, fields map[string]string) float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		fields[name] = "is required"
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fields[name] = "must be a number"
		return 0
	}
	return v
}

func (h *handlers) clearEvents(c echo.Context) error {
	n, err := h.deps.Events.Clear(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": n})
}

func (h *handlers) populateEvents(c echo.Context) error {
	week, err := h.deps.Events.Populate(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"inserted": len(week), "events": week})
}

// currentUser registers the caller on first sight.
func (h *handlers) currentUser(c echo.Context) error {
	name, _ := c.Get(ctxUserName).(string)
	email, _ := c.Get(ctxUserEmail).(string)
	u, err := h.deps.Settings.RegisterUser(c.Request().Context(), userID(c), name, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *handlers) getSettings(c echo.Context) error {
	s, err := h.deps.Settings.GetSettings(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (h *handlers) putSettings(c echo.Context) error {
	var in domain.UserSettings
	if err := c.Bind(&in); err != nil {
		return domain.NewValidationError("body", "must be a settings object")
	}
	out, err := h.deps.Settings.PutSettings(c.Request().Context(), userID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) listUserEvents(c echo.Context) error {
	list, err := h.deps.Settings.ListUserEvents(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *handlers) addUserEvent(c echo.Context) error {
	var in domain.UserEvent
	if err := c.Bind(&in); err != nil {
		return domain.NewValidationError("body", "must be an event object")
	}
	out, err := h.deps.Settings.AddUserEvent(c.Request().Context(), userID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *handlers) removeUserEvent(c echo.Context) error {
	if err := h.deps.Settings.RemoveUserEvent(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) saveEvent(c echo.Context) error {
	out, err := h.deps.Settings.SaveAstronomicalEvent(c.Request().Context(), userID(c), c.Param("eventId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *handlers) notifyAll(c echo.Context) error {
	results, err := h.deps.Notifier.NotifyAll(c.Request().Context())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return c.JSON(http.StatusOK, map[string]string{"message": domain.NoUpcomingEventsMessage})
	}
	return c.JSON(http.StatusOK, results)
}

func (h *handlers) notifyMe(c echo.Context) error {
	res, err := h.deps.Notifier.NotifyUser(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
