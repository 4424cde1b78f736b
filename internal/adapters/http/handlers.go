package http

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// epochParam returns the :epoch path segment, percent-decoded when possible.
func epochParam(c *fiber.Ctx) string {
	raw := c.Params("epoch")
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

// ListEpochsHandler returns the state vectors as a bare JSON array.
// Paging is reported in X-Total-Count and Link headers.
func ListEpochsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parsePage(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		vectors, total, err := deps.Ephemeris.List(c.UserContext(), page)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("X-Total-Count", strconv.Itoa(total))
		if page.Limit != nil {
			SetLinkHeaders(c, Pagination{Offset: page.Offset, Limit: *page.Limit, Total: total})
		}
		return c.JSON(vectors)
	}
}

// GetEpochHandler returns one state vector by exact epoch.
func GetEpochHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sv, err := deps.Ephemeris.GetByEpoch(c.UserContext(), epochParam(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(sv)
	}
}

// EpochSpeedHandler returns the instantaneous speed at an epoch.
func EpochSpeedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := deps.Ephemeris.Speed(c.UserContext(), epochParam(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rep)
	}
}

// EpochLocationHandler returns latitude, longitude, altitude and place name
// at an epoch.
func EpochLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := deps.Ephemeris.Location(c.UserContext(), epochParam(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rep)
	}
}

// NowHandler returns the state vector closest to the current time.
func NowHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := deps.Ephemeris.Now(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(rep)
	}
}

// MetadataHandler returns the OEM metadata block.
func MetadataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		md, err := deps.Ephemeris.Metadata(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(md)
	}
}

// HeaderHandler returns the OEM header.
func HeaderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := deps.Ephemeris.Header(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(h)
	}
}

// CommentsHandler returns the comment lines of the data block.
func CommentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		comments, err := deps.Ephemeris.Comments(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(comments)
	}
}
