package docs

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the current document as JSON. While no document exists yet
// the endpoint answers 503 so clients can distinguish "still generating"
// from "no documentation at all".
func (s *Service) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		doc := s.doc.Load()
		if doc == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "generating"})
		}
		return c.JSON(http.StatusOK, doc)
	}
}

// Mount registers the document endpoint on the host router.
func (s *Service) Mount(e *echo.Echo, path string) {
	e.GET(path, s.Handler())
}
