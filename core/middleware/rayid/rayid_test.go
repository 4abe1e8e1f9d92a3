package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestRayID(t *testing.T) {
	app := fiber.New()
	app.Use(New())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("ray_id").(string))
	})

	t.Run("GeneratesWhenAbsent", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		assert.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get(Header))
	})

	t.Run("HonoursIncomingHeader", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set(Header, "upstream-123")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, "upstream-123", resp.Header.Get(Header))
	})
}
