package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("orders", "/orders")
	group.GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	group.PATCH("/:id/status", func(c *gin.Context) { c.String(http.StatusOK, "status "+c.Param("id")) })
	r.Register(group)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/orders")
	assert.Equal(t, "list", w.Body.String())

	w = serve(engine, http.MethodPatch, "/api/v1/orders/42/status")
	assert.Equal(t, "status 42", w.Body.String())

	w = serve(engine, http.MethodGet, "/orders")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterUse_ScopedToAPIGroup(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	r.Register(NewDomainGroup("products", "/products").
		GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "product") }))
	r.Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/products/1").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	var order []string

	group := NewDomainGroup("shipping", "/shipping").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	group.POST("/rates", func(c *gin.Context) {
		order = append(order, "rates")
		c.Status(http.StatusOK)
	})
	group.Group("webhooks", "/webhooks").POST("/:provider", func(c *gin.Context) {
		order = append(order, "webhook:"+c.Param("provider"))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, "shipping", group.Name())
	assert.Equal(t, "/shipping", group.Prefix())

	group.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v1/shipping/rates").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v1/shipping/webhooks/manual").Code)
	assert.Equal(t, []string{"group", "rates", "group", "webhook:manual"}, order)

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/shipping/rates").Code)
}
