package routes

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rebornapp/reborn-golang/internal/auth"
	"github.com/rebornapp/reborn-golang/internal/handlers"
	"github.com/rebornapp/reborn-golang/internal/middleware"
)

// CORSMiddleware allows the configured frontend origin to call the API.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, verifier auth.Verifier, corsOrigin string) *gin.Engine {
	useJSONFieldNames()

	router := gin.Default()
	router.Use(CORSMiddleware(corsOrigin))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	// --- Public routes ---
	router.GET("/items", h.ListItems)
	router.GET("/items/:id", h.GetItem)
	router.POST("/items/search", h.SearchItems)

	router.GET("/transactions", h.ListTransactions)
	router.GET("/transactions/:id", h.GetTransaction)
	// Transactions are immutable once created.
	router.PUT("/transactions/:id", methodNotAllowed)
	router.DELETE("/transactions/:id", methodNotAllowed)

	router.GET("/users", h.ListUsers)
	router.GET("/users/:id", h.GetUser)

	// --- Protected routes (Login Required) ---
	authed := router.Group("/")
	authed.Use(middleware.Auth(verifier))
	{
		// Item create and update accept multipart for the image upload.
		authed.POST("/items", middleware.RequireJSONOrMultipart(), h.CreateItem)
		authed.PUT("/items/:id", middleware.RequireJSONOrMultipart(), h.UpdateItem)
		authed.DELETE("/items/:id", h.DeleteItem)

		authed.DELETE("/users/:id", h.DeleteUser)

		jsonOnly := authed.Group("/")
		jsonOnly.Use(middleware.RequireJSON())
		{
			jsonOnly.POST("/users", h.CreateUser)
			jsonOnly.PUT("/users/:id", h.UpdateUser)
			jsonOnly.POST("/transactions", h.CreateTransaction)
		}
	}

	return router
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// useJSONFieldNames makes validator errors report json tag names instead of
// Go struct field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
}
