package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopfront/storefront-gateway/internal/cart"
	"github.com/shopfront/storefront-gateway/internal/catalog"
	"github.com/shopfront/storefront-gateway/internal/session"
	"github.com/shopfront/storefront-gateway/internal/track"
	"github.com/shopfront/storefront-gateway/internal/validation"
)

const (
	defaultPageSize   = 12
	relatedPageSize   = 4
	relatedSortColumn = "stars"
)

// HandlerConfig groups dependencies for the storefront routes.
type HandlerConfig struct {
	Catalog  *catalog.Client
	Sessions *session.Manager
	Cart     *cart.Manager
	Tracker  *track.Tracker
	Cookies  session.CookieOptions
	Logger   *zap.Logger
}

// RegisterStorefrontRoutes registers the storefront API behind the session
// middleware.
func RegisterStorefrontRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	sr := r.Group("/")
	sr.Use(session.Middleware(cfg.Sessions, cfg.Cookies))

	sr.GET("/products", func(c *gin.Context) {
		ctx := c.Request.Context()
		sid := session.FromContext(c)

		q := catalog.ProductQuery{
			Limit:    intQuery(c, "limit", defaultPageSize),
			Skip:     intQuery(c, "skip", 0),
			SortBy:   c.Query("sortBy"),
			Order:    c.Query("order"),
			Search:   c.Query("search"),
			Category: c.Query("category"),
			IDs:      idsQuery(c.Query("ids")),
		}

		page, err := cfg.Catalog.Products(ctx, sid, q)
		if err != nil {
			upstreamError(c, cfg.Logger, "list products", err)
			return
		}

		if q.Category != "" {
			cfg.Tracker.Track(ctx, sid, track.EventClickCategory, map[string]any{
				"category_id": q.Category,
			})
		}

		c.JSON(http.StatusOK, page)
	})

	sr.GET("/products/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		sid := session.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_product_id"})
			return
		}

		product, err := cfg.Catalog.Product(ctx, sid, id)
		if err != nil {
			var apiErr *catalog.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
				return
			}
			upstreamError(c, cfg.Logger, "fetch product", err)
			return
		}

		cfg.Tracker.Track(ctx, sid, track.EventViewProduct, map[string]any{
			"product_id":  product.ID,
			"category_id": product.CategoryID,
		})

		// Related products: top-rated items from the same category. A
		// failure here degrades to an empty list, it never fails the page.
		var related []catalog.Product
		if product.CategoryID != 0 {
			page, rerr := cfg.Catalog.Products(ctx, sid, catalog.ProductQuery{
				Limit:    relatedPageSize,
				SortBy:   relatedSortColumn,
				Order:    "desc",
				Category: strconv.FormatInt(product.CategoryID, 10),
			})
			if rerr != nil {
				cfg.Logger.Warn("related products fetch failed", zap.Error(rerr))
			} else {
				related = page.Products
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"product":          product,
			"related_products": related,
		})
	})

	sr.GET("/categories", func(c *gin.Context) {
		cats, err := cfg.Catalog.Categories(c.Request.Context(), session.FromContext(c))
		if err != nil {
			upstreamError(c, cfg.Logger, "list categories", err)
			return
		}
		c.JSON(http.StatusOK, cats)
	})

	sr.GET("/categories/top_products", func(c *gin.Context) {
		cats, err := cfg.Catalog.TopProducts(c.Request.Context(), session.FromContext(c))
		if err != nil {
			upstreamError(c, cfg.Logger, "list top products", err)
			return
		}
		c.JSON(http.StatusOK, cats)
	})

	sr.GET("/cart", func(c *gin.Context) {
		snapshot, err := cfg.Cart.Load(c.Request.Context(), session.FromContext(c))
		if err != nil {
			upstreamError(c, cfg.Logger, "load cart", err)
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})

	sr.POST("/cart", func(c *gin.Context) {
		ctx := c.Request.Context()
		sid := session.FromContext(c)

		var req validation.AddToCartRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		snapshot, err := cfg.Cart.Add(ctx, sid, req.ProductID, req.Quantity)
		if err != nil {
			if errors.Is(err, cart.ErrNotConfirmed) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "cart_update_rejected"})
				return
			}
			upstreamError(c, cfg.Logger, "add to cart", err)
			return
		}

		payload := map[string]any{
			"product_id": req.ProductID,
			"quantity":   req.Quantity,
		}
		for _, line := range snapshot.Items {
			if line.ProductID == req.ProductID {
				payload["price"] = line.Price
				payload["category_id"] = line.CategoryID
				break
			}
		}
		cfg.Tracker.Track(ctx, sid, track.EventAddToCart, payload)

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"items":  snapshot.Items,
			"count":  snapshot.Count,
		})
	})

	sr.POST("/events", func(c *gin.Context) {
		var req validation.TrackEventRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		cfg.Tracker.Track(c.Request.Context(), session.FromContext(c), req.EventType, req.Payload)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})
}

// upstreamError reports a failed upstream call. Failures are surfaced as 502
// JSON errors rather than silently returning stale data.
func upstreamError(c *gin.Context, log *zap.Logger, op string, err error) {
	log.Error("upstream call failed", zap.String("op", op), zap.Error(err))

	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "upstream_failed",
			"detail": apiErr.Status,
		})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_unreachable"})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func idsQuery(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
