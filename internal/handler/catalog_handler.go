package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// カテゴリ・商品の読み取りAPI
type CatalogHandler struct {
	uc  *usecase.CatalogUsecase
	log *logger.Logger
}

// DI
func NewCatalogHandler(uc *usecase.CatalogUsecase, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{uc: uc, log: log}
}

func (h *CatalogHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/categories", h.listCategories)
	g.GET("/categories/:slug", h.categoryBySlug)

	g.GET("/products", h.listProducts)
	g.GET("/products/featured", h.featured)
	g.GET("/products/new", h.newArrivals)
	g.GET("/products/search", h.search)
	g.GET("/products/category/:id", h.byCategory)
	g.GET("/products/:slug", h.productBySlug)
}

func (h *CatalogHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) categoryBySlug(c echo.Context) error {
	out, err := h.uc.GetCategoryBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) listProducts(c echo.Context) error {
	out, err := h.uc.ListProducts(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) featured(c echo.Context) error {
	out, err := h.uc.ListFeatured(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) newArrivals(c echo.Context) error {
	out, err := h.uc.ListNew(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) search(c echo.Context) error {
	out, err := h.uc.SearchProducts(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) byCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid category id")
	}
	out, err := h.uc.ListProductsByCategory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) productBySlug(c echo.Context) error {
	out, err := h.uc.GetProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
