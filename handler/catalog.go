package handler

import (
	"net/http"

	"github.com/VoltaiLTD/voltdesigns/catalog"
	"github.com/VoltaiLTD/voltdesigns/model"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// List returns catalog items. ?design= narrows to one design kind,
// ?tags= (comma-separated) matches items carrying any of the tags.
// Both filters together intersect.
func (h *CatalogHandler) List(c *gin.Context) {
	items := catalog.All()

	if design := c.Query("design"); design != "" {
		items = catalog.ListByDesign(catalog.DesignKind(design))
	}

	if raw := c.Query("tags"); raw != "" {
		tags := make([]catalog.MaterialTag, 0)
		for _, t := range model.SplitList(raw) {
			tags = append(tags, catalog.MaterialTag(t))
		}
		items = filterByTags(items, tags)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get returns a single item by slug.
func (h *CatalogHandler) Get(c *gin.Context) {
	item := catalog.Get(c.Param("slug"))
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func filterByTags(items []catalog.Item, tags []catalog.MaterialTag) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		if hasAnyTag(item, tags) {
			out = append(out, item)
		}
	}
	return out
}

func hasAnyTag(item catalog.Item, tags []catalog.MaterialTag) bool {
	for _, want := range tags {
		for _, have := range item.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
