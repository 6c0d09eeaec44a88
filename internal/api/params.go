package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	// maxQueryValue bounds page, offset and recipes_limit so page*limit
	// and offsets stay far from overflow.
	maxQueryValue = 1_000_000
)

// pathID parses the :id route parameter. ok is false for anything that is not
// a positive integer.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt returns the query parameter as a non-negative int capped at
// maxQueryValue, or def when it is missing or malformed.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	if n > maxQueryValue {
		return maxQueryValue
	}
	return int(n)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// queryBool understands 1/0 and true/false. nil means the filter is absent.
func queryBool(c *gin.Context, name string) *bool {
	var v bool
	switch strings.ToLower(c.Query(name)) {
	case "1", "true":
		v = true
	case "0", "false":
		v = false
	default:
		return nil
	}
	return &v
}

// requestURL rebuilds the absolute URL of the current request.
func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Scheme = "http"
	if c.Request.TLS != nil {
		u.Scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}
	u.Host = c.Request.Host
	return &u
}

func withQuery(c *gin.Context, set map[string]int) *string {
	u := requestURL(c)
	q := u.Query()
	for k, v := range set {
		if v <= 0 && k != "offset" {
			q.Del(k)
			continue
		}
		q.Set(k, strconv.Itoa(v))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// pageNumberPage wraps results of a ?page=&limit= query.
func pageNumberPage[T any](c *gin.Context, results []T, total int64, page, limit int) types.Page[T] {
	out := types.Page[T]{Count: total, Results: results}
	if int64(page*limit) < total {
		out.Next = withQuery(c, map[string]int{"page": page + 1, "limit": limit})
	}
	if page > 1 {
		prev := page - 1
		if prev == 1 {
			prev = 0
		}
		out.Previous = withQuery(c, map[string]int{"page": prev, "limit": limit})
	}
	return out
}

// limitOffsetPage wraps results of a ?limit=&offset= query.
func limitOffsetPage[T any](c *gin.Context, results []T, total int64, limit, offset int) types.Page[T] {
	out := types.Page[T]{Count: total, Results: results}
	if int64(offset+limit) < total {
		out.Next = withQuery(c, map[string]int{"limit": limit, "offset": offset + limit})
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		out.Previous = withQuery(c, map[string]int{"limit": limit, "offset": prev})
	}
	return out
}

// recipeFilter reads the recipe list query string.
func recipeFilter(c *gin.Context) types.RecipeFilter {
	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
		Page:             queryInt(c, "page", 1),
		Limit:            clampLimit(queryInt(c, "limit", defaultPageSize)),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if author, err := strconv.ParseUint(c.Query("author"), 10, 64); err == nil {
		filter.AuthorID = uint(author)
	}
	return filter
}
