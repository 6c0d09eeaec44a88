package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/pdf"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/shortlink"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *service.AuthService
	media  string
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupTestDatabase(t)

	media := t.TempDir()
	store, err := storage.NewLocalStore(media, "")
	require.NoError(t, err)
	images := storage.NewImages(store, 1<<20)
	encoder, err := shortlink.New("", 6)
	require.NoError(t, err)

	authService := service.NewAuthService(db, "api-test-secret", time.Hour, nil)
	users := service.NewUserService(db, images)
	recipes := service.NewRecipeService(db, images)
	shopping := service.NewShoppingService(db, pdf.NewShoppingListRenderer(pdf.Options{}))

	r := router.SetupRouter(router.Handlers{
		Auth:      api.NewAuthHandler(authService),
		Users:     api.NewUserHandler(authService, users, recipes, images),
		Catalog:   api.NewCatalogHandler(service.NewCatalogService(db)),
		Recipes:   api.NewRecipeHandler(authService, recipes, users, shopping, images, api.RecipeLimits{}),
		ShortLink: api.NewShortLinkHandler(recipes, encoder, "https://foodgram.test"),
	}, router.Options{
		AllowedOrigins: []string{"*"},
		MediaDir:       media,
		MaxBodyBytes:   middleware.BodyLimitForImages(1 << 20),
	})

	return &testAPI{t: t, db: db, router: r, auth: authService, media: media}
}

// tokenFor signs a token for an existing user.
func (a *testAPI) tokenFor(user *models.User) string {
	a.t.Helper()
	token, err := a.auth.GenerateToken(user)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
