package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/silktrader/usof/pkg/auth"
	"github.com/silktrader/usof/pkg/auth/authtest"
	"github.com/silktrader/usof/pkg/rest"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"github.com/silktrader/usof/pkg/storage/sqlite/sqlitetest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
	"time"
)

type fixture struct {
	handler        http.Handler
	storage        *sqlite.Storage
	repository     PostRepository
	author, other  string
	authorId       int64
	news, politics int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	var storage = sqlitetest.New(t)
	logger, _ := test.NewNullLogger()
	engine, err := rest.New(rest.Config{Logger: logger})
	require.NoError(t, err)

	var issuer = authtest.NewIssuer(t)
	var repository = NewRepository(storage.Connection)
	RegisterHandlers(engine, repository, auth.NewGate(issuer, auth.NewRepository(storage.Connection), true))

	var authorId = sqlitetest.AddUser(t, storage.Connection, "author", sqlite.RoleUser)
	var otherId = sqlitetest.AddUser(t, storage.Connection, "other", sqlite.RoleUser)
	return fixture{
		handler:    engine.Handler(),
		storage:    storage,
		repository: repository,
		author:     authtest.Token(t, issuer, authorId, "author", sqlite.RoleUser),
		other:      authtest.Token(t, issuer, otherId, "other", sqlite.RoleUser),
		authorId:   authorId,
		news:       sqlitetest.AddCategory(t, storage.Connection, "news"),
		politics:   sqlitetest.AddCategory(t, storage.Connection, "politics"),
	}
}

func (f fixture) do(method, path, body, token string) (int, string) {
	var response = authtest.Serve(f.handler, authtest.Request(method, path, body, token))
	return response.Code, response.Body.String()
}

func TestGetPostsPagination(t *testing.T) {
	var f = newFixture(t)
	for i := 1; i <= 25; i++ {
		sqlitetest.AddPost(t, f.storage.Connection, f.authorId, fmt.Sprintf("post %d", i))
	}

	for query, expected := range map[string]struct {
		page, count int
		first       string
	}{
		"":         {1, 10, "post 1"},
		"?page=2":  {2, 10, "post 11"},
		"?page=3":  {3, 5, "post 21"},
		"?page=0":  {1, 10, "post 1"},
		"?page=-4": {1, 10, "post 1"},
		"?page=x":  {1, 10, "post 1"},
	} {
		t.Run(query, func(t *testing.T) {
			status, body := f.do(http.MethodGet, "/api/posts"+query, "", "")
			require.Equal(t, http.StatusOK, status)

			var page PostsPage
			require.NoError(t, json.Unmarshal([]byte(body), &page))
			assert.Equal(t, expected.page, page.Page)
			require.Len(t, page.Posts, expected.count)
			assert.Equal(t, expected.first, page.Posts[0].Title)
		})
	}

	status, body := f.do(http.MethodGet, "/api/posts?page=4", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"posts": [], "page": 4}`, body)

	// offsets past the largest SQLite integer
	for _, page := range []string{"922337203685477581", "1000000000000000000", "9223372036854775807"} {
		status, body = f.do(http.MethodGet, "/api/posts?page="+page, "", "")
		require.Equal(t, http.StatusOK, status, page)
		assert.JSONEq(t, `{"posts": [], "page": `+page+`}`, body)
	}
}

func TestGetPost(t *testing.T) {
	var f = newFixture(t)
	var id = sqlitetest.AddPost(t, f.storage.Connection, f.authorId, "hello", f.news)

	status, body := f.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", id), "", "")
	require.Equal(t, http.StatusOK, status)
	var post Post
	require.NoError(t, json.Unmarshal([]byte(body), &post))
	assert.Equal(t, "hello", post.Title)
	assert.Equal(t, StatusActive, post.Status)
	assert.Equal(t, f.authorId, post.AuthorId)

	status, body = f.do(http.MethodGet, "/api/posts/999", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error": "Post not found"}`, body)
}

func TestAddPost(t *testing.T) {
	var f = newFixture(t)

	status, _ := f.do(http.MethodPost, "/api/posts", `{"title": "t", "content": "c", "categories": [1]}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := f.do(http.MethodPost, "/api/posts",
		fmt.Sprintf(`{"title": "Elections", "content": "Who won?", "categories": [%d, %d]}`, f.news, f.politics), f.author)
	require.Equal(t, http.StatusCreated, status)
	var created struct{ Id int64 }
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	status, body = f.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/categories", created.Id), "", "")
	require.Equal(t, http.StatusOK, status)
	var categories CategoriesBody
	require.NoError(t, json.Unmarshal([]byte(body), &categories))
	require.Len(t, categories.Categories, 2)
	assert.Equal(t, "news", categories.Categories[0].Title)
	assert.Equal(t, "No description", categories.Categories[0].Description)
	assert.Equal(t, "politics", categories.Categories[1].Title)
}

func TestAddPostIsAtomic(t *testing.T) {
	var f = newFixture(t)

	status, body := f.do(http.MethodPost, "/api/posts",
		fmt.Sprintf(`{"title": "Orphan", "content": "c", "categories": [%d, 999]}`, f.news), f.author)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error": "One or more categories don't exist"}`, body)
	assert.Zero(t, sqlitetest.Count(t, f.storage.Connection, "posts", ""))
	assert.Zero(t, sqlitetest.Count(t, f.storage.Connection, "post_categories", ""))
}

func TestAddPostByDeletedUser(t *testing.T) {
	var f = newFixture(t)
	var token = authtest.DeletedUserToken(t, f.storage.Connection)

	status, body := f.do(http.MethodPost, "/api/posts",
		fmt.Sprintf(`{"title": "Posthumous", "content": "c", "categories": [%d]}`, f.news), token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error": "User not found"}`, body)
	assert.Zero(t, sqlitetest.Count(t, f.storage.Connection, "posts", ""))
}

func TestAddPostValidation(t *testing.T) {
	var f = newFixture(t)

	for body, message := range map[string]string{
		`{"title": "t", "content": "c"}`:                       "Title, content, and categories are required",
		`{"content": "c", "categories": [1]}`:                  "Title, content, and categories are required",
		`{"title": "t", "content": "c", "categories": "news"}`: "Categories must be an array",
		`{"title": "t", "content": "c", "categories": [0]}`:    "Categories must hold positive identifiers",
	} {
		status, response := f.do(http.MethodPost, "/api/posts", body, f.author)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.JSONEq(t, fmt.Sprintf(`{"error": %q}`, message), response, body)
	}
}

func TestUpdatePostByOwner(t *testing.T) {
	var f = newFixture(t)
	var id = sqlitetest.AddPost(t, f.storage.Connection, f.authorId, "draft", f.news)
	before, err := f.repository.GetById(context.Background(), id)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	var path = fmt.Sprintf("/api/posts/%d", id)
	status, body := f.do(http.MethodPatch, path, fmt.Sprintf(`{"status": "inactive", "categories": [%d]}`, f.politics), f.author)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message": "Post updated successfully"}`, body)

	after, err := f.repository.GetById(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "draft", after.Title)
	assert.Equal(t, StatusInactive, after.Status)
	assert.True(t, before.UpdatedAt.Time().Before(after.UpdatedAt.Time()))
	assert.Equal(t, before.CreatedAt.Time(), after.CreatedAt.Time())

	categories, err := f.repository.GetCategories(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, f.politics, categories[0].Id)

	status, body = f.do(http.MethodPatch, path, `{}`, f.author)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message": "No fields to update"}`, body)

	status, _ = f.do(http.MethodPatch, path, `{"status": "archived"}`, f.author)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = f.do(http.MethodPatch, path, `{"status": ""}`, f.author)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = f.do(http.MethodPatch, path, `{"title": ""}`, f.author)
	assert.Equal(t, http.StatusBadRequest, status)
	after, err = f.repository.GetById(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, after.Status)
	assert.Equal(t, "draft", after.Title)

	// a failed replacement keeps the previous set
	status, _ = f.do(http.MethodPatch, path, `{"categories": [999]}`, f.author)
	assert.Equal(t, http.StatusBadRequest, status)
	categories, err = f.repository.GetCategories(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestUpdatePostByOthers(t *testing.T) {
	var f = newFixture(t)
	var id = sqlitetest.AddPost(t, f.storage.Connection, f.authorId, "mine", f.news)

	status, body := f.do(http.MethodPatch, fmt.Sprintf("/api/posts/%d", id), `{"title": "hijacked"}`, f.other)
	assert.Equal(t, http.StatusForbidden, status)
	assert.JSONEq(t, `{"error": "Access denied or post not found"}`, body)

	post, err := f.repository.GetById(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "mine", post.Title)

	status, _ = f.do(http.MethodPatch, "/api/posts/999", `{"title": "ghost"}`, f.author)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDeletePost(t *testing.T) {
	var f = newFixture(t)
	var db = f.storage.Connection
	var id = sqlitetest.AddPost(t, db, f.authorId, "short lived", f.news)
	var kept = sqlitetest.AddPost(t, db, f.authorId, "kept")
	var commentId = sqlitetest.AddComment(t, db, f.authorId, id, "first")
	_, err := db.Exec(`
		INSERT INTO likes (author_id, target_id, target_type, published_at, type) VALUES
			(?, ?, 'post', datetime('now'), 'like'),
			(?, ?, 'comment', datetime('now'), 'like'),
			(?, ?, 'post', datetime('now'), 'dislike')`,
		f.authorId, id, f.authorId, commentId, f.authorId, kept)
	require.NoError(t, err)

	var path = fmt.Sprintf("/api/posts/%d", id)
	status, _ := f.do(http.MethodDelete, path, "", f.other)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 1, sqlitetest.Count(t, db, "posts", "id = ?", id))

	status, body := f.do(http.MethodDelete, path, "", f.author)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message": "Post deleted successfully"}`, body)

	assert.Zero(t, sqlitetest.Count(t, db, "posts", "id = ?", id))
	assert.Zero(t, sqlitetest.Count(t, db, "post_categories", ""))
	assert.Zero(t, sqlitetest.Count(t, db, "comments", ""))
	assert.Equal(t, 1, sqlitetest.Count(t, db, "likes", ""))
	assert.Equal(t, 1, sqlitetest.Count(t, db, "categories", "id = ?", f.news))

	status, _ = f.do(http.MethodDelete, path, "", f.author)
	assert.Equal(t, http.StatusForbidden, status)
}
