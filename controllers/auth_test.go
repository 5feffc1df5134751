package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"DemoHub/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{})

	w := env.do(t, http.MethodPost, "/register", "", gin.H{
		"email": "Ann@Example.com", "password": "abc123", "confirm_password": "abc123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, env.db.Where("email = ?", "ann@example.com").First(&stored).Error)
	assert.Equal(t, "ann", stored.DisplayName())
	assert.False(t, stored.IsAdmin)

	w = env.do(t, http.MethodPost, "/register", "", gin.H{
		"email": "ann@example.com", "password": "abc123", "confirm_password": "abc123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/login", "", gin.H{"email": "ann@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/login", "", gin.H{"email": "ANN@example.com", "password": "abc123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[struct {
		AccessToken string `json:"access_token"`
		User        struct {
			Email string `json:"email"`
		} `json:"user"`
	}](t, w)
	assert.Equal(t, "ann@example.com", login.User.Email)

	w = env.do(t, http.MethodGet, "/me", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPost, "/logout", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/me", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{})
	cases := map[string]gin.H{
		"missing password": {"email": "a@example.com"},
		"bad email":        {"email": "nope", "password": "abc123", "confirm_password": "abc123"},
		"mismatch":         {"email": "a@example.com", "password": "abc123", "confirm_password": "abc124"},
		"weak":             {"email": "a@example.com", "password": "abcdef", "confirm_password": "abcdef"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/register", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegisterAdminEmail(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{})
	w := env.do(t, http.MethodPost, "/register", "", gin.H{
		"email": "root@example.com", "name": "Root", "password": "abc123", "confirm_password": "abc123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var u models.User
	require.NoError(t, env.db.Where("email = ?", "root@example.com").First(&u).Error)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "Root", u.DisplayName())
}

func TestProfileUpdate(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{})
	_, tok := env.newUser(t, "ann@example.com", false)
	env.newUser(t, "bob@example.com", false)

	w := env.do(t, http.MethodPut, "/profile", tok, gin.H{"email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/profile", tok, gin.H{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/profile", tok, gin.H{"name": "Ann B", "password": "newpass9"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/profile", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann B", decode[map[string]any](t, w)["name"])

	w = env.do(t, http.MethodPost, "/login", "", gin.H{"email": "ann@example.com", "password": "newpass9"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{})
	u, tok := env.newUser(t, "ann@example.com", false)

	upload := func(filename string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("avatar", filename)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("png-bytes"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/profile/avatar", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	w := upload("notes.txt")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload("me.png")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	url := decode[map[string]string](t, w)["avatar_url"]
	assert.Contains(t, url, "/uploads/avatars/")

	require.NoError(t, env.db.First(&u, u.ID).Error)
	assert.Equal(t, url, u.AvatarURL)
}
