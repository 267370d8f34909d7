package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"friendtalk/internal/mocks"
	"friendtalk/internal/models"
	"friendtalk/internal/repositories"
	"friendtalk/internal/ws"
)

func authRouter(users *mocks.UserRepositoryMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(users, ws.NewHub(ws.PolicyRoomOnly), nil)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Register", mock.Anything, "alice", "secret").Return(models.User{
		ID:           "alice",
		Username:     "alice",
		DisplayName:  "alice",
		PasswordHash: "$2a$10$something",
	}, nil)

	w := postJSON(t, authRouter(users), "/register", gin.H{"username": "alice", "password": "secret"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp.User["id"])
	require.NotContains(t, w.Body.String(), "$2a$10$", "password hash must never leave the server")
	users.AssertExpectations(t)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Register", mock.Anything, "alice", "secret").Return(nil, repositories.ErrUsernameTaken)

	w := postJSON(t, authRouter(users), "/register", gin.H{"username": "alice", "password": "secret"})

	require.Equal(t, http.StatusConflict, w.Code)
	users.AssertExpectations(t)
}

func TestRegisterMissingFields(t *testing.T) {
	users := new(mocks.UserRepositoryMock)

	w := postJSON(t, authRouter(users), "/register", gin.H{"username": "alice"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginSuccessMarksOnline(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Authenticate", mock.Anything, "alice", "secret").Return(models.User{ID: "alice", Username: "alice"}, nil)
	users.On("SetOnline", mock.Anything, "alice", true).Return(nil)
	users.On("ListUsers", mock.Anything).Return([]models.User{{ID: "alice"}}, nil)

	w := postJSON(t, authRouter(users), "/login", gin.H{"username": "alice", "password": "secret"})

	require.Equal(t, http.StatusOK, w.Code)
	users.AssertExpectations(t)
}

func TestLoginInvalidCredentials(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Authenticate", mock.Anything, "alice", "wrong").Return(nil, repositories.ErrInvalidCredentials)

	w := postJSON(t, authRouter(users), "/login", gin.H{"username": "alice", "password": "wrong"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	users.AssertNotCalled(t, "SetOnline", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogoutSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("SetOnline", mock.Anything, "alice", false).Return(nil)
	users.On("ListUsers", mock.Anything).Return([]models.User{{ID: "alice"}}, nil)

	w := postJSON(t, authRouter(users), "/logout", gin.H{"username": "alice"})

	require.Equal(t, http.StatusOK, w.Code)
	users.AssertExpectations(t)
}

func TestLogoutUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("SetOnline", mock.Anything, "ghost", false).Return(repositories.ErrUserNotFound)

	w := postJSON(t, authRouter(users), "/logout", gin.H{"username": "ghost"})

	require.Equal(t, http.StatusNotFound, w.Code)
	users.AssertExpectations(t)
}
