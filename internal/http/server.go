package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/auth"
	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/gravatar"
	"github.com/pulsefeed/pulsefeed/internal/model"
	"github.com/pulsefeed/pulsefeed/internal/rate"
	"github.com/pulsefeed/pulsefeed/internal/store"

	_ "github.com/pulsefeed/pulsefeed/docs" // swagger docs

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

type Server struct {
	store   store.Store
	auth    *auth.Service
	limiter rate.Limiter
	cfg     config.Config
}

func NewServer(store store.Store, authSvc *auth.Service, limiter rate.Limiter, cfg config.Config) *Server {
	return &Server{store: store, auth: authSvc, limiter: limiter, cfg: cfg}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/swagger/") {
		httpSwagger.WrapHandler.ServeHTTP(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleAPI(w, r)
		return
	}
	notFound(w)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 1 && segments[0] == "users":
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "auth":
		if r.Method == http.MethodPost {
			s.handleLogin(w, r)
			return
		}
		if r.Method == http.MethodGet {
			s.handleCurrentUser(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "posts":
		if r.Method == http.MethodPost {
			s.handleCreatePost(w, r)
			return
		}
		if r.Method == http.MethodGet {
			s.handleListPosts(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "posts":
		if r.Method == http.MethodGet {
			s.handleGetPost(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleDeletePost(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "like":
		if r.Method == http.MethodPut {
			s.handleLikePost(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleUnlikePost(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "posts" && segments[2] == "comments":
		if r.Method == http.MethodPost {
			s.handleAddComment(w, r, segments[1])
			return
		}
		if r.Method == http.MethodGet {
			s.handleListComments(w, r, segments[1])
			return
		}
	case len(segments) == 4 && segments[0] == "posts" && segments[2] == "comments":
		if r.Method == http.MethodDelete {
			s.handleDeleteComment(w, r, segments[1], segments[3])
			return
		}
	case len(segments) == 1 && segments[0] == "version":
		if r.Method == http.MethodGet {
			s.handleVersion(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "stats":
		if r.Method == http.MethodGet {
			s.handleGetStats(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

type fieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// handleRegister godoc
//
//	@Summary		Register a user
//	@Description	Create an account and receive a signed token. The avatar is derived from the email via gravatar.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{name=string,email=string,password=string}	true	"Registration data"
//	@Success		200		{object}	map[string]string	"Signed token"
//	@Failure		400		{object}	map[string]any		"Validation errors"
//	@Router			/api/users [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var errs []fieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, fieldError{Field: "name", Msg: "name is required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, fieldError{Field: "email", Msg: "email is invalid"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, fieldError{Field: "password", Msg: "please enter a password with 6 or more characters"})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Avatar:       gravatar.URL(email),
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeValidation(w, []fieldError{{Field: "email", Msg: "user already exists"}})
			return
		}
		s.writeServerError(w, r, err)
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange email and password for a signed token.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		object{email=string,password=string}	true	"Login data"
//	@Success		200			{object}	map[string]string	"Signed token"
//	@Failure		400			{object}	map[string]any		"Invalid credentials"
//	@Router			/api/auth [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.FindUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeValidation(w, []fieldError{{Field: "email", Msg: "invalid credentials"}})
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeValidation(w, []fieldError{{Field: "password", Msg: "invalid credentials"}})
		return
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleCurrentUser godoc
//
//	@Summary		Get the authenticated user
//	@Description	Return the user behind the presented token, without the password hash.
//	@Tags			Users
//	@Produce		json
//	@Security		TokenAuth
//	@Success		200	{object}	model.User
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Router			/api/auth [get]
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleCreatePost godoc
//
//	@Summary		Create a post
//	@Description	Create a new post authored by the authenticated user. Requires authentication.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			post	body		object{text=string}	true	"Post data"
//	@Success		200		{object}	model.Post
//	@Failure		400		{object}	map[string]any		"Validation errors"
//	@Failure		401		{object}	map[string]string	"Missing or invalid token"
//	@Failure		429		{object}	map[string]string	"Rate limited"
//	@Router			/api/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "post", s.cfg.RateLimits.PostPerMinute) {
		return
	}
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeValidation(w, []fieldError{{Field: "text", Msg: "text is required"}})
		return
	}

	user, err := s.store.GetUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}

	post := model.Post{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		Text:      strings.TrimSpace(req.Text),
		Name:      user.Name,
		Avatar:    user.Avatar,
		Likes:     []model.Like{},
		Comments:  []model.Comment{},
		CreatedAt: time.Now(),
	}
	if err := s.store.CreatePost(r.Context(), &post); err != nil {
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleListPosts godoc
//
//	@Summary		List posts
//	@Description	Get all posts, newest first, with likes and comments embedded. Requires authentication.
//	@Tags			Posts
//	@Produce		json
//	@Security		TokenAuth
//	@Success		200	{array}		model.Post
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Router			/api/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleGetPost godoc
//
//	@Summary		Get a post
//	@Description	Get a single post by id with likes and comments embedded. Requires authentication.
//	@Tags			Posts
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	model.Post
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Description	Delete your own post. Only the post's author may delete it.
//	@Tags			Posts
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	map[string]string	"Success message"
//	@Failure		401	{object}	map[string]string	"Missing token or not the author"
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	if post.UserID != identity.UserID {
		writeError(w, http.StatusUnauthorized, errors.New("user not authorized"))
		return
	}
	if err := s.store.DeletePost(r.Context(), id); err != nil {
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "post removed"})
}

// handleLikePost godoc
//
//	@Summary		Like a post
//	@Description	Add the authenticated user's like to a post. A user can hold at most one like per post.
//	@Tags			Likes
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{array}		model.Like	"Updated likes, newest first"
//	@Failure		400	{object}	map[string]string	"Already liked"
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Failure		429	{object}	map[string]string	"Rate limited"
//	@Router			/api/posts/{id}/like [put]
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request, id string) {
	if !s.allowRateLimit(w, r, "like", s.cfg.RateLimits.LikePerMinute) {
		return
	}
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	// Conditional insert; the store rejects a duplicate atomically, so
	// two racing likes by one user cannot both succeed.
	if err := s.store.AddLike(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, store.ErrAlreadyLiked) {
			writeError(w, http.StatusBadRequest, errors.New("post is already liked"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	s.writeLikes(w, r, id)
}

// handleUnlikePost godoc
//
//	@Summary		Unlike a post
//	@Description	Remove the authenticated user's like from a post.
//	@Tags			Likes
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{array}		model.Like	"Updated likes, newest first"
//	@Failure		400	{object}	map[string]string	"Not yet liked"
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id}/like [delete]
func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	if err := s.store.RemoveLike(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, store.ErrNotLiked) {
			writeError(w, http.StatusBadRequest, errors.New("post has not yet been liked"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	s.writeLikes(w, r, id)
}

// handleAddComment godoc
//
//	@Summary		Comment on a post
//	@Description	Prepend a comment to a post, authored by the authenticated user.
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id		path		string				true	"Post ID"
//	@Param			comment	body		object{text=string}	true	"Comment data"
//	@Success		200		{array}		model.Comment	"Updated comments, newest first"
//	@Failure		400		{object}	map[string]any		"Validation errors"
//	@Failure		401		{object}	map[string]string	"Missing or invalid token"
//	@Failure		404		{object}	map[string]string	"Post not found"
//	@Failure		429		{object}	map[string]string	"Rate limited"
//	@Router			/api/posts/{id}/comments [post]
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request, id string) {
	if !s.allowRateLimit(w, r, "comment", s.cfg.RateLimits.CommentPerMinute) {
		return
	}
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeValidation(w, []fieldError{{Field: "text", Msg: "text is required"}})
		return
	}

	if _, err := s.store.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	user, err := s.store.GetUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		Text:      strings.TrimSpace(req.Text),
		Name:      user.Name,
		Avatar:    user.Avatar,
		CreatedAt: time.Now(),
	}
	if err := s.store.AddComment(r.Context(), id, &comment); err != nil {
		s.writeServerError(w, r, err)
		return
	}
	s.writeComments(w, r, id)
}

// handleListComments godoc
//
//	@Summary		List comments
//	@Description	Get a post's comments, newest first. Requires authentication.
//	@Tags			Comments
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{array}		model.Comment
//	@Failure		401	{object}	map[string]string	"Missing or invalid token"
//	@Failure		404	{object}	map[string]string	"Post not found"
//	@Router			/api/posts/{id}/comments [get]
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	if _, err := s.store.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	s.writeComments(w, r, id)
}

// handleDeleteComment godoc
//
//	@Summary		Delete a comment
//	@Description	Delete your own comment from a post. Only the comment's author may delete it.
//	@Tags			Comments
//	@Produce		json
//	@Security		TokenAuth
//	@Param			id			path		string	true	"Post ID"
//	@Param			comment_id	path		string	true	"Comment ID"
//	@Success		200			{array}		model.Comment	"Updated comments, newest first"
//	@Failure		401			{object}	map[string]string	"Missing token or not the author"
//	@Failure		404			{object}	map[string]string	"Post or comment not found"
//	@Router			/api/posts/{id}/comments/{comment_id} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, postID, commentID string) {
	identity, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetPost(r.Context(), postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("post not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	comment, err := s.store.GetComment(r.Context(), postID, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("comment not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	if comment.UserID != identity.UserID {
		writeError(w, http.StatusUnauthorized, errors.New("user not authorized"))
		return
	}
	if err := s.store.DeleteComment(r.Context(), postID, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("comment not found"))
			return
		}
		s.writeServerError(w, r, err)
		return
	}
	s.writeComments(w, r, postID)
}

// handleGetStats godoc
//
//	@Summary		Get site statistics
//	@Description	Get counts of registered users, posts, and comments
//	@Tags			Stats
//	@Produce		json
//	@Success		200	{object}	map[string]any	"Site statistics"
//	@Router			/api/stats [get]
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetSiteStats(r.Context())
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":    stats.Users,
		"posts":    stats.Posts,
		"comments": stats.Comments,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.cfg.Version,
		"commit":     s.cfg.Commit,
		"build_time": s.cfg.BuildTime,
	})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(doc))
}

func (s *Server) writeLikes(w http.ResponseWriter, r *http.Request, postID string) {
	likes, err := s.store.ListLikes(r.Context(), postID)
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	if likes == nil {
		likes = []model.Like{}
	}
	writeJSON(w, http.StatusOK, likes)
}

func (s *Server) writeComments(w http.ResponseWriter, r *http.Request, postID string) {
	comments, err := s.store.ListComments(r.Context(), postID)
	if err != nil {
		s.writeServerError(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if limit <= 0 {
		return true
	}
	ipKey := fmt.Sprintf("%s:ip:%s", action, s.clientIP(r))
	if ok, retry := s.limiter.Allow(ipKey, limit, time.Minute); !ok {
		writeRateLimit(w, retry)
		return false
	}
	return true
}

// requireAuth is the gate in front of every protected operation: it
// verifies the credential header and either hands the identity to the
// handler or writes the 401 itself.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, err := s.auth.Verify(r.Header.Get(auth.Header))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return auth.Identity{}, false
	}
	return identity, true
}

func (s *Server) clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeServerError hides storage detail from the caller; the real
// error only goes to the log.
func (s *Server) writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, errors.New("server error"))
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"msg": err.Error()})
}

func writeValidation(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"msg":         "rate limit exceeded",
		"retry_after": int(retry.Seconds()),
	})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
