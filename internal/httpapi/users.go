// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rosterd/rosterd/internal/access"
	"github.com/rosterd/rosterd/internal/auth"
)

type registerRequest struct {
	Username   string  `json:"username" binding:"required"`
	Password   string  `json:"password" binding:"required"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Class      string  `json:"class"`
}

type loginRequest struct {
	ID       *int64  `json:"id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

type resetRequest struct {
	ID       *int64  `json:"id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Action   string  `json:"action"`
	Token    string  `json:"token"`
	Password string  `json:"password"`
}

type updateRequest struct {
	Username   *string  `json:"username"`
	Email      *string  `json:"email"`
	Phone      *string  `json:"phone"`
	Name       *string  `json:"name"`
	Department *string  `json:"department"`
	Class      *string  `json:"class"`
	Group      *string  `json:"group"`
	Role       *string  `json:"role"`
	Tags       []string `json:"tags"`
	Password   *string  `json:"password"`
}

// lookupKey builds a lookup key from the identifying fields of a request,
// preferring username, then email, then id.
func lookupKey(id *int64, username, email *string) auth.LookupKey {
	switch {
	case username != nil && *username != "":
		return auth.ByUsername(*username)
	case email != nil && *email != "":
		return auth.ByEmail(*email)
	case id != nil:
		return auth.ByID(*id)
	default:
		return auth.LookupKey{}
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	user, err := s.service.Register(c.Request.Context(), auth.RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
		Phone:      req.Phone,
		Name:       req.Name,
		Department: req.Department,
		Class:      req.Class,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/v1/users/%d", user.ID))
	c.JSON(http.StatusCreated, fullView(user))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	key := lookupKey(req.ID, req.Username, req.Email)
	if key.IsZero() || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	_, token, err := s.service.Login(c.Request.Context(), key, req.Password)
	if err != nil {
		s.countLogin("failure")
		s.writeError(c, err)
		return
	}

	s.countLogin("success")
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	switch req.Action {
	case "get":
		key := lookupKey(req.ID, req.Username, req.Email)
		if key.IsZero() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
			return
		}
		if err := s.service.RequestReset(c.Request.Context(), key); err != nil {
			s.countReset("request", "failure")
			s.writeError(c, err)
			return
		}
		s.countReset("request", "success")
		c.Status(http.StatusCreated)

	case "set":
		if req.Token == "" || req.Password == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
			return
		}
		if err := s.service.ConfirmReset(c.Request.Context(), req.Token, req.Password); err != nil {
			s.countReset("confirm", "failure")
			s.writeError(c, err)
			return
		}
		s.countReset("confirm", "success")
		c.Status(http.StatusNoContent)

	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
	}
}

func (s *Server) handleResetProbe(c *gin.Context) {
	claims, err := s.service.ProbeReset(c.Param("token"))
	if err != nil {
		s.countReset("probe", "failure")
		s.writeError(c, err)
		return
	}

	s.countReset("probe", "success")
	c.JSON(http.StatusOK, gin.H{
		"id":       claims.UserID,
		"username": claims.Username,
		"email":    claims.Email,
	})
}

func (s *Server) handleList(c *gin.Context) {
	query := auth.ListQuery{
		Username:   c.Query("username"),
		Department: c.Query("department"),
		Class:      c.Query("class"),
		Group:      c.Query("group"),
	}
	if v := c.Query("begin"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
			return
		}
		query.Begin = n
	}
	if v := c.Query("end"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
			return
		}
		query.End = n
	}

	users, err := s.service.List(c.Request.Context(), query)
	if err != nil {
		s.writeError(c, err)
		return
	}

	identity, _ := access.IdentityFrom(c)
	if identity != nil && identity.Role == auth.RoleRoot && c.Query("detail") == "true" {
		views := make([]userView, 0, len(users))
		for _, u := range users {
			views = append(views, fullView(u))
		}
		c.JSON(http.StatusOK, gin.H{"users": views})
		return
	}

	views := make([]listedUserView, 0, len(users))
	for _, u := range users {
		views = append(views, listedView(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := s.service.Get(c.Request.Context(), auth.ByID(id))
	if err != nil {
		s.writeError(c, err)
		return
	}

	identity, _ := access.IdentityFrom(c)
	privileged := identity != nil &&
		(identity.Role == auth.RoleRoot || identity.UserID == id)
	if privileged && c.Query("detail") == "true" {
		c.JSON(http.StatusOK, fullView(user))
		return
	}

	c.JSON(http.StatusOK, publicView(user))
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	grant, ok := access.GrantFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := grant.RequireOwner(id); err != nil {
		s.writeError(c, err)
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	input := auth.UpdateInput{
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		Name:       req.Name,
		Department: req.Department,
		Class:      req.Class,
		Group:      req.Group,
		Tags:       req.Tags,
		Password:   req.Password,
	}
	if req.Role != nil {
		role := auth.Role(*req.Role)
		if !role.Valid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
			return
		}
		input.Role = &role
	}

	user, err := s.service.Update(c.Request.Context(), grant.Claims, id, input)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fullView(user))
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := s.service.Delete(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fullView(user))
}

func (s *Server) countLogin(status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LoginsTotal.WithLabelValues(status).Inc()
}

func (s *Server) countReset(phase, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.PasswordResetsTotal.WithLabelValues(phase, status).Inc()
}
