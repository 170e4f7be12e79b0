/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "Error registering user.",
			map[string]string{"name": "Name is required."})
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "Error registering user.",
			map[string]string{"email": "Email is invalid."})
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "Error registering user.",
			map[string]string{"password": "Password must be at least 8 characters."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeFailure(w, "Error registering user.", err)
		return
	}

	user, err := s.services.DbService.CreateUser(r.Context(), &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		writeError(w, http.StatusUnprocessableEntity, "Error registering user.",
			map[string]string{"email": "Email is already registered."})
		return
	}
	if err != nil {
		writeFailure(w, "Error registering user.", err)
		return
	}

	token, err := s.issueToken(user.Id)
	if err != nil {
		writeFailure(w, "Error registering user.", err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"user":  newUserResource(user),
		"token": token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	user, err := s.services.DbService.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.", nil)
		return
	}
	if err != nil {
		writeFailure(w, "Error logging in.", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.", nil)
		return
	}

	token, err := s.issueToken(user.Id)
	if err != nil {
		writeFailure(w, "Error logging in.", err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"user":  newUserResource(user),
		"token": token,
	})
}

func (s *Server) handleShowUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.DbService.GetUserById(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeFailure(w, "Error fetching user.", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": newUserResource(user)})
}

func (s *Server) issueToken(userId string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userId,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.JWTTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
