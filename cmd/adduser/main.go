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

package main

import (
	"context"
	"flag"

	"plex-exchange-go/internal/common"
	"plex-exchange-go/internal/config"
	"plex-exchange-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	name := flag.String("name", "", "User's full name")
	email := flag.String("email", "", "User's email address")
	password := flag.String("password", "", "User's password")
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	if *name == "" || *email == "" || *password == "" {
		logger.Fatal("Usage: adduser -name \"Full Name\" -email user@example.com -password secret")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Failed to hash password", zap.Error(err))
	}

	user, err := services.DbService.CreateUser(ctx, &models.User{
		Name:         *name,
		Email:        *email,
		PasswordHash: string(hash),
	})
	if err != nil {
		logger.Fatal("Failed to create user", zap.Error(err))
	}

	zap.L().Info("User created",
		zap.String("id", user.Id),
		zap.String("name", user.Name),
		zap.String("email", user.Email))
}
