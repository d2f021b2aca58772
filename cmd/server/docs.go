package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           12thMan Takes API
// @version         0.1.0
// @description     Idempotent take sync, cursor feed, and live tail for offline-first clients.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
