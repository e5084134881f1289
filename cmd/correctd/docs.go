package main

// General API documentation for swaggo. Run `swag init -g cmd/correctd/docs.go -o docs` to regenerate.
//
// @title           correctd API
// @version         1.0
// @description     HTTP API for resource-arbitrated text correction.
//
// @contact.name   correctd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
