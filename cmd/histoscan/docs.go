package main

// General API documentation for swaggo. Run `swag init -g cmd/histoscan/docs.go -o docs` to regenerate docs.
//
// @title           histoscan API
// @version         1.0
// @description     HTTP API for binary tissue image classification.
//
// @contact.name   histoscan maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
