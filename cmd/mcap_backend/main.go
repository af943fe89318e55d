package main

import (
	"github.com/apparelmetrics/market_cap_app/internal/cli"
)

// @title Market Cap Backend API
// @version 1.0
// @description Market cap reporting backend with currency-normalized comparisons.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cli.Execute()
}
