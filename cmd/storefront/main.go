package main

import (
	"github.com/corray333/backend-labs/storefront/internal/app/storefront"
	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/shopspring/decimal"
)

func main() {
	config.MustInit("storefront")
	decimal.MarshalJSONWithoutQuotes = true

	storefront.MustNewApp().Run()
}
