package main

import (
	"github.com/corray333/backend-labs/storefront/internal/app/notifier"
	"github.com/corray333/backend-labs/storefront/internal/config"
)

func main() {
	config.MustInit("notifier")
	notifier.MustNewApp().Run()
}
