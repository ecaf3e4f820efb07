package main

import (
	"net/http"

	"github.com/ZilDuck/marketplace-indexer/internal/api"
	"github.com/ZilDuck/marketplace-indexer/internal/config"
	"github.com/ZilDuck/marketplace-indexer/internal/config/di"
	"go.uber.org/zap"
)

func main() {
	config.Init("api")

	container, err := di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	router := api.NewServer(
		container.GetListingRepo(),
		container.GetBidRepo(),
		container.GetOfferRepo(),
		container.GetPurchaseRepo(),
		container.GetEscrowRepo(),
		container.GetReconciliationRepo(),
	).Router()

	zap.L().Info("Serving marketplace api on :" + config.Get().ApiPort)

	if err := http.ListenAndServe(":"+config.Get().ApiPort, router); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to start api server")
	}
}
