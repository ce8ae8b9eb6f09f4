package router

import (
	"net/http"

	"github.com/medtravel/offer-service/internal/handlers"
)

func InitRoutes(requestHandler *handlers.RequestHandler, offerHandler *handlers.OfferHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)
	mux.HandleFunc("/api/requests/new", requestHandler.SubmitRequest)
	mux.HandleFunc("/api/requests/my", requestHandler.GetUserRequests)
	mux.HandleFunc("GET /api/requests/{requestId}/offers", requestHandler.GetRequestOffers)
	mux.HandleFunc("POST /api/requests/{requestId}/regenerate", requestHandler.RegenerateOffers)

	mux.HandleFunc("/api/offers/new", offerHandler.SubmitManualOffer)

	return mux
}
