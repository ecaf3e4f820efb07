package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/projection"
	"github.com/ZilDuck/marketplace-indexer/internal/repository"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const defaultPageSize = 20

type Server struct {
	listingRepo        repository.ListingRepository
	bidRepo            repository.BidRepository
	offerRepo          repository.OfferRepository
	purchaseRepo       repository.PurchaseRepository
	escrowRepo         repository.EscrowRepository
	reconciliationRepo repository.ReconciliationRepository
}

func NewServer(
	listingRepo repository.ListingRepository,
	bidRepo repository.BidRepository,
	offerRepo repository.OfferRepository,
	purchaseRepo repository.PurchaseRepository,
	escrowRepo repository.EscrowRepository,
	reconciliationRepo repository.ReconciliationRepository,
) Server {
	return Server{listingRepo, bidRepo, offerRepo, purchaseRepo, escrowRepo, reconciliationRepo}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/listings", s.handleQueryListings).Methods("GET")
	r.HandleFunc("/listings/seller/{seller}", s.handleListingsBySeller).Methods("GET")
	r.HandleFunc("/listing/{chainId}/{marketplaceAddr}/{listingId}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/listing/{chainId}/{marketplaceAddr}/{listingId}/bids", s.handleListingBids).Methods("GET")
	r.HandleFunc("/listing/{chainId}/{marketplaceAddr}/{listingId}/offers", s.handleListingOffers).Methods("GET")
	r.HandleFunc("/listing/{chainId}/{marketplaceAddr}/{listingId}/purchases", s.handleListingPurchases).Methods("GET")
	r.HandleFunc("/listing/{chainId}/{marketplaceAddr}/{listingId}/escrows", s.handleListingEscrows).Methods("GET")
	r.HandleFunc("/bids/bidder/{bidder}", s.handleBidsByBidder).Methods("GET")
	r.HandleFunc("/offers/offerer/{offerer}", s.handleOffersByOfferer).Methods("GET")
	r.HandleFunc("/purchases/buyer/{buyer}", s.handlePurchasesByBuyer).Methods("GET")
	r.HandleFunc("/escrows/receiver/{receiver}", s.handleEscrowsByReceiver).Methods("GET")
	r.HandleFunc("/reconciliation/mismatches", s.handleMismatches).Methods("GET")
	r.NotFoundHandler = notFoundHandler()

	return r
}

type pagedResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Size  int         `json:"size"`
	Page  int         `json:"page"`
}

// listingResponse wraps the projected listing with its derived price. The
// current price is never stored, only computed from the pricing curve.
type listingResponse struct {
	entity.Listing
	CurrentPrice string `json:"currentPrice,omitempty"`
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	chainId, marketplaceAddr, listingId, err := getListingKey(r)
	if err != nil {
		http.Error(w, "Invalid listing identifier", http.StatusBadRequest)
		return
	}

	listing, err := s.listingRepo.GetListing(chainId, marketplaceAddr, listingId)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			http.Error(w, "Listing not found", http.StatusNotFound)
			return
		}
		zap.L().With(zap.Error(err)).Error("Api: Failed to get listing")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, newListingResponse(*listing))
}

func (s Server) handleQueryListings(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	filter := repository.ListingFilter{
		Status:      entity.ListingStatus(r.URL.Query().Get("status")),
		ListingType: entity.ListingType(r.URL.Query().Get("type")),
		Seller:      r.URL.Query().Get("seller"),
		TokenAddr:   r.URL.Query().Get("tokenAddr"),
	}

	listings, total, err := s.listingRepo.QueryListings(filter, size, page, r.URL.Query().Get("orderBy"))
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to query listings")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	items := make([]listingResponse, len(listings))
	for idx, listing := range listings {
		items[idx] = newListingResponse(listing)
	}

	writeJson(w, pagedResponse{items, total, size, page})
}

func (s Server) handleListingsBySeller(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	listings, total, err := s.listingRepo.GetListingsBySeller(mux.Vars(r)["seller"], size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get listings by seller")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	items := make([]listingResponse, len(listings))
	for idx, listing := range listings {
		items[idx] = newListingResponse(listing)
	}

	writeJson(w, pagedResponse{items, total, size, page})
}

func (s Server) handleListingBids(w http.ResponseWriter, r *http.Request) {
	chainId, marketplaceAddr, listingId, err := getListingKey(r)
	if err != nil {
		http.Error(w, "Invalid listing identifier", http.StatusBadRequest)
		return
	}
	size, page := getPagination(r)

	bids, total, err := s.bidRepo.GetBidsByListing(chainId, marketplaceAddr, listingId, size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get bids")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{bids, total, size, page})
}

func (s Server) handleListingOffers(w http.ResponseWriter, r *http.Request) {
	chainId, marketplaceAddr, listingId, err := getListingKey(r)
	if err != nil {
		http.Error(w, "Invalid listing identifier", http.StatusBadRequest)
		return
	}
	size, page := getPagination(r)

	offers, total, err := s.offerRepo.GetOffersByListing(chainId, marketplaceAddr, listingId, size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get offers")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{offers, total, size, page})
}

func (s Server) handleListingPurchases(w http.ResponseWriter, r *http.Request) {
	chainId, marketplaceAddr, listingId, err := getListingKey(r)
	if err != nil {
		http.Error(w, "Invalid listing identifier", http.StatusBadRequest)
		return
	}
	size, page := getPagination(r)

	purchases, total, err := s.purchaseRepo.GetPurchasesByListing(chainId, marketplaceAddr, listingId, size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get purchases")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{purchases, total, size, page})
}

func (s Server) handleListingEscrows(w http.ResponseWriter, r *http.Request) {
	chainId, marketplaceAddr, listingId, err := getListingKey(r)
	if err != nil {
		http.Error(w, "Invalid listing identifier", http.StatusBadRequest)
		return
	}
	size, page := getPagination(r)

	escrows, total, err := s.escrowRepo.GetEscrowsByListing(chainId, marketplaceAddr, listingId, size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get escrows")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{escrows, total, size, page})
}

func (s Server) handleBidsByBidder(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	bids, total, err := s.bidRepo.GetBidsByBidder(mux.Vars(r)["bidder"], size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get bids by bidder")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{bids, total, size, page})
}

func (s Server) handleOffersByOfferer(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	offers, total, err := s.offerRepo.GetOffersByOfferer(mux.Vars(r)["offerer"], size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get offers by offerer")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{offers, total, size, page})
}

func (s Server) handlePurchasesByBuyer(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	purchases, total, err := s.purchaseRepo.GetPurchasesByBuyer(mux.Vars(r)["buyer"], size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get purchases by buyer")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{purchases, total, size, page})
}

func (s Server) handleEscrowsByReceiver(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	escrows, total, err := s.escrowRepo.GetEscrowsByReceiver(mux.Vars(r)["receiver"], size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get escrows by receiver")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{escrows, total, size, page})
}

func (s Server) handleMismatches(w http.ResponseWriter, r *http.Request) {
	size, page := getPagination(r)

	mismatches, total, err := s.reconciliationRepo.GetMismatches(size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get mismatches")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	writeJson(w, pagedResponse{mismatches, total, size, page})
}

func newListingResponse(listing entity.Listing) listingResponse {
	response := listingResponse{Listing: listing}

	if price := projection.CurrentPrice(listing); price != nil {
		response.CurrentPrice = price.String()
	}

	return response
}

func getListingKey(r *http.Request) (uint64, string, uint64, error) {
	vars := mux.Vars(r)

	chainId, err := strconv.ParseUint(vars["chainId"], 10, 64)
	if err != nil {
		return 0, "", 0, err
	}

	listingId, err := strconv.ParseUint(vars["listingId"], 10, 64)
	if err != nil {
		return 0, "", 0, err
	}

	// Addresses are stored lowercase, accept checksummed input.
	return chainId, strings.ToLower(vars["marketplaceAddr"]), listingId, nil
}

func getPagination(r *http.Request) (int, int) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 || size > 100 {
		size = defaultPageSize
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	return size, page
}

func writeJson(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to encode response")
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "Page not found")
	})
}
