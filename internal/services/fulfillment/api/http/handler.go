// Package http exposes the fulfillment operations over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	platerrors "github.com/kyoso-cards/fulfillment/internal/platform/errors"
	catalog "github.com/kyoso-cards/fulfillment/internal/services/catalog/domain"
	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
	orders "github.com/kyoso-cards/fulfillment/internal/services/orders/domain"
	"go.uber.org/zap"
)

// OrderReader fetches orders for the read endpoint.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
}

// Fulfiller runs the fulfillment operations the API exposes.
type Fulfiller interface {
	FulfillOrder(ctx context.Context, orderID string) (domain.Outcome, error)
	ProcessCard(ctx context.Context, cardID string) (domain.CardArtifact, error)
	ProcessCardWithDecoys(ctx context.Context, cardID string) (domain.CopyResult, error)
}

// Handler serves the fulfillment JSON API.
type Handler struct {
	orders      OrderReader
	fulfillment Fulfiller
	logger      *zap.Logger
}

// NewHandler builds the API handler.
func NewHandler(orderReader OrderReader, fulfiller Fulfiller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orders: orderReader, fulfillment: fulfiller, logger: logger}
}

// Routes returns the API mux with all endpoints registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/fetch-order/{orderID}", h.fetchOrder)
	mux.HandleFunc("GET /api/process-card/{cardID}", h.processCard)
	mux.HandleFunc("GET /api/process-card-with-randoms/{cardID}", h.processCardWithRandoms)
	mux.HandleFunc("POST /api/process-order/{orderID}", h.processOrder)
	return withCORS(mux)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) fetchOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) processCard(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.fulfillment.ProcessCard(r.Context(), r.PathValue("cardID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cardArtifactResponse{
		Card: toCardResponse(artifact.Card),
		Path: artifact.Path,
	})
}

func (h *Handler) processCardWithRandoms(w http.ResponseWriter, r *http.Request) {
	result, err := h.fulfillment.ProcessCardWithDecoys(r.Context(), r.PathValue("cardID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCopyResponse(result))
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.fulfillment.FulfillOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := classify(err)
	status := platerrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: string(code)})
}

func classify(err error) platerrors.Code {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, orders.ErrNotFound):
		return platerrors.CodeNotFound
	case errors.Is(err, domain.ErrOrderIDRequired),
		errors.Is(err, domain.ErrCardIDRequired),
		errors.Is(err, catalog.ErrCardIDRequired),
		errors.Is(err, orders.ErrOrderIDRequired):
		return platerrors.CodeValidation
	}
	var external *domain.ExternalServiceError
	if errors.As(err, &external) {
		return platerrors.CodeExternalService
	}
	var copyErr *domain.CopyError
	if errors.As(err, &copyErr) {
		return platerrors.CodeCopyProcessing
	}
	return platerrors.CodeUnknown
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type cardResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BeltRank    string    `json:"beltRank,omitempty"`
	Achievement string    `json:"achievement,omitempty"`
	ClubName    string    `json:"clubName,omitempty"`
	Image       string    `json:"image,omitempty"`
	Price       string    `json:"price"`
	OwnerUserID string    `json:"userId"`
	PrintCount  int       `json:"printCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type cardArtifactResponse struct {
	Card cardResponse `json:"card"`
	Path string       `json:"path"`
}

type decoyResponse struct {
	Card cardResponse `json:"card"`
	Path string       `json:"path"`
}

type copyResponse struct {
	Card          cardResponse    `json:"card"`
	CardPath      string          `json:"cardPath"`
	Decoys        []decoyResponse `json:"randomCards"`
	SheetPath     string          `json:"sheetPath"`
	SheetOccupied int             `json:"sheetOccupied"`
	SheetCapacity int             `json:"sheetCapacity"`
	PrintCount    int             `json:"printCount"`
}

type addressResponse struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
}

type lineItemResponse struct {
	CardID   string `json:"cardId"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	ID              string             `json:"id"`
	BuyerUserID     string             `json:"buyerUserId"`
	Items           []lineItemResponse `json:"items"`
	ShippingAddress addressResponse    `json:"shippingAddress"`
	TotalAmount     string             `json:"totalAmount"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"paymentStatus"`
	TrackingNumber  string             `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type copyFailureResponse struct {
	CardID    string `json:"cardId"`
	CopyIndex int    `json:"copyIndex"`
	Reason    string `json:"reason"`
}

type outcomeResponse struct {
	OrderID             string                `json:"orderId"`
	LedgerEntryID       string                `json:"ledgerEntryId"`
	TrackingNumber      string                `json:"trackingNumber"`
	TotalCardsProcessed int                   `json:"totalCardsProcessed"`
	TotalFailed         int                   `json:"totalFailed"`
	Failures            []copyFailureResponse `json:"failures,omitempty"`
	PrintSheetPaths     []string              `json:"printSheetPaths"`
	ShippingLabelPath   string                `json:"shippingLabelPath"`
	RemoteArchiveID     string                `json:"remoteArchiveId,omitempty"`
	RemoteArchiveLink   string                `json:"remoteArchiveLink,omitempty"`
	Status              string                `json:"status"`
	ProcessedAt         time.Time             `json:"processedAt"`
}

func toCardResponse(card catalog.Card) cardResponse {
	return cardResponse{
		ID:          card.ID,
		Name:        card.Name,
		BeltRank:    card.BeltRank,
		Achievement: card.Achievement,
		ClubName:    card.ClubName,
		Image:       card.Image,
		Price:       card.Price.String(),
		OwnerUserID: card.OwnerUserID,
		PrintCount:  card.PrintCount,
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}
}

func toCopyResponse(result domain.CopyResult) copyResponse {
	response := copyResponse{
		Card:          toCardResponse(result.Card),
		CardPath:      result.CardPath,
		SheetPath:     result.SheetPath,
		SheetOccupied: result.SheetOccupied,
		SheetCapacity: result.SheetCapacity,
		PrintCount:    result.PrintCount,
	}
	for _, decoy := range result.Decoys {
		response.Decoys = append(response.Decoys, decoyResponse{
			Card: toCardResponse(decoy.Card),
			Path: decoy.Path,
		})
	}
	return response
}

func toOrderResponse(order orders.Order) orderResponse {
	response := orderResponse{
		ID:          order.ID,
		BuyerUserID: order.BuyerUserID,
		ShippingAddress: addressResponse{
			FullName:     order.ShippingAddress.FullName,
			AddressLine1: order.ShippingAddress.AddressLine1,
			AddressLine2: order.ShippingAddress.AddressLine2,
			City:         order.ShippingAddress.City,
			State:        order.ShippingAddress.State,
			PostalCode:   order.ShippingAddress.PostalCode,
			Country:      order.ShippingAddress.Country,
			Phone:        order.ShippingAddress.Phone,
		},
		TotalAmount:    order.TotalAmount.String(),
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		TrackingNumber: order.TrackingNumber,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	for _, item := range order.Items {
		response.Items = append(response.Items, lineItemResponse{
			CardID:   item.CardID,
			Quantity: item.Quantity,
		})
	}
	return response
}

func toOutcomeResponse(outcome domain.Outcome) outcomeResponse {
	response := outcomeResponse{
		OrderID:             outcome.Order.ID,
		LedgerEntryID:       outcome.Ledger.ID,
		TrackingNumber:      outcome.Label.TrackingNumber,
		TotalCardsProcessed: outcome.Report.TotalProcessed(),
		TotalFailed:         outcome.Report.TotalFailed(),
		PrintSheetPaths:     outcome.Report.SheetPaths(),
		ShippingLabelPath:   outcome.LabelPath,
		RemoteArchiveID:     outcome.Ledger.RemoteArchiveID,
		RemoteArchiveLink:   outcome.Ledger.RemoteArchiveLink,
		Status:              string(outcome.Ledger.Status),
		ProcessedAt:         outcome.Ledger.ProcessedAt,
	}
	for _, failure := range outcome.Report.Failures {
		response.Failures = append(response.Failures, copyFailureResponse{
			CardID:    failure.CardID,
			CopyIndex: failure.CopyIndex,
			Reason:    failure.Reason,
		})
	}
	return response
}
