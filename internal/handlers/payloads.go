package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	domain "github.com/marketfront/api/internal/domain"
)

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func formatOptionalTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return formatTimestamp(*ts)
}

type storePayload struct {
	ID              string `json:"id"`
	SellerID        string `json:"seller_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Status          string `json:"status"`
	ReviewFailCount int    `json:"review_fail_count"`
	SubmittedAt     string `json:"submitted_at,omitempty"`
	RecoverAt       string `json:"recover_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func newStorePayload(store domain.Store) storePayload {
	return storePayload{
		ID:              store.ID,
		SellerID:        store.SellerID,
		Name:            store.Name,
		Description:     store.Description,
		Status:          string(store.Status),
		ReviewFailCount: store.ReviewFailCount,
		SubmittedAt:     formatOptionalTimestamp(store.SubmittedAt),
		RecoverAt:       formatOptionalTimestamp(store.RecoverAt),
		CreatedAt:       formatTimestamp(store.CreatedAt),
		UpdatedAt:       formatTimestamp(store.UpdatedAt),
	}
}

type productPayload struct {
	ID           string `json:"id"`
	StoreID      string `json:"store_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"price_display"`
	Quantity     int    `json:"quantity"`
	Location     string `json:"location,omitempty"`
	ImagePath    string `json:"image_path,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	Status       string `json:"status"`
	IsActive     bool   `json:"is_active"`
	RejectReason string `json:"reject_reason,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func newProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:           product.ID,
		StoreID:      product.StoreID,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		PriceDisplay: domain.FormatAmount(product.Price),
		Quantity:     product.Quantity,
		Location:     product.Location,
		ImagePath:    product.ImagePath,
		EndDate:      formatOptionalTimestamp(product.EndDate),
		Status:       string(product.Status),
		IsActive:     product.IsActive,
		RejectReason: product.RejectReason,
		CreatedAt:    formatTimestamp(product.CreatedAt),
		UpdatedAt:    formatTimestamp(product.UpdatedAt),
	}
}

func newProductPayloads(products []domain.Product) []productPayload {
	out := make([]productPayload, len(products))
	for i, p := range products {
		out[i] = newProductPayload(p)
	}
	return out
}

type storeAggregatePayload struct {
	Store    storePayload     `json:"store"`
	Products []productPayload `json:"products"`
}

func newStoreAggregatePayload(agg domain.StoreAggregate) storeAggregatePayload {
	return storeAggregatePayload{
		Store:    newStorePayload(agg.Store),
		Products: newProductPayloads(agg.Products),
	}
}

type orderItemPayload struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type orderPayload struct {
	ID            string             `json:"id"`
	BuyerID       string             `json:"buyer_id"`
	StoreID       string             `json:"store_id"`
	TotalAmount   int64              `json:"total_amount"`
	TotalDisplay  string             `json:"total_display"`
	Status        string             `json:"status"`
	ReceiverName  string             `json:"receiver_name,omitempty"`
	ReceiverPhone string             `json:"receiver_phone,omitempty"`
	Address       string             `json:"address,omitempty"`
	Items         []orderItemPayload `json:"items"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
	CompletedAt   string             `json:"completed_at,omitempty"`
}

func newOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemPayload{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		}
	}
	return orderPayload{
		ID:            order.ID,
		BuyerID:       order.BuyerID,
		StoreID:       order.StoreID,
		TotalAmount:   order.TotalAmount,
		TotalDisplay:  domain.FormatAmount(order.TotalAmount),
		Status:        string(order.Status),
		ReceiverName:  order.Shipping.ReceiverName,
		ReceiverPhone: order.Shipping.ReceiverPhone,
		Address:       order.Shipping.Address,
		Items:         items,
		CreatedAt:     formatTimestamp(order.CreatedAt),
		UpdatedAt:     formatTimestamp(order.UpdatedAt),
		CompletedAt:   formatOptionalTimestamp(order.CompletedAt),
	}
}

func newOrderPayloads(orders []domain.Order) []orderPayload {
	out := make([]orderPayload, len(orders))
	for i, o := range orders {
		out[i] = newOrderPayload(o)
	}
	return out
}

type reviewRecordPayload struct {
	ID         string `json:"id"`
	Target     string `json:"target"`
	TargetID   string `json:"target_id"`
	StoreID    string `json:"store_id"`
	ReviewerID string `json:"reviewer_id"`
	Result     string `json:"result"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newReviewRecordPayloads(records []domain.ReviewRecord) []reviewRecordPayload {
	out := make([]reviewRecordPayload, len(records))
	for i, rec := range records {
		out[i] = reviewRecordPayload{
			ID:         rec.ID,
			Target:     string(rec.Target),
			TargetID:   rec.TargetID,
			StoreID:    rec.StoreID,
			ReviewerID: rec.ReviewerID,
			Result:     string(rec.Result),
			Comment:    rec.Comment,
			CreatedAt:  formatTimestamp(rec.CreatedAt),
		}
	}
	return out
}

type buyerPayload struct {
	ID             string `json:"id"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func newBuyerPayload(buyer domain.Buyer) buyerPayload {
	return buyerPayload{
		ID:             buyer.ID,
		Balance:        buyer.Balance,
		BalanceDisplay: domain.FormatAmount(buyer.Balance),
		CreatedAt:      formatTimestamp(buyer.CreatedAt),
		UpdatedAt:      formatTimestamp(buyer.UpdatedAt),
	}
}
