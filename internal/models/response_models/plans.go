package response_models

type PlanResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	PricePerBed      float64  `json:"price_per_bed"`
	PricePerBedLabel string   `json:"price_per_bed_label"`
	Currency         string   `json:"currency"`
	Features         []string `json:"features"`
	Recommended      bool     `json:"recommended"`
}

type PlanCatalogResponse struct {
	Plans      []PlanResponse `json:"plans"`
	BoostPrice float64        `json:"boost_price"`
}

type QuoteResponse struct {
	PlanID             string  `json:"plan_id"`
	NumberOfBeds       int     `json:"number_of_beds"`
	BoostEnabled       bool    `json:"boost_enabled"`
	PricePerBed        float64 `json:"price_per_bed"`
	BoostPrice         float64 `json:"boost_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	PromoMessage       string  `json:"promo_message,omitempty"`
	Total              float64 `json:"total"`
	TotalLabel         string  `json:"total_label"`
}
