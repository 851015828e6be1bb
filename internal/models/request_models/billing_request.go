package request_models

type CreateCheckoutRequest struct {
	PlanID       string `json:"plan_id" binding:"required,oneof=basic pro elite"`
	NumberOfBeds int    `json:"number_of_beds"`
	BoostEnabled bool   `json:"boost_enabled"`
	PromoCode    string `json:"promo_code,omitempty"`
	SuccessURL   string `json:"success_url,omitempty" binding:"omitempty,url"`
	CancelURL    string `json:"cancel_url,omitempty" binding:"omitempty,url"`
}

type CreatePortalRequest struct {
	ReturnURL string `json:"return_url,omitempty" binding:"omitempty,url"`
}

type ValidatePromoRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}
