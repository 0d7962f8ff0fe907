package dto

// ShopperInput is one row of the shopper assignment table.
type ShopperInput struct {
	ID         int     `json:"id" validate:"required,gt=0"`
	Name       string  `json:"name" validate:"required,max=100"`
	FamilyName *string `json:"family_name" validate:"omitempty,max=200"`
}

// UpdateShoppersRequest replaces the whole shopper table.
type UpdateShoppersRequest struct {
	Shoppers []ShopperInput `json:"shoppers" validate:"unique=ID,dive"`
}
