package models

// Shopper is a volunteer who can be assigned to one family.
type Shopper struct {
	ID         int     `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	FamilyName *string `db:"family_name" json:"family_name"`
}
