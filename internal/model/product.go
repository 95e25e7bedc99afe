package model

// Product is a catalog item. Products are managed out-of-band and are read-only to users.
type Product struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Manufacturer   string `json:"manufacturer"`
	Description    string `json:"description"`
	ImageURL       string `json:"imageUrl"`
	PriceReference *int   `json:"priceReference,omitempty"`
	PriceUnitQty   string `json:"priceUnitQty,omitempty"`
	AmazonURL      string `json:"amazonUrl,omitempty"`
	AmazonPrice    *int   `json:"amazonPrice,omitempty"`
	RakutenURL     string `json:"rakutenUrl,omitempty"`
	RakutenPrice   *int   `json:"rakutenPrice,omitempty"`
	YahooURL       string `json:"yahooUrl,omitempty"`
	YahooPrice     *int   `json:"yahooPrice,omitempty"`
	Barcode        string `json:"barcode,omitempty"`
	ASIN           string `json:"asin,omitempty"`
}

// ProductQuery filters the catalog listing.
type ProductQuery struct {
	Search       string
	Manufacturer string
	Page         int
	Limit        int
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
