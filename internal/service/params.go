package service

import "time"

// ProductParams is the input for AddProduct.
type ProductParams struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
}

// LogFilter supports activity filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SIGNUP", "LOGIN", "LOGOUT", "PASSWORD_CHANGE", "PRODUCT_ADD", "BUY", "RETURN"
}
