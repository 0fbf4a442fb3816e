package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidGameStats reports whether a remote gameStats value is well-formed.
// Malformed sub-documents are treated as absent by the mirror.
func ValidGameStats(g *GameStats) bool {
	return g != nil && validate.Struct(g) == nil
}

// ValidWallet reports whether a remote wallet value is well-formed.
func ValidWallet(w *Wallet) bool {
	return w != nil && validate.Struct(w) == nil
}
