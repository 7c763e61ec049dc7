package dto

type FavoriteState struct {
	CarID   string `json:"car_id"`
	Favored bool   `json:"favored"`
}
