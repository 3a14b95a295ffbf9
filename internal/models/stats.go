package models

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type GlobalStats struct {
	Total     int          `json:"totalParcels"`
	Pending   int          `json:"pending"`
	InTransit int          `json:"inTransit"`
	Delivered int          `json:"delivered"`
	Cancelled int          `json:"cancelled"`
	Monthly   []MonthCount `json:"monthly"`
}

type ReceiverStats struct {
	Total                int `json:"total"`
	InTransit            int `json:"inTransit"`
	Delivered            int `json:"delivered"`
	AwaitingConfirmation int `json:"awaitingConfirmation"`
	ArrivingToday        int `json:"arrivingToday"`
}

type AdminStats struct {
	Parcels GlobalStats `json:"parcels"`
	Users   UserCounts  `json:"users"`
}
