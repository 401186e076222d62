package kalshi

// types.go — DTOs del API de Kalshi. Los precios llegan en centavos enteros.

type eventsResponse struct {
	Events []eventDTO `json:"events"`
	Cursor string     `json:"cursor"`
}

type eventDTO struct {
	EventTicker string      `json:"event_ticker"`
	Category    string      `json:"category"`
	Markets     []marketDTO `json:"markets"`
}

type marketDTO struct {
	Ticker         string  `json:"ticker"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	CloseTime      string  `json:"close_time"`
	ExpirationTime string  `json:"expiration_time"`
	YesBid         int     `json:"yes_bid"`
	YesAsk         int     `json:"yes_ask"`
	NoBid          int     `json:"no_bid"`
	NoAsk          int     `json:"no_ask"`
	Volume         int     `json:"volume"`
	Liquidity      float64 `json:"liquidity"`
}
