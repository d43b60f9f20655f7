package model

// Balances are the pool's holdings of both sides of the pair, as decimal strings.
type Balances struct {
	BaseToken  string
	QuoteToken string
}

// MarketData is one persisted snapshot. JSON keys match the v2 archive format.
type MarketData struct {
	MarketCapInBaseCurrency string `json:"mCapEth"`
	BurntAmount             string `json:"burntShiAmt"`
	BaseTokenPoolBalance    string `json:"shina"`
	QuoteTokenPoolBalance   string `json:"weth"`
	USDPerQuoteCurrency     string `json:"ethUsd"`
	TotalSupply             string `json:"totalSupply"`
	Timestamp               string `json:"timestamp"`
	USDMarketCap            string `json:"ethUsdMcap"`
}
