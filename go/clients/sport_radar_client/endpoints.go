package sport_radar_client

const (
	// Base URL - SportRadar uses trial access level by default
	BaseURL = "https://api.sportradar.com/nfl/official/trial"

	languageCodeEnglish = "en"

	// SportRadar takes the key as a query parameter, not a header
	APIKeyParam     = "api_key"
	JsonHeader      = "accept"
	JsonContentType = "application/json"

	// v7/{language_code}/league/hierarchy.json
	hierarchyEndpoint = "v7/" + languageCodeEnglish + "/league/hierarchy.json"
)
