package sport_radar_client

import (
	"github.com/mcdev12/draftroom/go/clients"
)

type SportRadarClient struct {
	*clients.BaseClient
}

func NewSportRadarClient(apiKey string) *SportRadarClient {
	return NewSportRadarClientWithURL(BaseURL, apiKey)
}

// NewSportRadarClientWithURL points the client at another host, such as a
// mirror or a test server.
func NewSportRadarClientWithURL(baseURL, apiKey string) *SportRadarClient {
	client := &SportRadarClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader(JsonHeader, JsonContentType)
	client.SetQueryParam(APIKeyParam, apiKey)
	return client
}
