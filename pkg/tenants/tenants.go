package tenants

import "context"

// Route is the broker routing configuration for one notification service
// (email, sms, chat) of a tenant. Exchange, queue and routing key names are
// tenant configuration, never hardcoded by this library.
type Route struct {
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
	Queue      string `json:"queue"`
	Durable    bool   `json:"durable"`
}

// Tenant holds the per-client broker connection and routing configuration.
type Tenant struct {
	ID      string           `json:"id"`
	AMQPURL string           `json:"amqp_url"`
	Routes  map[string]Route `json:"routes"`
}

// Route returns the routing configuration for a service key.
func (t Tenant) Route(serviceKey string) (Route, bool) {
	r, ok := t.Routes[serviceKey]
	return r, ok
}

// Source fetches the full tenant configuration set from an external
// key-value provider. Implementations must be safe for concurrent use.
type Source interface {
	FetchAll(ctx context.Context) ([]Tenant, error)
}
