package common

const (
	// AuthorizationHeaderName is the gRPC metadata key (and lower-cased HTTP
	// header) that carries credentials on inbound requests.
	AuthorizationHeaderName = "authorization"

	// BearerScheme is the only authorization scheme understood by the server.
	BearerScheme = "Bearer"
)
