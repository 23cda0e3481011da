package auth

const (
	ScopeOpenID       = "openid"
	ScopeProfile      = "profile"
	ScopeEmail        = "email"
	ScopeConvertRead  = "convert:read"
	ScopeConvertWrite = "convert:write"
)

// AllScopes defines the full set of scopes used by the Swagger UI / Frontend
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeConvertRead,
	ScopeConvertWrite,
}
