package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on inbound requests.
const AccessTokenHeaderName = "Authorization"
