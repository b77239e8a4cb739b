/*
Package oidc implements OIDC discovery: it fetches the issuer's
.well-known/openid-configuration document and exposes the jwks_uri it
advertises, per OpenID Connect Discovery 1.0
(https://openid.net/specs/openid-connect-discovery-1_0.html).
*/
package oidc
