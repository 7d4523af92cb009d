package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"strings"
)

// RequestSignature computes the HMAC-SHA512 request signature clients send in
// X-Signature. The signed payload is UPPER(method) + requestURI + the raw
// SHA-512 digest of nonce+body; the result is base64-encoded. The
// construction is part of the client contract and must stay bit-exact.
func RequestSignature(secret, method, requestURI string, nonce string, body []byte) string {
	inner := sha512.New()
	inner.Write([]byte(nonce))
	inner.Write(body)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte(requestURI))
	mac.Write(inner.Sum(nil))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
