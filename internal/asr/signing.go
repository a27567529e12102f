package asr

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strings"
)

// percentEncode implements the strict RFC 3986 variant both providers
// require: unreserved characters pass through, everything else becomes
// uppercase %XX. Unlike url.QueryEscape this also escapes '!', '\'', '(',
// ')', and '*', and encodes spaces as %20.
func percentEncode(value string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xF])
		}
	}
	return b.String()
}

// canonicalQuery builds the signing base: keys sorted lexicographically,
// each pair percent-encoded and joined with '&'. The same string doubles as
// the request query so the signed form and the wire form cannot drift.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, percentEncode(key)+"="+percentEncode(params[key]))
	}
	return strings.Join(pairs, "&")
}

// hmacSHA1Base64 computes the base64-encoded HMAC-SHA1 of message keyed by
// secret. Deterministic: identical inputs always produce the identical
// signature.
func hmacSHA1Base64(secret, message string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// tencentStringToSign canonicalizes a flash-recognition request:
// method + host + path + "?" + canonical query. The signature is sent in
// the Authorization header.
func tencentStringToSign(method, host, path string, params map[string]string) string {
	return method + host + path + "?" + canonicalQuery(params)
}

// signTencent returns the Authorization header value for a flash request.
func signTencent(secretKey, method, host, path string, params map[string]string) string {
	return hmacSHA1Base64(secretKey, tencentStringToSign(method, host, path, params))
}

// alibabaStringToSign canonicalizes a POP-style request:
// method + "&" + encode("/") + "&" + encode(canonical query). The signing
// key is the access key secret with "&" appended.
func alibabaStringToSign(method string, params map[string]string) string {
	return method + "&" + percentEncode("/") + "&" + percentEncode(canonicalQuery(params))
}

// signAlibaba returns the Signature parameter value for a POP request.
func signAlibaba(accessKeySecret, method string, params map[string]string) string {
	return hmacSHA1Base64(accessKeySecret+"&", alibabaStringToSign(method, params))
}
