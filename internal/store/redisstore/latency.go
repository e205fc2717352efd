package redisstore

import "strings"

const userInfix = ":user:"

// LatencyKey is the sample list of endpoint, or of one caller of it when
// userID is set.
func LatencyKey(endpoint, userID string) string {
	if userID == "" {
		return LatencyPrefix + endpoint
	}
	return LatencyPrefix + endpoint + userInfix + userID
}

// EndpointOf returns the endpoint of a global latency key. Per-user keys and
// keys outside the latency prefix report false.
func EndpointOf(key string) (string, bool) {
	ep, ok := strings.CutPrefix(key, LatencyPrefix)
	if !ok || ep == "" || strings.Contains(ep, userInfix) {
		return "", false
	}
	return ep, true
}
