// Package ratelimit implements the admission gate in front of the itinerary
// generation endpoint. Each client identity may trigger at most MaxRequests
// generations within a trailing Window.
//
// SlidingWindow keeps its timestamp log in process memory and is the default.
// RedisSlidingWindow applies the same algorithm to a Redis sorted set so that
// several instances share one budget per client.
package ratelimit
