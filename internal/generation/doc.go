// Package generation provides the interfaces and the resilient client used to
// obtain travel itineraries from an external AI/LLM content generation service
// (Gemini). It abstracts the details of LLM API integration behind the
// Transport interface and exposes the Generator interface to the service
// layer.
//
// A single call runs through a fixed sequence of stages: the prompt is built
// from the traveler's request, the transport is invoked under a timeout, the
// outcome is classified, and the returned text is repaired (code fences and
// surrounding prose removed) before being decoded into a domain.Trip. A
// RetryPolicy wraps the whole attempt and retries transient failures with
// exponential backoff.
package generation
