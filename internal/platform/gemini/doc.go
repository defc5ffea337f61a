// Package gemini provides an implementation of the generation.Transport
// interface that uses Google's Gemini API for generating itinerary text.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the generation client to Google's external Gemini AI service.
// It sends a single prompt per call and translates between the API's
// response envelope and generation.Completion without exposing the details
// of the external service to the rest of the application.
//
// Key components:
//
// 1. Transport:
//   - Implements the generation.Transport interface
//   - Passes sampling parameters and requests a JSON response MIME type
//   - Concatenates the first candidate's text parts
//
// 2. Error Handling:
//   - Translates genai.APIError into generation.TransportError so the
//     generation client can classify failures by status
//   - Leaves network and context errors untouched
//
// Retries, timeouts and response parsing are the generation client's concern.
package gemini
