// Package domain contains the core entities of the trip planner: the
// generation request a traveler submits and the itinerary document the
// language model produces for it. It has no infrastructure dependencies and is
// imported by every other internal package.
package domain
