// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of work that must not
// block HTTP request handling, such as retrying the persistence of a
// generated itinerary after the database rejected the first write.
package task
