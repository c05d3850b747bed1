// Package handler implements the HTTP boundary of the word count service.
// It parses multipart uploads, enforces upload limits, runs the aggregation
// and maps its outcome onto status codes and a count-ordered JSON object.
package handler
