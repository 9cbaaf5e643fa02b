// Package logger is a standardized event logging framework for doorOS
// sessions. Events are written as newline delimited JSON objects.
package logger
