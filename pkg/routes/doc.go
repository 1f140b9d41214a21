/*
Package routes wraps a types.RouteTable in an atomic.Pointer so the Proxy
can swap in a freshly merged snapshot on reload without ever blocking or
exposing a half-updated map to an in-flight connection.
*/
package routes
