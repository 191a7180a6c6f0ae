// Package client ties the transport and the HTTP/1.x codec together: one
// call connects, writes a request, and reads the complete response.
package client
